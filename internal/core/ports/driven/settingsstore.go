package driven

import "github.com/abhinay-x/studymate-sub000/internal/core/domain"

// SettingsStore reads and writes application settings.
// Implementations handle persistence (e.g., TOML files) and validation.
type SettingsStore interface {
	// Load reads settings, falling back to defaults when no file exists.
	Load() (domain.AppSettings, error)

	// Save validates and writes the settings.
	Save(settings domain.AppSettings) error

	// Path returns the configuration file path.
	Path() string
}
