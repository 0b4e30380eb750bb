package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// EnvConfigPath overrides the default settings file location.
const EnvConfigPath = "STUDYMATE_CONFIG"

// SettingsStore reads and writes domain.AppSettings as TOML, or YAML when the
// file ends in .yaml or .yml. Values missing from the file keep their defaults.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
	validate *validator.Validate
}

// ResolvePath picks the settings file: an explicit path first, then
// $STUDYMATE_CONFIG, then ~/.studymate/config.toml.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".studymate", "config.toml"), nil
}

// NewSettingsStore creates a store for the settings file at path.
// The file need not exist.
func NewSettingsStore(path string) *SettingsStore {
	v := validator.New()
	// Report fields by their file keys, e.g. "search.max_results".
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &SettingsStore{
		filePath: path,
		validate: v,
	}
}

// Load reads the settings file over the defaults, resolves the API key from
// the environment and validates the result.
func (s *SettingsStore) Load() (domain.AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultAppSettings()

	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No settings file yet; defaults apply.
	case err != nil:
		return settings, fmt.Errorf("reading settings: %w", err)
	default:
		// Decoders may append to a populated slice, so boosts start empty.
		settings.Search.Boosts = nil
		if err := s.decode(data, &settings); err != nil {
			return domain.DefaultAppSettings(), fmt.Errorf("%w: parsing %s: %w",
				domain.ErrInvalidConfig, s.filePath, err)
		}
		if settings.Search.Boosts == nil {
			settings.Search.Boosts = domain.DefaultBoosts()
		}
	}

	if env := settings.Embedding.APIKeyEnvOrDefault(); env != "" {
		settings.Embedding.APIKey = os.Getenv(env)
	}

	if err := s.check(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// Save validates the settings and writes them with restricted permissions.
// The API key is never written.
func (s *SettingsStore) Save(settings domain.AppSettings) error {
	if err := s.check(settings); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.encode(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

func (s *SettingsStore) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.filePath))
	return ext == ".yaml" || ext == ".yml"
}

func (s *SettingsStore) decode(data []byte, settings *domain.AppSettings) error {
	if s.isYAML() {
		return yaml.Unmarshal(data, settings)
	}
	return toml.Unmarshal(data, settings)
}

func (s *SettingsStore) encode(settings domain.AppSettings) ([]byte, error) {
	if s.isYAML() {
		return yaml.Marshal(settings)
	}
	return toml.Marshal(settings)
}

// check runs struct tag validation, then the cross-field rules.
func (s *SettingsStore) check(settings domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.NewConfigurationError(fieldPath(fe.Namespace()),
				fmt.Sprintf("failed %q validation (value %v)", fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	return settings.Validate()
}

// fieldPath drops the root type from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
