package file

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSettingsStore_Load_MissingFileUsesDefaults(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), "config.toml"))

	settings, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), settings)
}

func TestSettingsStore_Load_PartialTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[chunking]
chunk_size = 200
overlap = 50

[search]
max_results = 5
`)

	settings, err := NewSettingsStore(path).Load()

	require.NoError(t, err)
	assert.Equal(t, 200, settings.Chunking.ChunkSize)
	assert.Equal(t, 50, settings.Chunking.Overlap)
	assert.Equal(t, domain.DefaultWordsPerPage, settings.Chunking.WordsPerPage)
	assert.Equal(t, 5, settings.Search.MaxResults)
	assert.Equal(t, domain.DefaultBoosts(), settings.Search.Boosts)
	assert.Equal(t, domain.AIProviderHashed, settings.Embedding.Provider)
}

func TestSettingsStore_Load_TOMLBoostsReplaceDefaults(t *testing.T) {
	path := writeFile(t, "config.toml", `
[[search.boosts]]
pattern = "lecture"
factor = 1.5
`)

	settings, err := NewSettingsStore(path).Load()

	require.NoError(t, err)
	assert.Equal(t, []domain.SourceBoost{{Pattern: "lecture", Factor: 1.5}}, settings.Search.Boosts)
}

func TestSettingsStore_Load_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
search:
  max_results: 8
  min_relevance: 0.3
embedding:
  provider: ollama
  model: all-minilm
logging:
  verbose: true
`)

	settings, err := NewSettingsStore(path).Load()

	require.NoError(t, err)
	assert.Equal(t, 8, settings.Search.MaxResults)
	assert.InDelta(t, 0.3, settings.Search.MinRelevance, 1e-9)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "all-minilm", settings.Embedding.Model)
	assert.True(t, settings.Logging.Verbose)
	assert.Equal(t, domain.DefaultChunkSize, settings.Chunking.ChunkSize)
}

func TestSettingsStore_Load_ResolvesAPIKey(t *testing.T) {
	t.Setenv("STUDYMATE_TEST_KEY", "sk-from-env")
	path := writeFile(t, "config.toml", `
[embedding]
provider = "openai"
api_key_env = "STUDYMATE_TEST_KEY"
`)

	settings, err := NewSettingsStore(path).Load()

	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", settings.Embedding.APIKey)
	assert.True(t, settings.Embedding.IsConfigured())
}

func TestSettingsStore_Load_DefaultAPIKeyVariable(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gm-key")
	path := writeFile(t, "config.toml", "[embedding]\nprovider = \"gemini\"\n")

	settings, err := NewSettingsStore(path).Load()

	require.NoError(t, err)
	assert.Equal(t, "gm-key", settings.Embedding.APIKey)
}

func TestSettingsStore_Load_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"zero max results", "[search]\nmax_results = 0\n", "search.max_results"},
		{"negative term weight", "[search]\nterm_weight = -1.0\n", "search.term_weight"},
		{"overlap too large", "[chunking]\nchunk_size = 10\noverlap = 10\n", "overlap"},
		{"bad base url", "[embedding]\nprovider = \"ollama\"\nbase_url = \"not a url\"\n", "embedding.base_url"},
		{"unknown provider", "[embedding]\nprovider = \"cohere\"\n", "embedding.provider"},
		{"zero boost factor", "[[search.boosts]]\npattern = \"x\"\nfactor = 0.0\n", "search.boosts[0].factor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.toml", tt.content)

			_, err := NewSettingsStore(path).Load()

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			var cfgErr *domain.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "want ConfigurationError, got %T", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestSettingsStore_Load_InvalidTOML(t *testing.T) {
	path := writeFile(t, "config.toml", "[search\nmax_results = ")

	_, err := NewSettingsStore(path).Load()

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsStore_Load_ReadError(t *testing.T) {
	// A directory cannot be read as a file.
	_, err := NewSettingsStore(t.TempDir()).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsStore_SaveAndReload(t *testing.T) {
	for _, name := range []string{"config.toml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			store := NewSettingsStore(path)

			settings := domain.DefaultAppSettings()
			settings.Search.MaxResults = 6
			settings.Search.Boosts = []domain.SourceBoost{{Pattern: "notes", Factor: 0.9}}
			settings.Embedding.Provider = domain.AIProviderOpenAI
			settings.Embedding.APIKey = "sk-secret"
			settings.Server.Addr = "127.0.0.1:9000"

			require.NoError(t, store.Save(settings))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "sk-secret")

			t.Setenv("OPENAI_API_KEY", "sk-env")
			reloaded, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, 6, reloaded.Search.MaxResults)
			assert.Equal(t, settings.Search.Boosts, reloaded.Search.Boosts)
			assert.Equal(t, "127.0.0.1:9000", reloaded.Server.Addr)
			assert.Equal(t, "sk-env", reloaded.Embedding.APIKey)
		})
	}
}

func TestSettingsStore_Save_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file permissions differ on windows")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, NewSettingsStore(path).Save(domain.DefaultAppSettings()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSettingsStore_Save_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	settings := domain.DefaultAppSettings()
	settings.Search.CandidatePoolSize = 0

	err := NewSettingsStore(path).Save(settings)

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSettingsStore_Path(t *testing.T) {
	assert.Equal(t, "/tmp/x.toml", NewSettingsStore("/tmp/x.toml").Path())
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path, err := ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".studymate", "config.toml"), path)

	t.Setenv(EnvConfigPath, "/etc/studymate.yaml")
	path, err = ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, "/etc/studymate.yaml", path)

	path, err = ResolvePath("./local.toml")
	require.NoError(t, err)
	assert.Equal(t, "./local.toml", path)
}
