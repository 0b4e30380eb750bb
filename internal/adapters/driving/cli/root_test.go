package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "studymate", rootCmd.Use)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	cfg := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "", cfg.DefValue)

	v := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)
}

func TestRootCmd_HasCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"search", "document", "index", "sync", "serve", "mcp", "settings", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRequireRetrieval(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	svc, err := requireRetrieval()
	require.NoError(t, err)
	assert.NotNil(t, svc)

	retrievalService = nil
	_, err = requireRetrieval()
	assert.EqualError(t, err, "retrieval service not configured")
}

func TestSearchDefaults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	assert.Equal(t, domain.DefaultSearchOptions(), searchDefaults())

	appSettings.Search.MaxResults = 0
	assert.Equal(t, domain.DefaultSearchOptions(), searchDefaults())

	appSettings.Search = domain.SearchSettings{MaxResults: 5, MinRelevance: 0.3}
	assert.Equal(t, domain.SearchOptions{MaxResults: 5, MinRelevance: 0.3}, searchDefaults())
}

func TestRequestTimeout(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	assert.Equal(t, 30*time.Second, requestTimeout())

	appSettings.Server.RequestTimeoutSeconds = 5
	assert.Equal(t, 5*time.Second, requestTimeout())

	appSettings.Server.RequestTimeoutSeconds = 0
	assert.Equal(t, 30*time.Second, requestTimeout())
}

func TestServeCmd(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
	assert.Contains(t, serveCmd.Long, "/v1/search")

	addr := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, "", addr.DefValue)
}

func TestMCPServeCmd(t *testing.T) {
	assert.Equal(t, "serve", mcpServeCmd.Use)
	assert.Contains(t, mcpServeCmd.Long, "studymate mcp serve")

	port := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.Equal(t, "0", port.DefValue)
}

func TestNewApp_InMemory(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Storage.Persist = false

	a, err := newApp(t.Context(), settings)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.store)
	assert.NotNil(t, a.metrics)
	assert.Equal(t, 384, a.embedder.Dimensions())
	assert.Zero(t, a.retrieval.Stats(t.Context()).ChunkCount)
}

func TestNewApp_PersistsAcrossRestarts(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Storage.DataDir = t.TempDir()

	a, err := newApp(t.Context(), settings)
	require.NoError(t, err)
	_, err = a.retrieval.Ingest(t.Context(), "bio", "Biology_Textbook.txt", biologyText)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := newApp(t.Context(), settings)
	require.NoError(t, err)
	defer b.Close()

	stats := b.retrieval.Stats(t.Context())
	assert.Equal(t, 1, stats.DocumentCount)
	docs := b.retrieval.List(t.Context())
	require.Len(t, docs, 1)
	assert.Equal(t, "Biology_Textbook.txt", docs[0].DocumentName)
}

func TestNewApp_InvalidChunking(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Chunking.Overlap = settings.Chunking.ChunkSize

	_, err := newApp(t.Context(), settings)

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
