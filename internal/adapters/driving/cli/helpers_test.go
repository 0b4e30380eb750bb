package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/embedding/hashed"
	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/index/flat"
	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/storage/memory"
	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driving"
	"github.com/abhinay-x/studymate-sub000/internal/core/services"
	"github.com/abhinay-x/studymate-sub000/internal/postprocessors"
)

// setupTestServices installs an in-memory engine with the hashed embedder
// and returns a func restoring the previous services.
func setupTestServices() func() {
	oldStore, oldSettings := settingsStore, appSettings
	oldRetrieval, oldEmbedding := retrievalService, embeddingService
	oldMetrics, oldRegistry := appMetrics, metricsRegistry

	settings := domain.DefaultAppSettings()
	settings.Chunking = domain.ChunkSettings{ChunkSize: 20, Overlap: 5, WordsPerPage: 300}

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking)
	if err != nil {
		panic(err)
	}
	embedder := hashed.NewEmbeddingService(64)

	settingsStore = memory.NewSettingsStore()
	appSettings = settings
	retrievalService = services.NewRetrievalService(pipeline, embedder, flat.New(),
		services.NewHybridRanker(settings.Search.Ranker()))
	embeddingService = embedder
	appMetrics, metricsRegistry = nil, nil

	return func() {
		settingsStore, appSettings = oldStore, oldSettings
		retrievalService, embeddingService = oldRetrieval, oldEmbedding
		appMetrics, metricsRegistry = oldMetrics, oldRegistry
	}
}

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

// executeWithInput is execute with stdin set to input.
func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeFile creates a file under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ingest adds a document straight through the service.
func ingest(t *testing.T, id, name, text string) {
	t.Helper()
	_, err := retrievalService.Ingest(context.Background(), id, name, text)
	require.NoError(t, err)
}

// recordingService captures search options; other methods are not used.
type recordingService struct {
	driving.RetrievalService
	lastQuery string
	lastOpts  domain.SearchOptions
	results   []domain.SearchResult
	err       error
}

func (r *recordingService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	r.lastQuery, r.lastOpts = query, opts
	return r.results, r.err
}

const biologyText = `Photosynthesis converts light energy into chemical energy.
Chlorophyll in the chloroplast absorbs red and blue light and reflects green light,
which is why leaves look green. The light reactions produce ATP and NADPH.`

const historyText = `The French Revolution began in 1789 with the storming of the Bastille.
It ended the monarchy and led to the rise of Napoleon Bonaparte.`
