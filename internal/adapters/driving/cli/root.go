// Package cli provides the studymate command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/config/file"
	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driving"
	"github.com/abhinay-x/studymate-sub000/internal/logger"
	"github.com/abhinay-x/studymate-sub000/internal/metrics"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// annotationSkipServices marks commands that run without the retrieval engine.
const annotationSkipServices = "studymate/skip-services"

var (
	cfgFile string
	verbose bool
)

// Services used by commands. setupServices fills them in before a command
// runs; tests assign them directly.
var (
	settingsStore    driven.SettingsStore
	appSettings      = domain.DefaultAppSettings()
	retrievalService driving.RetrievalService
	embeddingService driven.EmbeddingService
	appMetrics       *metrics.Metrics
	metricsRegistry  *prometheus.Registry
	closeServices    = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "studymate",
	Short: "Search your study materials",
	Long: `StudyMate indexes lecture notes, textbooks and other study material and
answers questions with the most relevant passages.

Documents are split into overlapping chunks, embedded, and ranked by a
hybrid of keyword and semantic similarity.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"settings file (default $STUDYMATE_CONFIG or ~/.studymate/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "explain what the engine is doing")
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { closeServices() }()

	return rootCmd.ExecuteContext(ctx)
}

// setupServices loads settings and builds the engine for the command about
// to run. Anything already assigned is left alone.
func setupServices(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}

	if settingsStore == nil {
		path, err := file.ResolvePath(cfgFile)
		if err != nil {
			return err
		}
		settingsStore = file.NewSettingsStore(path)
	}

	if skipServices(cmd) || retrievalService != nil {
		return nil
	}

	settings, err := settingsStore.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if settings.Logging.Verbose {
		logger.SetVerbose(true)
	}
	logger.SetJSON(settings.Logging.JSON)

	a, err := newApp(cmd.Context(), settings)
	if err != nil {
		return err
	}

	appSettings = settings
	retrievalService = a.retrieval
	embeddingService = a.embedder
	appMetrics = a.metrics
	metricsRegistry = a.registry
	closeServices = func() {
		if err := a.Close(); err != nil {
			logger.Warn("Closing services: %v", err)
		}
	}
	return nil
}

func skipServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationSkipServices] == "true" {
			return true
		}
	}
	return false
}

// requireRetrieval returns the retrieval service or an error when none is configured.
func requireRetrieval() (driving.RetrievalService, error) {
	if retrievalService == nil {
		return nil, errors.New("retrieval service not configured")
	}
	return retrievalService, nil
}

// searchDefaults returns the per-query options from the loaded settings.
func searchDefaults() domain.SearchOptions {
	opts := appSettings.Search.Options()
	if opts.MaxResults <= 0 {
		return domain.DefaultSearchOptions()
	}
	return opts
}

// requestTimeout bounds a single API or MCP call.
func requestTimeout() time.Duration {
	if appSettings.Server.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(appSettings.Server.RequestTimeoutSeconds) * time.Second
}
