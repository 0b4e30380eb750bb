package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/ai"
	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/embedding/hashed"
	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// checkTimeout bounds the connectivity check of settings check.
const checkTimeout = 15 * time.Second

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, search, embedding and storage settings.

Settings live in ~/.studymate/config.toml unless --config or $STUDYMATE_CONFIG
names another file. Files ending in .yaml or .yml are read as YAML.`,
	Annotations: map[string]string{annotationSkipServices: "true"},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the defaults",
	RunE:  runSettingsInit,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(settingsStore.Path())
	},
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Choose the embedding provider used for semantic search.

API keys are never written to the settings file. Providers that need one
read it from an environment variable, which may also be set in a .env file.`,
	RunE: runSettingsEmbedding,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and test the embedding provider",
	RunE:  runSettingsCheck,
}

var initForce bool

func init() {
	settingsInitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsInitCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsStore == nil {
		return errors.New("settings store not configured")
	}

	settings, loadErr := settingsStore.Load()

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("File: %s\n", settingsStore.Path())
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Chunk size: %d words\n", settings.Chunking.ChunkSize)
	cmd.Printf("  Overlap: %d words\n", settings.Chunking.Overlap)
	cmd.Printf("  Words per page: %d\n", settings.Chunking.WordsPerPage)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Max results: %d\n", settings.Search.MaxResults)
	cmd.Printf("  Min relevance: %.2f\n", settings.Search.MinRelevance)
	cmd.Printf("  Include context: %t\n", settings.Search.IncludeContext)
	cmd.Printf("  Weights: term %.2f, semantic %.2f\n", settings.Search.TermWeight, settings.Search.SemanticWeight)
	for _, b := range settings.Search.Boosts {
		cmd.Printf("  Boost: %q x%.2f\n", b.Pattern, b.Factor)
	}
	cmd.Println()

	emb := settings.Embedding
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", emb.Provider.Description())
	cmd.Printf("  Model: %s\n", emb.ModelOrDefault())
	cmd.Printf("  Dimensions: %d\n", emb.DimensionsOrDefault())
	if emb.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", emb.BaseURL)
	}
	if emb.Provider.RequiresAPIKey() {
		if emb.APIKey != "" {
			cmd.Printf("  API Key: %s (from $%s)\n", maskAPIKey(emb.APIKey), emb.APIKeyEnvOrDefault())
		} else {
			cmd.Printf("  API Key: (not set, export $%s)\n", emb.APIKeyEnvOrDefault())
		}
	}
	status := "configured"
	if !emb.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Storage]")
	if settings.Storage.Persist {
		dir := settings.Storage.DataDir
		if dir == "" {
			dir = "~/.studymate/data"
		}
		cmd.Printf("  Persist: yes (%s)\n", dir)
	} else {
		cmd.Println("  Persist: no")
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Printf("  Request timeout: %ds\n", settings.Server.RequestTimeoutSeconds)
	cmd.Println()

	if loadErr != nil {
		cmd.Printf("Warning: %v\n", loadErr)
		cmd.Println("Run 'studymate settings init --force' to start from the defaults.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsInit(cmd *cobra.Command, _ []string) error {
	if settingsStore == nil {
		return errors.New("settings store not configured")
	}

	path := settingsStore.Path()
	if !initForce && path != "" {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}

	if err := settingsStore.Save(domain.DefaultAppSettings()); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	cmd.Printf("Wrote default settings to %s\n", path)
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsStore == nil {
		return errors.New("settings store not configured")
	}

	settings, err := settingsStore.Load()
	if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	emb := domain.EmbeddingSettings{
		Provider:          provider,
		BatchSize:         settings.Embedding.BatchSize,
		Concurrency:       settings.Embedding.Concurrency,
		RequestsPerSecond: settings.Embedding.RequestsPerSecond,
		TimeoutSeconds:    settings.Embedding.TimeoutSeconds,
	}

	if provider != domain.AIProviderHashed {
		defaultModel := domain.DefaultEmbeddingModels()[provider]
		cmd.Printf("Enter model name [%s]: ", defaultModel)
		if model := readLine(reader); model != "" {
			emb.Model = model
		}
	}

	if provider.IsLocal() && provider != domain.AIProviderHashed {
		cmd.Print("Enter base URL [provider default]: ")
		emb.BaseURL = readLine(reader)
	}

	if provider.RequiresAPIKey() {
		defaultEnv := provider.DefaultAPIKeyEnv()
		cmd.Printf("Environment variable holding the API key [%s]: ", defaultEnv)
		if env := readLine(reader); env != "" && env != defaultEnv {
			emb.APIKeyEnv = env
		}
		emb.APIKey = os.Getenv(emb.APIKeyEnvOrDefault())
	}

	if provider == domain.AIProviderHashed {
		emb.Dimensions = hashed.DefaultDimensions
	}

	settings.Embedding = emb
	if err := settingsStore.Save(settings); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), emb.ModelOrDefault())
	if provider.RequiresAPIKey() && emb.APIKey == "" {
		cmd.Printf("Note: export $%s before indexing.\n", emb.APIKeyEnvOrDefault())
	}
	cmd.Println("Documents indexed with another provider must be added again.")
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsStore == nil {
		return errors.New("settings store not configured")
	}

	settings, err := settingsStore.Load()
	if err != nil {
		return err
	}
	cmd.Println("Settings file is valid.")

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	cmd.Printf("Testing %s embedding provider... ", settings.Embedding.Provider)
	svc, err := ai.CreateAndValidateEmbeddingService(ctx, settings.Embedding)
	if err != nil {
		cmd.Println("FAILED")
		return err
	}
	defer svc.Close()
	cmd.Printf("OK (%s, %d dimensions)\n", svc.ModelName(), svc.Dimensions())
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
