package domain

import (
	"fmt"
	"strings"
)

const unknownDescription = "Unknown"

// Chunking defaults.
const (
	DefaultChunkSize    = 500
	DefaultOverlap      = 100
	DefaultWordsPerPage = 300
)

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderHashed is the built-in feature-hashing embedder. It needs no model server.
	AIProviderHashed AIProvider = "hashed"

	// AIProviderSentence is the StudyMate sentence-transformers embedding service.
	AIProviderSentence AIProvider = "sentence"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or a compatible server.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashed, AIProviderSentence, AIProviderOllama, AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// DefaultAPIKeyEnv returns the environment variable a key is read from when
// api_key_env is not set. Empty for providers without keys.
func (p AIProvider) DefaultAPIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderHashed || p == AIProviderSentence || p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashed:
		return "Hashed (built-in, offline)"
	case AIProviderSentence:
		return "Sentence Transformers (local service)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// ChunkSettings controls how documents are split into chunks.
type ChunkSettings struct {
	// ChunkSize is the window length in words.
	ChunkSize int `toml:"chunk_size" yaml:"chunk_size" json:"chunkSize" validate:"gt=0"`

	// Overlap is the number of words shared by consecutive chunks.
	Overlap int `toml:"overlap" yaml:"overlap" json:"overlap" validate:"gte=0"`

	// WordsPerPage estimates page numbers from word offsets.
	WordsPerPage int `toml:"words_per_page" yaml:"words_per_page" json:"wordsPerPage" validate:"gt=0"`
}

// Validate checks the cross-field chunking constraints.
func (c ChunkSettings) Validate() error {
	if c.ChunkSize <= 0 {
		return NewConfigurationError("chunk_size", fmt.Sprintf("must be positive, got %d", c.ChunkSize))
	}
	if c.Overlap < 0 {
		return NewConfigurationError("overlap", fmt.Sprintf("must not be negative, got %d", c.Overlap))
	}
	if c.ChunkSize <= c.Overlap {
		return NewConfigurationError("overlap",
			fmt.Sprintf("must be smaller than chunk_size (%d >= %d)", c.Overlap, c.ChunkSize))
	}
	if c.WordsPerPage <= 0 {
		return NewConfigurationError("words_per_page", fmt.Sprintf("must be positive, got %d", c.WordsPerPage))
	}
	return nil
}

// SourceBoost multiplies the score of chunks whose document name contains Pattern.
type SourceBoost struct {
	Pattern string  `toml:"pattern" yaml:"pattern" json:"pattern" validate:"required"`
	Factor  float64 `toml:"factor" yaml:"factor" json:"factor" validate:"gt=0"`
}

// Matches reports whether the document name contains the pattern, ignoring case.
func (b SourceBoost) Matches(documentName string) bool {
	if b.Pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(documentName), strings.ToLower(b.Pattern))
}

// DefaultBoosts returns the boost table for authoritative sources.
func DefaultBoosts() []SourceBoost {
	return []SourceBoost{
		{Pattern: "textbook", Factor: 1.2},
	}
}

// RankerSettings holds the weights of the hybrid ranker.
type RankerSettings struct {
	// TermWeight scales each literal query term occurrence.
	// Zero gives pure semantic ranking.
	TermWeight float64

	// SemanticWeight scales cosine similarity.
	SemanticWeight float64

	// Boosts is checked in order; the first matching rule applies.
	Boosts []SourceBoost
}

// BoostFor returns the factor of the first boost matching the document name, or 1.
func (r RankerSettings) BoostFor(documentName string) float64 {
	for _, b := range r.Boosts {
		if b.Matches(documentName) {
			return b.Factor
		}
	}
	return 1
}

// DefaultRankerSettings returns the weights used by StudyMate.
func DefaultRankerSettings() RankerSettings {
	return RankerSettings{
		TermWeight:     0.1,
		SemanticWeight: 1.0,
		Boosts:         DefaultBoosts(),
	}
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	MaxResults        int           `toml:"max_results" yaml:"max_results" json:"maxResults" validate:"gt=0"`
	MinRelevance      float64       `toml:"min_relevance" yaml:"min_relevance" json:"minRelevance"`
	IncludeContext    bool          `toml:"include_context" yaml:"include_context" json:"includeContext"`
	CandidatePoolSize int           `toml:"candidate_pool_size" yaml:"candidate_pool_size" json:"candidatePoolSize" validate:"gt=0"`
	TermWeight        float64       `toml:"term_weight" yaml:"term_weight" json:"termWeight" validate:"gte=0"`
	SemanticWeight    float64       `toml:"semantic_weight" yaml:"semantic_weight" json:"semanticWeight" validate:"gte=0"`
	Boosts            []SourceBoost `toml:"boosts" yaml:"boosts" json:"boosts" validate:"dive"`
}

// Options returns the default per-query options these settings describe.
func (s SearchSettings) Options() SearchOptions {
	return SearchOptions{
		MaxResults:     s.MaxResults,
		MinRelevance:   s.MinRelevance,
		IncludeContext: s.IncludeContext,
	}
}

// Ranker returns the ranker weights these settings describe.
func (s SearchSettings) Ranker() RankerSettings {
	return RankerSettings{
		TermWeight:     s.TermWeight,
		SemanticWeight: s.SemanticWeight,
		Boosts:         s.Boosts,
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `toml:"provider" yaml:"provider" json:"provider" validate:"required"`

	// Model is the embedding model name. Empty selects the provider default.
	Model string `toml:"model" yaml:"model" json:"model"`

	// BaseURL is the API endpoint (for Ollama, OpenAI-compatible and sentence services).
	BaseURL string `toml:"base_url" yaml:"base_url" json:"baseUrl" validate:"omitempty,url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env" yaml:"api_key_env" json:"apiKeyEnv"`

	// APIKey is resolved from APIKeyEnv at load time and never written to disk.
	APIKey string `toml:"-" yaml:"-" json:"-"`

	// Dimensions is the vector size. Zero selects the model default.
	Dimensions int `toml:"dimensions" yaml:"dimensions" json:"dimensions" validate:"gte=0"`

	// BatchSize is the number of chunks embedded and indexed together.
	BatchSize int `toml:"batch_size" yaml:"batch_size" json:"batchSize" validate:"gt=0"`

	// Concurrency bounds parallel single-chunk embedding calls.
	Concurrency int `toml:"concurrency" yaml:"concurrency" json:"concurrency" validate:"gt=0"`

	// RequestsPerSecond throttles provider calls. Zero disables throttling.
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second" json:"requestsPerSecond" validate:"gte=0"`

	// TimeoutSeconds bounds a single HTTP call to the provider.
	TimeoutSeconds int `toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeoutSeconds" validate:"gt=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// APIKeyEnvOrDefault returns the configured key variable or the provider default.
func (e EmbeddingSettings) APIKeyEnvOrDefault() string {
	if e.APIKeyEnv != "" {
		return e.APIKeyEnv
	}
	return e.Provider.DefaultAPIKeyEnv()
}

// ModelOrDefault returns the configured model or the provider default.
func (e EmbeddingSettings) ModelOrDefault() string {
	if e.Model != "" {
		return e.Model
	}
	return DefaultEmbeddingModels()[e.Provider]
}

// DimensionsOrDefault returns the configured size or the known size of the model.
func (e EmbeddingSettings) DimensionsOrDefault() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	if dims, ok := EmbeddingDimensions()[e.ModelOrDefault()]; ok {
		return dims
	}
	return 0
}

// StorageSettings controls chunk persistence.
type StorageSettings struct {
	// Persist stores chunks in sqlite so the index survives restarts.
	Persist bool `toml:"persist" yaml:"persist" json:"persist"`

	// DataDir holds the database. Empty selects ~/.studymate.
	DataDir string `toml:"data_dir" yaml:"data_dir" json:"dataDir"`
}

// ServerSettings controls the HTTP API.
type ServerSettings struct {
	Addr                  string `toml:"addr" yaml:"addr" json:"addr" validate:"required"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds" yaml:"request_timeout_seconds" json:"requestTimeoutSeconds" validate:"gt=0"`
}

// LoggingSettings controls log output.
type LoggingSettings struct {
	Verbose bool `toml:"verbose" yaml:"verbose" json:"verbose"`
	JSON    bool `toml:"json" yaml:"json" json:"json"`
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking  ChunkSettings     `toml:"chunking" yaml:"chunking" json:"chunking"`
	Search    SearchSettings    `toml:"search" yaml:"search" json:"search"`
	Embedding EmbeddingSettings `toml:"embedding" yaml:"embedding" json:"embedding"`
	Storage   StorageSettings   `toml:"storage" yaml:"storage" json:"storage"`
	Server    ServerSettings    `toml:"server" yaml:"server" json:"server"`
	Logging   LoggingSettings   `toml:"logging" yaml:"logging" json:"logging"`
}

// Validate checks constraints that span more than one field.
func (s AppSettings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if !s.Embedding.Provider.IsValid() {
		return NewConfigurationError("embedding.provider",
			fmt.Sprintf("unknown provider %q", s.Embedding.Provider))
	}
	if s.Search.TermWeight == 0 && s.Search.SemanticWeight == 0 {
		return NewConfigurationError("search", "term_weight and semantic_weight cannot both be zero")
	}
	return nil
}

// DefaultAppSettings returns settings with sensible defaults.
// The built-in hashed embedder is selected so ingestion works offline.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkSettings{
			ChunkSize:    DefaultChunkSize,
			Overlap:      DefaultOverlap,
			WordsPerPage: DefaultWordsPerPage,
		},
		Search: SearchSettings{
			MaxResults:        DefaultMaxResults,
			MinRelevance:      DefaultMinRelevance,
			IncludeContext:    true,
			CandidatePoolSize: 50,
			TermWeight:        0.1,
			SemanticWeight:    1.0,
			Boosts:            DefaultBoosts(),
		},
		Embedding: EmbeddingSettings{
			Provider:       AIProviderHashed,
			Dimensions:     384,
			BatchSize:      16,
			Concurrency:    4,
			TimeoutSeconds: 30,
		},
		Storage: StorageSettings{
			Persist: true,
		},
		Server: ServerSettings{
			Addr:                  ":8080",
			RequestTimeoutSeconds: 30,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashed,
		AIProviderSentence,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashed:   "fnv-hashed",
		AIProviderSentence: "all-MiniLM-L6-v2",
		AIProviderOllama:   "nomic-embed-text",
		AIProviderOpenAI:   "text-embedding-3-small",
		AIProviderGemini:   "text-embedding-004",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Sentence transformers
		"all-MiniLM-L6-v2":  384,
		"all-mpnet-base-v2": 768,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004":   768,
		"gemini-embedding-001": 3072,
	}
}
