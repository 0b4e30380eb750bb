package driven

import "context"

// Embedder maps a text string to a fixed-length vector.
// Calls may be slow and may fail; callers must treat every call as fallible.
// All vectors returned during one index lifetime must share a length.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is implemented by embedders that can embed several texts in
// one call. The result has one vector per input text, in order.
type BatchEmbedder interface {
	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingService is the full contract implemented by embedding adapters.
//
// Implementations include:
//   - hashed (built-in feature hashing, offline)
//   - sentence (StudyMate sentence-transformers service)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Gemini (text-embedding-004)
type EmbeddingService interface {
	Embedder
	BatchEmbedder

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
