package domain

import "time"

// Document is plain text handed to the engine for ingestion.
// Text extraction from binary formats happens before this point.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the human-readable name, usually the original file name.
	// Source boosts and document filters match against it.
	Name string

	// Content is the full extracted text before chunking.
	Content string
}

// RawDocument is file content before text extraction.
type RawDocument struct {
	// URI is the file path the content was read from.
	URI string

	// Content is the undecoded file content.
	Content []byte
}

// Chunk represents a contiguous word window of a document.
// Chunks are immutable once added to an index.
type Chunk struct {
	// ID is derived from the document ID and position, so re-chunking the
	// same text yields the same IDs.
	ID string `json:"id"`

	// DocumentID links to the owning Document.
	DocumentID string `json:"documentId"`

	// DocumentName is the owning document's display name.
	DocumentName string `json:"documentName"`

	// Content is the text content of this chunk.
	Content string `json:"content"`

	// Position is the ordinal position within the document.
	Position int `json:"position"`

	// StartWord and EndWord form the half-open word range [StartWord, EndWord)
	// in the source text.
	StartWord int `json:"startWord"`
	EndWord   int `json:"endWord"`

	// WordCount is EndWord - StartWord.
	WordCount int `json:"wordCount"`

	// Page is the estimated 1-based page number. Advisory only.
	Page int `json:"page"`

	// Embedding is the vector representation for semantic search.
	// Nil when the embedding provider failed for this chunk.
	Embedding []float32 `json:"embedding,omitempty"`
}

// HasEmbedding reports whether the chunk carries a vector.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// WithoutEmbedding returns a copy of the chunk with the vector dropped.
func (c Chunk) WithoutEmbedding() Chunk {
	c.Embedding = nil
	return c
}

// DocumentState is the ingestion state of a document.
type DocumentState string

const (
	// DocumentIngesting means chunks are being embedded and indexed.
	DocumentIngesting DocumentState = "ingesting"

	// DocumentIndexed means every chunk was added to the index.
	// Some chunks may be unembedded.
	DocumentIndexed DocumentState = "indexed"

	// DocumentFailed means ingestion stopped before all chunks were indexed.
	DocumentFailed DocumentState = "failed"
)

// DocumentStatus tracks a document through ingestion.
type DocumentStatus struct {
	DocumentID    string        `json:"documentId"`
	DocumentName  string        `json:"documentName"`
	State         DocumentState `json:"state"`
	ChunkCount    int           `json:"chunkCount"`
	EmbeddedCount int           `json:"embeddedCount"`
	TotalWords    int           `json:"totalWords"`
	Error         string        `json:"error,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IngestSummary reports the outcome of ingesting one document.
type IngestSummary struct {
	DocumentID    string        `json:"documentId"`
	DocumentName  string        `json:"documentName"`
	ChunkCount    int           `json:"chunkCount"`
	EmbeddedCount int           `json:"embeddedCount"`
	TotalWords    int           `json:"totalWords"`
	FailedChunks  []string      `json:"failedChunks,omitempty"`
	State         DocumentState `json:"state"`
}

// Degraded reports whether some chunks were indexed without a vector.
func (s IngestSummary) Degraded() bool {
	return s.EmbeddedCount < s.ChunkCount
}

// IndexStats describes the current contents of a search index.
type IndexStats struct {
	ChunkCount    int     `json:"chunkCount"`
	DocumentCount int     `json:"documentCount"`
	EmbeddedCount int     `json:"embeddedCount"`
	Dimensions    int     `json:"dimensions"`
	Coverage      float64 `json:"coverage"`
}
