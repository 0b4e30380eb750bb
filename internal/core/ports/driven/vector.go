package driven

import (
	"context"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// VectorIndex stores chunks with their embeddings and scores them against a
// query vector. Writers are mutually exclusive; readers work on snapshots and
// never observe a partially added batch.
type VectorIndex interface {
	// Add appends a batch of chunks atomically. The first embedded chunk fixes
	// the index dimensionality. Chunks with a mismatched vector are kept
	// without it and reported in AddResult.Rejected. A chunk whose ID is
	// already present replaces the earlier copy in place.
	Add(ctx context.Context, chunks []domain.Chunk) (AddResult, error)

	// Search returns up to k embedded chunks ordered by descending cosine
	// similarity, ties broken by insertion order. An empty index yields an
	// empty result and no error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Snapshot returns an immutable view of the current contents.
	Snapshot() IndexSnapshot

	// RemoveDocument removes every chunk of a document and returns how many
	// were removed.
	RemoveDocument(ctx context.Context, documentID string) (int, error)

	// ReplaceDocument removes every chunk of a document and adds the given
	// chunks in the same exclusive section, so readers see either the old or
	// the new version. Vectors are checked as in Add, against the index
	// without the old version.
	ReplaceDocument(ctx context.Context, documentID string, chunks []domain.Chunk) (AddResult, error)

	// Stats returns chunk and document counts.
	Stats(ctx context.Context) domain.IndexStats

	// Clear removes all chunks and resets the dimensionality.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// IndexSnapshot is a read-only view of a VectorIndex at one point in time.
type IndexSnapshot interface {
	// Search behaves like VectorIndex.Search against this view.
	Search(query []float32, k int) []VectorHit

	// Chunks returns the chunks in insertion order. Callers must not modify them.
	Chunks() []domain.Chunk

	// Len returns the number of chunks in the view.
	Len() int
}

// AddResult reports the outcome of VectorIndex.Add.
type AddResult struct {
	// Added is the number of chunks stored, including those stored without a vector.
	Added int

	// Rejected lists chunks whose vector was refused.
	Rejected []RejectedChunk
}

// RejectedChunk identifies a chunk whose vector the index refused.
type RejectedChunk struct {
	ChunkID string
	Err     error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score in [-1, 1].
	Similarity float64
}
