package driven

import (
	"context"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// ChunkStore persists indexed chunks and document states so an index can be
// rebuilt after a restart. Backed by SQLite.
type ChunkStore interface {
	// SaveChunks stores or replaces chunks, keyed by chunk ID.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// SaveStatus stores or replaces the status of a document.
	SaveStatus(ctx context.Context, status domain.DocumentStatus) error

	// LoadChunks returns all chunks in the order they were first saved.
	LoadChunks(ctx context.Context) ([]domain.Chunk, error)

	// LoadStatuses returns the status of every known document.
	LoadStatuses(ctx context.Context) ([]domain.DocumentStatus, error)

	// DeleteDocument removes a document's chunks and status.
	// Returns domain.ErrNotFound if the document is unknown.
	DeleteDocument(ctx context.Context, documentID string) error

	// Clear removes everything.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}
