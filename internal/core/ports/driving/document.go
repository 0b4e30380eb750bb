package driving

import (
	"context"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// DocumentService manages the documents held by the search index.
type DocumentService interface {
	// Ingest chunks, embeds and indexes a document. Chunks whose embedding
	// fails are indexed without a vector and counted in the summary.
	Ingest(ctx context.Context, documentID, documentName, text string) (domain.IngestSummary, error)

	// Remove deletes every chunk of a document and returns how many were removed.
	Remove(ctx context.Context, documentID string) (int, error)

	// List returns the status of every known document.
	List(ctx context.Context) []domain.DocumentStatus
}

// IndexService exposes index-wide operations.
type IndexService interface {
	// Stats returns chunk, document and embedding coverage counts.
	Stats(ctx context.Context) domain.IndexStats

	// Clear removes all documents.
	Clear(ctx context.Context) error
}

// RetrievalService is the complete engine as seen by a caller.
type RetrievalService interface {
	SearchService
	DocumentService
	IndexService
}
