package driven

import (
	"context"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// DocumentReader loads a file as a document ready for ingestion.
type DocumentReader interface {
	ReadFile(ctx context.Context, path string) (*domain.Document, error)
}

// FileWatcher reports changes to study material files under a directory.
type FileWatcher interface {
	// Scan lists the files already present as ChangeCreated entries.
	Scan(ctx context.Context) ([]domain.FileChange, error)

	// Watch streams changes until ctx is done or Close is called.
	// The channel is closed when watching stops.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Close stops watching and releases the underlying watcher.
	Close() error
}
