package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driving"
	"github.com/abhinay-x/studymate-sub000/internal/logger"
)

// FileSyncStats counts the changes a FileSync applied.
type FileSyncStats struct {
	Ingested int
	Removed  int
	Failed   int
}

// FileSync keeps the index in step with files on disk by turning file
// changes into ingest and remove calls.
type FileSync struct {
	docs   driving.DocumentService
	reader driven.DocumentReader
}

// NewFileSync creates a FileSync.
func NewFileSync(docs driving.DocumentService, reader driven.DocumentReader) *FileSync {
	return &FileSync{docs: docs, reader: reader}
}

// Apply ingests a created or updated file and removes a deleted one.
// Removing a file that was never indexed is not an error.
func (f *FileSync) Apply(ctx context.Context, change domain.FileChange) error {
	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		doc, err := f.reader.ReadFile(ctx, change.Path)
		if err != nil {
			return err
		}
		summary, err := f.docs.Ingest(ctx, doc.ID, doc.Name, doc.Content)
		if err != nil {
			return err
		}
		logger.Info("%s %s: %d chunks", change.Type, doc.Name, summary.ChunkCount)
		return nil

	case domain.ChangeDeleted:
		n, err := f.docs.Remove(ctx, change.DocumentID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("deleted %s: %d chunks", change.Path, n)
		return nil

	default:
		return fmt.Errorf("%w: change type %q", domain.ErrInvalidInput, change.Type)
	}
}

// Sync applies a batch of changes, such as the result of an initial scan.
// Failures are logged and counted; only cancellation stops the batch.
func (f *FileSync) Sync(ctx context.Context, changes []domain.FileChange) (FileSyncStats, error) {
	var stats FileSyncStats
	for _, c := range changes {
		if err := ctx.Err(); err != nil {
			return stats, domain.ContextError(err)
		}
		f.apply(ctx, c, &stats)
	}
	return stats, nil
}

// Run applies changes from the channel until it closes or ctx is done.
func (f *FileSync) Run(ctx context.Context, changes <-chan domain.FileChange) FileSyncStats {
	var stats FileSyncStats
	for {
		select {
		case <-ctx.Done():
			return stats
		case c, ok := <-changes:
			if !ok {
				return stats
			}
			f.apply(ctx, c, &stats)
		}
	}
}

func (f *FileSync) apply(ctx context.Context, c domain.FileChange, stats *FileSyncStats) {
	if err := f.Apply(ctx, c); err != nil {
		stats.Failed++
		logger.Warn("Applying %s change to %s failed: %v", c.Type, c.Path, err)
		return
	}
	if c.Type == domain.ChangeDeleted {
		stats.Removed++
	} else {
		stats.Ingested++
	}
}
