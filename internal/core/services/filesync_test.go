package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// mapReader serves documents from memory, keyed by path.
type mapReader map[string]*domain.Document

func (m mapReader) ReadFile(_ context.Context, path string) (*domain.Document, error) {
	doc, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	return doc, nil
}

func TestFileSync_Apply(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &keywordEmbedder{}, smallChunks())
	reader := mapReader{
		"/notes/a.txt": {ID: "id-a", Name: "a.txt", Content: "alpha beta gamma alpha beta"},
	}
	syncer := NewFileSync(svc, reader)

	t.Run("created file is ingested", func(t *testing.T) {
		err := syncer.Apply(ctx, domain.FileChange{Type: domain.ChangeCreated, Path: "/notes/a.txt", DocumentID: "id-a"})
		require.NoError(t, err)

		docs := svc.List(ctx)
		require.Len(t, docs, 1)
		assert.Equal(t, "a.txt", docs[0].DocumentName)
		assert.Equal(t, 2, docs[0].ChunkCount)
	})

	t.Run("updated file replaces its chunks", func(t *testing.T) {
		reader["/notes/a.txt"].Content = "alpha"
		err := syncer.Apply(ctx, domain.FileChange{Type: domain.ChangeUpdated, Path: "/notes/a.txt", DocumentID: "id-a"})
		require.NoError(t, err)
		assert.Equal(t, 1, svc.Stats(ctx).ChunkCount)
	})

	t.Run("deleted file is removed", func(t *testing.T) {
		err := syncer.Apply(ctx, domain.FileChange{Type: domain.ChangeDeleted, Path: "/notes/a.txt", DocumentID: "id-a"})
		require.NoError(t, err)
		assert.Empty(t, svc.List(ctx))
	})

	t.Run("deleting an unknown file is not an error", func(t *testing.T) {
		err := syncer.Apply(ctx, domain.FileChange{Type: domain.ChangeDeleted, Path: "/notes/x.txt", DocumentID: "id-x"})
		assert.NoError(t, err)
	})

	t.Run("unreadable file", func(t *testing.T) {
		err := syncer.Apply(ctx, domain.FileChange{Type: domain.ChangeCreated, Path: "/notes/missing.txt"})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unknown change type", func(t *testing.T) {
		err := syncer.Apply(ctx, domain.FileChange{Type: "moved"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestFileSync_Sync(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &keywordEmbedder{}, smallChunks())
	reader := mapReader{
		"/a.txt": {ID: "a", Name: "a.txt", Content: "alpha"},
		"/b.txt": {ID: "b", Name: "b.txt", Content: "beta"},
	}

	stats, err := NewFileSync(svc, reader).Sync(ctx, []domain.FileChange{
		{Type: domain.ChangeCreated, Path: "/a.txt", DocumentID: "a"},
		{Type: domain.ChangeCreated, Path: "/missing.txt", DocumentID: "m"},
		{Type: domain.ChangeCreated, Path: "/b.txt", DocumentID: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, FileSyncStats{Ingested: 2, Failed: 1}, stats)
	assert.Equal(t, 2, svc.Stats(ctx).DocumentCount)
}

func TestFileSync_Sync_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(t, &keywordEmbedder{}, smallChunks())

	_, err := NewFileSync(svc, mapReader{}).Sync(ctx, []domain.FileChange{{Type: domain.ChangeCreated, Path: "/a.txt"}})
	assert.True(t, errors.Is(err, domain.ErrCancelled))
}

func TestFileSync_Run(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &keywordEmbedder{}, smallChunks())
	reader := mapReader{"/a.txt": {ID: "a", Name: "a.txt", Content: "alpha beta"}}

	changes := make(chan domain.FileChange, 3)
	changes <- domain.FileChange{Type: domain.ChangeCreated, Path: "/a.txt", DocumentID: "a"}
	changes <- domain.FileChange{Type: domain.ChangeUpdated, Path: "/a.txt", DocumentID: "a"}
	changes <- domain.FileChange{Type: domain.ChangeDeleted, Path: "/a.txt", DocumentID: "a"}
	close(changes)

	stats := NewFileSync(svc, reader).Run(ctx, changes)
	assert.Equal(t, FileSyncStats{Ingested: 2, Removed: 1}, stats)
	assert.Zero(t, svc.Stats(ctx).ChunkCount)
}
