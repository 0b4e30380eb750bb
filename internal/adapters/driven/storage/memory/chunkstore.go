// Package memory provides in-memory implementations of the driven storage
// ports, used when persistence is disabled and in tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu       sync.RWMutex
	order    []string
	chunks   map[string]domain.Chunk
	statuses map[string]domain.DocumentStatus
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks:   make(map[string]domain.Chunk),
		statuses: make(map[string]domain.DocumentStatus),
	}
}

// SaveChunks stores or replaces chunks by ID.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if _, ok := s.chunks[c.ID]; !ok {
			s.order = append(s.order, c.ID)
		}
		c.Embedding = slices.Clone(c.Embedding)
		s.chunks[c.ID] = c
	}
	return nil
}

// SaveStatus stores or replaces a document status.
func (s *ChunkStore) SaveStatus(_ context.Context, status domain.DocumentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.DocumentID] = status
	return nil
}

// LoadChunks returns all chunks in first-saved order.
func (s *ChunkStore) LoadChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, 0, len(s.order))
	for _, id := range s.order {
		c := s.chunks[id]
		c.Embedding = slices.Clone(c.Embedding)
		out = append(out, c)
	}
	return out, nil
}

// LoadStatuses returns all document statuses.
func (s *ChunkStore) LoadStatuses(_ context.Context) ([]domain.DocumentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DocumentStatus, 0, len(s.statuses))
	for _, st := range s.statuses {
		out = append(out, st)
	}
	return out, nil
}

// DeleteDocument removes a document's chunks and status.
func (s *ChunkStore) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, known := s.statuses[documentID]
	delete(s.statuses, documentID)

	kept := s.order[:0]
	for _, id := range s.order {
		if s.chunks[id].DocumentID == documentID {
			delete(s.chunks, id)
			known = true
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept

	if !known {
		return domain.ErrNotFound
	}
	return nil
}

// Clear removes everything.
func (s *ChunkStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.chunks = make(map[string]domain.Chunk)
	s.statuses = make(map[string]domain.DocumentStatus)
	return nil
}

// Close is a no-op.
func (s *ChunkStore) Close() error {
	return nil
}
