// Package flat provides a brute-force in-memory vector index.
//
// Every search scans all vectors, which is exact and fast enough for the
// hundreds to low thousands of chunks a study library holds. Writers copy the
// chunk slice and swap it in under the write lock; readers grab the current
// slice under the read lock and then work without holding it.
package flat

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
	"github.com/abhinay-x/studymate-sub000/internal/similarity"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an exact cosine-similarity index over chunk embeddings.
type Index struct {
	mu      sync.RWMutex
	current *snapshot
}

// New creates an empty index. Its dimensionality is fixed by the first
// embedded chunk added.
func New() *Index {
	return &Index{current: &snapshot{}}
}

// Add appends the batch in a single exclusive section.
func (idx *Index) Add(ctx context.Context, chunks []domain.Chunk) (driven.AddResult, error) {
	if err := checkBatch(ctx, chunks); err != nil {
		return driven.AddResult{}, err
	}
	if len(chunks) == 0 {
		return driven.AddResult{}, nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	next := idx.current.clone()
	result := next.put(chunks)
	idx.current = next
	return result, nil
}

// Search scores the query against the current snapshot.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return idx.load().Search(query, k), nil
}

// Snapshot returns the current immutable view.
func (idx *Index) Snapshot() driven.IndexSnapshot {
	return idx.load()
}

// RemoveDocument drops all chunks of a document in one swap.
// When no embedded chunk remains, the dimensionality is reset.
func (idx *Index) RemoveDocument(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	next, removed := idx.current.without(documentID)
	if removed == 0 {
		return 0, nil
	}

	idx.current = next
	return removed, nil
}

// ReplaceDocument swaps a document's chunks for a new set in one exclusive
// section.
func (idx *Index) ReplaceDocument(ctx context.Context, documentID string, chunks []domain.Chunk) (driven.AddResult, error) {
	if err := checkBatch(ctx, chunks); err != nil {
		return driven.AddResult{}, err
	}
	for i := range chunks {
		if chunks[i].DocumentID != documentID {
			return driven.AddResult{}, fmt.Errorf("%w: chunk %s belongs to document %q, not %q",
				domain.ErrInvalidInput, chunks[i].ID, chunks[i].DocumentID, documentID)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	next, _ := idx.current.without(documentID)
	result := next.put(chunks)
	idx.current = next
	return result, nil
}

// Stats returns counts for the current snapshot.
func (idx *Index) Stats(_ context.Context) domain.IndexStats {
	return idx.load().stats()
}

// Clear removes all chunks and resets the dimensionality.
func (idx *Index) Clear(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.current = &snapshot{}
	return nil
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

func (idx *Index) load() *snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.current
}

// snapshot is never modified after it is published.
type snapshot struct {
	chunks []domain.Chunk
	byID   map[string]int
	dims   int
}

func checkBatch(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := range chunks {
		if chunks[i].ID == "" {
			return fmt.Errorf("%w: chunk at batch position %d has no ID", domain.ErrInvalidInput, i)
		}
	}
	return nil
}

// clone returns an unpublished copy that put may modify.
func (s *snapshot) clone() *snapshot {
	next := &snapshot{
		chunks: slices.Clone(s.chunks),
		byID:   make(map[string]int, len(s.chunks)),
		dims:   s.dims,
	}
	for id, pos := range s.byID {
		next.byID[id] = pos
	}
	return next
}

// without returns an unpublished copy lacking the document's chunks. The
// dimensionality survives only while an embedded chunk remains.
func (s *snapshot) without(documentID string) (*snapshot, int) {
	next := &snapshot{
		chunks: make([]domain.Chunk, 0, len(s.chunks)),
		byID:   make(map[string]int, len(s.chunks)),
	}
	removed := 0
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			removed++
			continue
		}
		next.byID[c.ID] = len(next.chunks)
		next.chunks = append(next.chunks, c)
		if c.HasEmbedding() {
			next.dims = s.dims
		}
	}
	return next, removed
}

// put adds chunks to an unpublished snapshot. A chunk whose ID exists
// replaces it in place; a mismatched vector is dropped and reported.
func (s *snapshot) put(chunks []domain.Chunk) driven.AddResult {
	var result driven.AddResult
	for _, c := range chunks {
		if c.HasEmbedding() {
			switch {
			case s.dims == 0:
				s.dims = len(c.Embedding)
			case len(c.Embedding) != s.dims:
				result.Rejected = append(result.Rejected, driven.RejectedChunk{
					ChunkID: c.ID,
					Err: fmt.Errorf("%w: chunk %s has %d dimensions, index has %d",
						domain.ErrDimensionMismatch, c.ID, len(c.Embedding), s.dims),
				})
				c.Embedding = nil
			}
		}
		c.Embedding = slices.Clone(c.Embedding)

		if pos, ok := s.byID[c.ID]; ok {
			s.chunks[pos] = c
		} else {
			s.byID[c.ID] = len(s.chunks)
			s.chunks = append(s.chunks, c)
		}
		result.Added++
	}
	return result
}

// Search implements driven.IndexSnapshot.
func (s *snapshot) Search(query []float32, k int) []driven.VectorHit {
	if k <= 0 || len(query) == 0 || len(s.chunks) == 0 {
		return []driven.VectorHit{}
	}

	hits := make([]driven.VectorHit, 0, len(s.chunks))
	for i := range s.chunks {
		if !s.chunks[i].HasEmbedding() {
			continue
		}
		hits = append(hits, driven.VectorHit{
			Chunk:      s.chunks[i],
			Similarity: similarity.Cosine(query, s.chunks[i].Embedding),
		})
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Chunks implements driven.IndexSnapshot.
func (s *snapshot) Chunks() []domain.Chunk {
	return s.chunks
}

// Len implements driven.IndexSnapshot.
func (s *snapshot) Len() int {
	return len(s.chunks)
}

func (s *snapshot) stats() domain.IndexStats {
	docs := make(map[string]struct{})
	embedded := 0
	for i := range s.chunks {
		docs[s.chunks[i].DocumentID] = struct{}{}
		if s.chunks[i].HasEmbedding() {
			embedded++
		}
	}

	stats := domain.IndexStats{
		ChunkCount:    len(s.chunks),
		DocumentCount: len(docs),
		EmbeddedCount: embedded,
		Dimensions:    s.dims,
	}
	if stats.ChunkCount > 0 {
		stats.Coverage = float64(embedded) / float64(stats.ChunkCount)
	}
	return stats
}
