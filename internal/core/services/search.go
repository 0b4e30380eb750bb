package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/logger"
	"github.com/abhinay-x/studymate-sub000/internal/metrics"
)

// Search embeds the query, retrieves candidates from one index snapshot and
// hands them to the hybrid ranker.
//
// A blank query fails with domain.ErrEmptyQuery before the embedder is called.
// If the query cannot be embedded the call fails; results are never returned
// without a query vector. Deadlines surface as domain.ErrTimeout.
func (s *RetrievalService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	start := time.Now()
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		s.metrics.RecordSearch(metrics.StatusEmptyQuery, 0, time.Since(start))
		return nil, domain.ErrEmptyQuery
	}

	opts = opts.Normalise()
	logger.Debug("Options: max=%d min=%.2f filter=%q context=%t",
		opts.MaxResults, opts.MinRelevance, opts.DocumentFilter, opts.IncludeContext)

	embedStart := time.Now()
	queryVec, err := s.embedder.Embed(ctx, query)
	s.metrics.RecordEmbedding("query", time.Since(embedStart))
	if err != nil {
		return nil, s.searchFailed(start, classifyQueryError(ctx, err))
	}
	if len(queryVec) == 0 {
		return nil, s.searchFailed(start, fmt.Errorf("%w: empty query vector", domain.ErrEmbeddingFailed))
	}
	logger.Debug("Query embedding: %d dimensions", len(queryVec))

	snap := s.index.Snapshot()
	if snap.Len() == 0 {
		logger.Debug("Index is empty, returning no results")
		s.metrics.RecordSearch(metrics.StatusOK, 0, time.Since(start))
		return []domain.SearchResult{}, nil
	}

	k := max(opts.MaxResults, s.candidatePool)
	hits := snap.Search(queryVec, k)
	logger.Debug("Vector search: %d hits (k=%d, index=%d)", len(hits), k, snap.Len())

	candidates := make([]domain.Chunk, 0, len(hits))
	for i := range hits {
		candidates = append(candidates, hits[i].Chunk)
	}

	// Unembedded chunks are invisible to vector search; they compete on terms alone.
	terms := QueryTerms(query)
	lexicalOnly := 0
	for _, c := range snap.Chunks() {
		if !c.HasEmbedding() && containsAnyTerm(c.Content, terms) {
			candidates = append(candidates, c)
			lexicalOnly++
		}
	}
	if lexicalOnly > 0 {
		logger.Debug("Lexical-only candidates: %d", lexicalOnly)
	}

	if err := ctx.Err(); err != nil {
		return nil, s.searchFailed(start, domain.ContextError(err))
	}

	results := s.ranker.Rank(query, queryVec, candidates, snap.Chunks(), opts)
	logger.Info("Final results: %d", len(results))
	s.metrics.RecordSearch(metrics.StatusOK, len(results), time.Since(start))

	return results, nil
}

// searchFailed records and logs a failed search.
func (s *RetrievalService) searchFailed(start time.Time, err error) error {
	status := metrics.StatusError
	switch {
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, domain.ErrCancelled):
		status = metrics.StatusTimeout
	case errors.Is(err, domain.ErrEmbeddingFailed):
		status = metrics.StatusUnavailable
	}
	s.metrics.RecordSearch(status, 0, time.Since(start))
	logger.Warn("Search failed: %v", err)
	return fmt.Errorf("search: %w", err)
}

// timeoutError is implemented by network errors such as an HTTP client timeout.
type timeoutError interface {
	Timeout() bool
}

// classifyQueryError separates deadlines and cancellation from provider faults.
func classifyQueryError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.ContextError(ctxErr)
	}
	if domain.IsContextError(err) {
		return domain.ContextError(err)
	}
	var te timeoutError
	if errors.As(err, &te) && te.Timeout() {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
}
