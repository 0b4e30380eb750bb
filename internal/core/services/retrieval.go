package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driving"
	"github.com/abhinay-x/studymate-sub000/internal/logger"
	"github.com/abhinay-x/studymate-sub000/internal/metrics"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Retrieval defaults.
const (
	DefaultBatchSize         = 16
	DefaultConcurrency       = 4
	DefaultCandidatePoolSize = 50
)

// RetrievalService owns one vector index and orchestrates ingestion
// (chunk, embed, index) and queries (embed, score, rank).
type RetrievalService struct {
	pipeline driven.PostProcessorPipeline
	embedder driven.Embedder
	index    driven.VectorIndex
	ranker   *HybridRanker
	store    driven.ChunkStore
	metrics  *metrics.Metrics

	batchSize     int
	concurrency   int
	candidatePool int

	// writeMu serialises index and store writes. It is never held across
	// embedding calls.
	writeMu  sync.Mutex
	inflight map[string]*ingestRun

	statusMu sync.RWMutex
	statuses map[string]domain.DocumentStatus
}

// Option configures a RetrievalService.
type Option func(*RetrievalService)

// WithChunkStore persists indexed chunks and document states.
func WithChunkStore(store driven.ChunkStore) Option {
	return func(s *RetrievalService) {
		s.store = store
	}
}

// WithMetrics records Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *RetrievalService) {
		s.metrics = m
	}
}

// WithBatchSize sets how many chunks are embedded and indexed together.
func WithBatchSize(n int) Option {
	return func(s *RetrievalService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithConcurrency bounds parallel single-chunk embedding calls.
func WithConcurrency(n int) Option {
	return func(s *RetrievalService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCandidatePoolSize sets how many nearest vectors a query retrieves
// before ranking, when that exceeds the requested result count.
func WithCandidatePoolSize(n int) Option {
	return func(s *RetrievalService) {
		if n > 0 {
			s.candidatePool = n
		}
	}
}

// NewRetrievalService creates a retrieval service over the given index.
// The index must not be shared with another service.
func NewRetrievalService(
	pipeline driven.PostProcessorPipeline,
	embedder driven.Embedder,
	index driven.VectorIndex,
	ranker *HybridRanker,
	opts ...Option,
) *RetrievalService {
	s := &RetrievalService{
		pipeline:      pipeline,
		embedder:      embedder,
		index:         index,
		ranker:        ranker,
		batchSize:     DefaultBatchSize,
		concurrency:   DefaultConcurrency,
		candidatePool: DefaultCandidatePoolSize,
		statuses:      make(map[string]domain.DocumentStatus),
		inflight:      make(map[string]*ingestRun),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ingestRun is one ingestion of a document. Guarded by writeMu.
type ingestRun struct {
	superseded bool
}

// Ingest chunks the text, embeds the chunks batch by batch and indexes them.
// A chunk whose embedding fails is indexed without a vector; it still matches
// lexically.
//
// A new document is appended batch by batch, so on cancellation the index
// keeps every completed batch and the document is marked failed. A known
// document is staged in full and swapped in at the end, so searches see the
// previous version until then and a cancelled re-ingestion leaves it intact.
// A newer ingestion, removal or clear of the same document supersedes a
// running one, which then stops with domain.ErrSuperseded.
func (s *RetrievalService) Ingest(
	ctx context.Context, documentID, documentName, text string,
) (domain.IngestSummary, error) {
	logger.Section("Ingest")

	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return domain.IngestSummary{}, fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	documentName = strings.TrimSpace(documentName)
	if documentName == "" {
		documentName = documentID
	}

	summary := domain.IngestSummary{
		DocumentID:   documentID,
		DocumentName: documentName,
		TotalWords:   len(strings.Fields(text)),
	}

	doc := &domain.Document{ID: documentID, Name: documentName, Content: text}
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		if domain.IsContextError(err) {
			return summary, domain.ContextError(err)
		}
		return summary, fmt.Errorf("chunk document %s: %w", documentID, err)
	}
	summary.ChunkCount = len(chunks)
	logger.Debug("Document %q: %d words, %d chunks", documentName, summary.TotalWords, len(chunks))

	status := domain.DocumentStatus{
		DocumentID:   documentID,
		DocumentName: documentName,
		State:        domain.DocumentIngesting,
		ChunkCount:   len(chunks),
		TotalWords:   summary.TotalWords,
	}
	run, reingest := s.beginIngest(ctx, status)
	defer s.endIngest(documentID, run)
	if reingest {
		logger.Debug("Re-ingesting %s: previous version stays searchable until the swap", documentID)
	}

	for start := 0; start < len(chunks); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return s.failIngest(ctx, run, reingest, summary, domain.ContextError(err))
		}
		if s.superseded(run) {
			return s.failIngest(ctx, run, reingest, summary, domain.ErrSuperseded)
		}

		end := min(start+s.batchSize, len(chunks))
		batch := chunks[start:end]

		s.embedChunks(ctx, batch)
		if err := ctx.Err(); err != nil {
			// The interrupted batch is dropped whole.
			return s.failIngest(ctx, run, reingest, summary, domain.ContextError(err))
		}

		if !reingest {
			if err := s.commit(ctx, run, false, batch, &summary); err != nil {
				return s.failIngest(ctx, run, reingest, summary, err)
			}
		}
		logger.Debug("Embedded chunks %d-%d of %d", start, end-1, len(chunks))
	}

	if reingest {
		if err := s.commit(ctx, run, true, chunks, &summary); err != nil {
			return s.failIngest(ctx, run, reingest, summary, err)
		}
	}

	status.State = domain.DocumentIndexed
	status.EmbeddedCount = summary.EmbeddedCount
	if err := s.publishStatus(ctx, run, status); err != nil {
		return s.failIngest(ctx, run, reingest, summary, err)
	}
	summary.State = domain.DocumentIndexed
	s.recordIngest(summary)

	if summary.Degraded() {
		logger.Warn("Document %q indexed with %d of %d chunks embedded",
			documentName, summary.EmbeddedCount, summary.ChunkCount)
	} else {
		logger.Info("Document %q indexed: %d chunks", documentName, summary.ChunkCount)
	}

	return summary, nil
}

// beginIngest registers the run, superseding any running ingestion of the
// document, and reports whether the document is already known. A new
// document is recorded as ingesting; a known one keeps its status until the
// swap.
func (s *RetrievalService) beginIngest(ctx context.Context, status domain.DocumentStatus) (*ingestRun, bool) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if prev := s.inflight[status.DocumentID]; prev != nil {
		prev.superseded = true
	}
	run := &ingestRun{}
	s.inflight[status.DocumentID] = run

	if _, known := s.status(status.DocumentID); known {
		return run, true
	}
	s.setStatus(ctx, status)
	return run, false
}

func (s *RetrievalService) endIngest(documentID string, run *ingestRun) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.inflight[documentID] == run {
		delete(s.inflight, documentID)
	}
}

func (s *RetrievalService) superseded(run *ingestRun) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return run.superseded
}

// supersedeLocked stops the running ingestion of a document, or of every
// document when documentID is empty. Caller must hold writeMu.
func (s *RetrievalService) supersedeLocked(documentID string) {
	for id, run := range s.inflight {
		if documentID == "" || id == documentID {
			run.superseded = true
		}
	}
}

// commit publishes embedded chunks and counts them into the summary. It
// appends a batch of a new document, or with replace swaps in the whole new
// version of a known one. Chunks without a usable vector are stored without
// one and listed as failed.
func (s *RetrievalService) commit(
	ctx context.Context, run *ingestRun, replace bool, chunks []domain.Chunk, summary *domain.IngestSummary,
) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if run.superseded {
		return domain.ErrSuperseded
	}

	var (
		result driven.AddResult
		err    error
	)
	if replace {
		result, err = s.index.ReplaceDocument(ctx, summary.DocumentID, chunks)
	} else {
		result, err = s.index.Add(ctx, chunks)
	}
	if err != nil {
		if domain.IsContextError(err) {
			return domain.ContextError(err)
		}
		return fmt.Errorf("index chunks: %w", err)
	}

	rejected := make(map[string]struct{}, len(result.Rejected))
	for _, rej := range result.Rejected {
		logger.Warn("Chunk %s indexed without vector: %v", rej.ChunkID, rej.Err)
		rejected[rej.ChunkID] = struct{}{}
	}
	for i := range chunks {
		if _, bad := rejected[chunks[i].ID]; bad || !chunks[i].HasEmbedding() {
			chunks[i].Embedding = nil
			summary.FailedChunks = append(summary.FailedChunks, chunks[i].ID)
			continue
		}
		summary.EmbeddedCount++
	}

	if s.store != nil {
		if replace {
			if err := s.store.DeleteDocument(ctx, summary.DocumentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Deleting stored chunks of %s failed: %v", summary.DocumentID, err)
			}
		}
		if err := s.store.SaveChunks(ctx, chunks); err != nil {
			logger.Warn("Persisting chunks of %s failed: %v", summary.DocumentID, err)
		}
	}
	return nil
}

// publishStatus records the final status unless the run was superseded.
func (s *RetrievalService) publishStatus(ctx context.Context, run *ingestRun, status domain.DocumentStatus) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if run.superseded {
		return domain.ErrSuperseded
	}
	s.setStatus(ctx, status)
	return nil
}

// embedChunks attaches vectors to the batch in place. Chunks that could not be
// embedded keep a nil vector. A batch call is tried first when the embedder
// supports it; on failure each chunk is embedded on its own so one bad chunk
// cannot sink the batch.
func (s *RetrievalService) embedChunks(ctx context.Context, batch []domain.Chunk) {
	if be, ok := s.embedder.(driven.BatchEmbedder); ok && len(batch) > 1 {
		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Content
		}

		start := time.Now()
		vecs, err := be.EmbedBatch(ctx, texts)
		s.metrics.RecordEmbedding("batch", time.Since(start))

		switch {
		case err == nil && len(vecs) == len(batch):
			for i := range batch {
				if len(vecs[i]) > 0 {
					batch[i].Embedding = vecs[i]
				}
			}
			return
		case ctx.Err() != nil:
			return
		case err == nil:
			logger.Warn("Batch embedding returned %d vectors for %d chunks, retrying one by one",
				len(vecs), len(batch))
		default:
			logger.Warn("Batch embedding failed, retrying one by one: %v", err)
		}
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range batch {
		g.Go(func() error {
			start := time.Now()
			vec, err := s.embedder.Embed(ctx, batch[i].Content)
			s.metrics.RecordEmbedding("chunk", time.Since(start))
			if err != nil {
				logger.Warn("Embedding chunk %d of %s failed: %v", batch[i].Position, batch[i].DocumentID, err)
				return nil
			}
			if len(vec) == 0 {
				logger.Warn("Embedding chunk %d of %s returned an empty vector", batch[i].Position, batch[i].DocumentID)
				return nil
			}
			batch[i].Embedding = vec
			return nil
		})
	}
	_ = g.Wait()
}

// failIngest records the failure and returns the partial summary. A new
// document is marked failed. A known document keeps its previous version and
// status. A superseded run leaves the status to whatever replaced it.
func (s *RetrievalService) failIngest(
	ctx context.Context, run *ingestRun, reingest bool, summary domain.IngestSummary, err error,
) (domain.IngestSummary, error) {
	summary.State = domain.DocumentFailed
	// The caller's context may be done; the status must still be recorded.
	ctx = context.WithoutCancel(ctx)

	s.writeMu.Lock()
	if st, ok := s.status(summary.DocumentID); ok && !run.superseded &&
		(!reingest || st.State == domain.DocumentIngesting) {
		st.State = domain.DocumentFailed
		if !reingest {
			st.EmbeddedCount = summary.EmbeddedCount
		}
		st.Error = err.Error()
		s.setStatus(ctx, st)
	}
	s.writeMu.Unlock()

	s.recordIngest(summary)
	logger.Warn("Ingestion of %q stopped: %v", summary.DocumentName, err)
	return summary, fmt.Errorf("ingest %s: %w", summary.DocumentID, err)
}

func (s *RetrievalService) recordIngest(summary domain.IngestSummary) {
	s.metrics.RecordIngest(string(summary.State), summary.EmbeddedCount+len(summary.FailedChunks), len(summary.FailedChunks))
	stats := s.index.Stats(context.Background())
	s.metrics.SetIndexSize(stats.ChunkCount, stats.DocumentCount)
}

// Remove deletes every chunk of a document from the index and the store.
func (s *RetrievalService) Remove(ctx context.Context, documentID string) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	removed, err := s.index.RemoveDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("remove document %s: %w", documentID, err)
	}

	_, known := s.status(documentID)
	if removed == 0 && !known {
		return 0, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	s.supersedeLocked(documentID)

	s.statusMu.Lock()
	delete(s.statuses, documentID)
	s.statusMu.Unlock()

	if s.store != nil {
		if err := s.store.DeleteDocument(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return removed, fmt.Errorf("delete stored document %s: %w", documentID, err)
		}
	}

	stats := s.index.Stats(ctx)
	s.metrics.SetIndexSize(stats.ChunkCount, stats.DocumentCount)
	logger.Info("Removed document %s (%d chunks)", documentID, removed)
	return removed, nil
}

// List returns document statuses ordered by name.
func (s *RetrievalService) List(_ context.Context) []domain.DocumentStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	out := make([]domain.DocumentStatus, 0, len(s.statuses))
	for _, st := range s.statuses {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentName != out[j].DocumentName {
			return out[i].DocumentName < out[j].DocumentName
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	return out
}

// Stats returns index counts.
func (s *RetrievalService) Stats(ctx context.Context) domain.IndexStats {
	return s.index.Stats(ctx)
}

// Clear removes all documents from the index and the store.
func (s *RetrievalService) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	s.supersedeLocked("")

	s.statusMu.Lock()
	s.statuses = make(map[string]domain.DocumentStatus)
	s.statusMu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
	}

	s.metrics.SetIndexSize(0, 0)
	logger.Info("Index cleared")
	return nil
}

// Restore loads persisted chunks into the index and rebuilds document
// statuses. Documents whose ingestion never finished are marked failed.
// Without a chunk store it does nothing.
func (s *RetrievalService) Restore(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	chunks, err := s.store.LoadChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load chunks: %w", err)
	}
	statuses, err := s.store.LoadStatuses(ctx)
	if err != nil {
		return 0, fmt.Errorf("load document statuses: %w", err)
	}

	result, err := s.index.Add(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("restore index: %w", err)
	}
	for _, rej := range result.Rejected {
		logger.Warn("Restored chunk %s without vector: %v", rej.ChunkID, rej.Err)
	}

	s.statusMu.Lock()
	for _, st := range statuses {
		if st.State == domain.DocumentIngesting {
			st.State = domain.DocumentFailed
			st.Error = "ingestion interrupted"
		}
		s.statuses[st.DocumentID] = st
	}
	s.statusMu.Unlock()

	stats := s.index.Stats(ctx)
	s.metrics.SetIndexSize(stats.ChunkCount, stats.DocumentCount)
	logger.Info("Restored %d chunks from %d documents", result.Added, len(statuses))
	return result.Added, nil
}

func (s *RetrievalService) status(documentID string) (domain.DocumentStatus, bool) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st, ok := s.statuses[documentID]
	return st, ok
}

func (s *RetrievalService) setStatus(ctx context.Context, st domain.DocumentStatus) {
	st.UpdatedAt = time.Now().UTC()

	s.statusMu.Lock()
	s.statuses[st.DocumentID] = st
	s.statusMu.Unlock()

	if s.store != nil {
		if err := s.store.SaveStatus(ctx, st); err != nil {
			logger.Warn("Persisting status of %s failed: %v", st.DocumentID, err)
		}
	}
}
