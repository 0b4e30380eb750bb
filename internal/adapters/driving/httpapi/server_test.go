package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/embedding/hashed"
	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/index/flat"
	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/services"
	"github.com/abhinay-x/studymate-sub000/internal/metrics"
	"github.com/abhinay-x/studymate-sub000/internal/postprocessors"
)

// mockService is a mock implementation of driving.RetrievalService.
type mockService struct {
	results  []domain.SearchResult
	summary  domain.IngestSummary
	statuses []domain.DocumentStatus
	stats    domain.IndexStats
	removed  int
	err      error
	panics   bool

	lastQuery string
	lastOpts  domain.SearchOptions
	lastID    string
	deadline  bool
	cleared   bool
}

func (m *mockService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if m.panics {
		panic("boom")
	}
	m.lastQuery, m.lastOpts = query, opts
	_, m.deadline = ctx.Deadline()
	return m.results, m.err
}

func (m *mockService) Ingest(_ context.Context, id, name, _ string) (domain.IngestSummary, error) {
	m.lastID = id
	s := m.summary
	s.DocumentID, s.DocumentName = id, name
	return s, m.err
}

func (m *mockService) Remove(_ context.Context, id string) (int, error) {
	m.lastID = id
	return m.removed, m.err
}

func (m *mockService) List(_ context.Context) []domain.DocumentStatus { return m.statuses }

func (m *mockService) Stats(_ context.Context) domain.IndexStats { return m.stats }

func (m *mockService) Clear(_ context.Context) error {
	m.cleared = true
	return m.err
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_Defaults(t *testing.T) {
	s := New(&mockService{}, Config{})
	assert.Equal(t, DefaultAddr, s.cfg.Addr)
	assert.Equal(t, DefaultRequestTimeout, s.cfg.RequestTimeout)
	assert.Equal(t, domain.DefaultSearchOptions(), s.cfg.Defaults)
}

func TestSearch(t *testing.T) {
	t.Run("returns results", func(t *testing.T) {
		svc := &mockService{results: []domain.SearchResult{
			{Chunk: domain.Chunk{ID: "c1", DocumentName: "Bio.pdf", Content: "chlorophyll"}, Score: 0.9, Relevance: 90},
		}}
		h := New(svc, Config{}).Handler()

		rec := do(t, h, http.MethodPost, "/v1/search", `{"query":"chlorophyll"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		resp := decode[SearchResponse](t, rec)
		assert.Equal(t, "chlorophyll", resp.Query)
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, 90, resp.Results[0].Relevance)
		assert.Equal(t, domain.DefaultSearchOptions(), svc.lastOpts)
		assert.True(t, svc.deadline)
	})

	t.Run("request overrides defaults", func(t *testing.T) {
		svc := &mockService{}
		h := New(svc, Config{}).Handler()

		rec := do(t, h, http.MethodPost, "/v1/search",
			`{"query":"q","maxResults":5,"minRelevance":0,"documentFilter":"Textbook","includeContext":false}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.SearchOptions{MaxResults: 5, DocumentFilter: "Textbook"}, svc.lastOpts)
	})

	t.Run("no results is an empty array", func(t *testing.T) {
		h := New(&mockService{}, Config{}).Handler()

		rec := do(t, h, http.MethodPost, "/v1/search", `{"query":"q"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"results":[]`)
	})

	t.Run("malformed body", func(t *testing.T) {
		h := New(&mockService{}, Config{}).Handler()

		rec := do(t, h, http.MethodPost, "/v1/search", `{"query":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Error, "malformed JSON")
	})

	t.Run("empty body", func(t *testing.T) {
		h := New(&mockService{}, Config{}).Handler()

		rec := do(t, h, http.MethodPost, "/v1/search", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		h := New(&mockService{}, Config{}).Handler()

		rec := do(t, h, http.MethodGet, "/v1/search", "")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{domain.ErrEmptyQuery, http.StatusBadRequest, "empty query"},
		{fmt.Errorf("%w: id", domain.ErrInvalidInput), http.StatusBadRequest, "invalid input: id"},
		{domain.NewConfigurationError("overlap", "too big"), http.StatusBadRequest, "overlap"},
		{fmt.Errorf("document x: %w", domain.ErrNotFound), http.StatusNotFound, "not found"},
		{fmt.Errorf("%w: deadline", domain.ErrTimeout), http.StatusGatewayTimeout, "timed out"},
		{fmt.Errorf("ingest d: %w", domain.ErrSuperseded), http.StatusConflict, "superseded"},
		{fmt.Errorf("%w: provider said 500", domain.ErrEmbeddingFailed), http.StatusServiceUnavailable, "search unavailable"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "disk on fire"},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			h := New(&mockService{err: tc.err}, Config{}).Handler()

			rec := do(t, h, http.MethodPost, "/v1/search", `{"query":"q"}`)

			assert.Equal(t, tc.status, rec.Code)
			msg := decode[errorResponse](t, rec).Error
			assert.Contains(t, msg, tc.message)
			if tc.status == http.StatusServiceUnavailable {
				assert.Equal(t, "search unavailable", msg)
			}
		})
	}
}

func TestIngest(t *testing.T) {
	t.Run("ingests with given id", func(t *testing.T) {
		svc := &mockService{summary: domain.IngestSummary{ChunkCount: 3, EmbeddedCount: 3, State: domain.DocumentIndexed}}
		h := New(svc, Config{}).Handler()

		rec := do(t, h, http.MethodPost, "/v1/documents", `{"id":"doc-1","name":"Lecture.pdf","text":"words"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		summary := decode[domain.IngestSummary](t, rec)
		assert.Equal(t, "doc-1", summary.DocumentID)
		assert.Equal(t, "Lecture.pdf", summary.DocumentName)
		assert.Equal(t, 3, summary.ChunkCount)
	})

	t.Run("missing id gets a uuid", func(t *testing.T) {
		svc := &mockService{}
		h := New(svc, Config{}).Handler()

		rec := do(t, h, http.MethodPost, "/v1/documents", `{"text":"words"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		_, err := uuid.Parse(svc.lastID)
		assert.NoError(t, err)
	})

	t.Run("oversized body", func(t *testing.T) {
		h := New(&mockService{}, Config{}).Handler()
		body := `{"id":"x","text":"` + strings.Repeat("a", maxBodyBytes) + `"}`

		rec := do(t, h, http.MethodPost, "/v1/documents", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Error, "exceeds")
	})
}

func TestDocuments(t *testing.T) {
	t.Run("lists documents", func(t *testing.T) {
		svc := &mockService{statuses: []domain.DocumentStatus{{DocumentID: "a", DocumentName: "A.pdf", State: domain.DocumentIndexed}}}
		h := New(svc, Config{}).Handler()

		rec := do(t, h, http.MethodGet, "/v1/documents", "")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[DocumentsResponse](t, rec)
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, "A.pdf", resp.Documents[0].DocumentName)
	})

	t.Run("empty list", func(t *testing.T) {
		rec := do(t, New(&mockService{}, Config{}).Handler(), http.MethodGet, "/v1/documents", "")
		assert.Contains(t, rec.Body.String(), `"documents":[]`)
	})

	t.Run("removes a document", func(t *testing.T) {
		svc := &mockService{removed: 4}
		h := New(svc, Config{}).Handler()

		rec := do(t, h, http.MethodDelete, "/v1/documents/doc-9", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "doc-9", svc.lastID)
		assert.Equal(t, RemoveResponse{DocumentID: "doc-9", RemovedChunks: 4}, decode[RemoveResponse](t, rec))
	})

	t.Run("removing an unknown document", func(t *testing.T) {
		h := New(&mockService{err: domain.ErrNotFound}, Config{}).Handler()

		rec := do(t, h, http.MethodDelete, "/v1/documents/nope", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStatsAndClear(t *testing.T) {
	svc := &mockService{stats: domain.IndexStats{ChunkCount: 6, DocumentCount: 2, EmbeddedCount: 5, Dimensions: 384}}
	h := New(svc, Config{}).Handler()

	rec := do(t, h, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, svc.stats, decode[domain.IndexStats](t, rec))

	rec = do(t, h, http.MethodDelete, "/v1/index", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.cleared)
}

func TestHealth(t *testing.T) {
	t.Run("without a checker", func(t *testing.T) {
		rec := do(t, New(&mockService{}, Config{}).Handler(), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
	})

	t.Run("healthy embedder", func(t *testing.T) {
		h := New(&mockService{}, Config{}, WithHealthCheck(pinger{})).Handler()
		rec := do(t, h, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unreachable embedder", func(t *testing.T) {
		h := New(&mockService{}, Config{}, WithHealthCheck(pinger{err: errors.New("connection refused")})).Handler()
		rec := do(t, h, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		resp := decode[HealthResponse](t, rec)
		assert.Equal(t, "unavailable", resp.Status)
		assert.Contains(t, resp.Error, "connection refused")
	})
}

func TestRequestID(t *testing.T) {
	h := New(&mockService{}, Config{}).Handler()

	t.Run("assigned when missing", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/v1/stats", "")
		_, err := uuid.Parse(rec.Header().Get(HeaderRequestID))
		assert.NoError(t, err)
	})

	t.Run("kept when valid", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
		req.Header.Set(HeaderRequestID, id)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, id, rec.Header().Get(HeaderRequestID))
	})

	t.Run("replaced when not a uuid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
		req.Header.Set(HeaderRequestID, "<script>")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.NotEqual(t, "<script>", rec.Header().Get(HeaderRequestID))
	})

	t.Run("present on errors and unknown routes", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/nowhere", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	})
}

func TestRecovery(t *testing.T) {
	h := New(&mockService{panics: true}, Config{}).Handler()

	rec := do(t, h, http.MethodPost, "/v1/search", `{"query":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode[errorResponse](t, rec).Error)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := New(&mockService{}, Config{}, WithMetrics(m, reg)).Handler()

	do(t, h, http.MethodPost, "/v1/search", `{"query":"q"}`)
	do(t, h, http.MethodDelete, "/v1/documents/a", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "POST /v1/search", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("DELETE", "DELETE /v1/documents/{id}", "200")))

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "studymate_http_requests_total")
}

func TestMetricsEndpoint_AbsentWithoutRegistry(t *testing.T) {
	rec := do(t, New(&mockService{}, Config{}).Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestTimeout(t *testing.T) {
	svc := &mockService{err: domain.ContextError(context.DeadlineExceeded)}
	h := New(svc, Config{RequestTimeout: time.Millisecond}).Handler()

	rec := do(t, h, http.MethodPost, "/v1/search", `{"query":"q"}`)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

// TestEndToEnd runs the API over the real engine with the hashed embedder.
func TestEndToEnd(t *testing.T) {
	pipeline, err := postprocessors.NewDefaultPipeline(domain.ChunkSettings{ChunkSize: 8, Overlap: 2, WordsPerPage: 300})
	require.NoError(t, err)
	svc := services.NewRetrievalService(pipeline, hashed.NewEmbeddingService(64), flat.New(),
		services.NewHybridRanker(domain.DefaultRankerSettings()))
	srv := httptest.NewServer(New(svc, Config{Defaults: domain.SearchOptions{MaxResults: 3}}).Handler())
	defer srv.Close()

	post := func(path string, body any) *http.Response {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
		require.NoError(t, err)
		return resp
	}

	resp := post("/v1/documents", IngestRequest{
		ID:   "bio",
		Name: "Biology_Textbook.txt",
		Text: "Photosynthesis happens in the chloroplast. Chlorophyll absorbs red and blue light and reflects green light.",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post("/v1/search", SearchRequest{Query: "chlorophyll light"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out SearchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Results)
	assert.Equal(t, "Biology_Textbook.txt", out.Results[0].Chunk.DocumentName)
	assert.Contains(t, out.Results[0].MatchedTerms, "chlorophyll")

	resp = post("/v1/search", SearchRequest{Query: "   "})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
