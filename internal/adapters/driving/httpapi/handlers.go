package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// IngestRequest is the body of POST /v1/documents.
type IngestRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// SearchRequest is the body of POST /v1/search.
// Omitted fields take the server defaults.
type SearchRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"maxResults"`
	MinRelevance   *float64 `json:"minRelevance"`
	DocumentFilter string   `json:"documentFilter"`
	IncludeContext *bool    `json:"includeContext"`
}

// SearchResponse is the body returned by POST /v1/search.
type SearchResponse struct {
	Query   string                `json:"query"`
	Results []domain.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// DocumentsResponse is the body returned by GET /v1/documents.
type DocumentsResponse struct {
	Documents []domain.DocumentStatus `json:"documents"`
	Count     int                     `json:"count"`
}

// RemoveResponse is the body returned by DELETE /v1/documents/{id}.
type RemoveResponse struct {
	DocumentID    string `json:"documentId"`
	RemovedChunks int    `json:"removedChunks"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		req.ID = uuid.NewString()
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	summary, err := s.svc.Ingest(ctx, req.ID, req.Name, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.svc.List(r.Context())
	if docs == nil {
		docs = []domain.DocumentStatus{}
	}
	writeJSON(w, http.StatusOK, DocumentsResponse{Documents: docs, Count: len(docs)})
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ctx, cancel := s.requestContext(r)
	defer cancel()

	n, err := s.svc.Remove(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RemoveResponse{DocumentID: id, RemovedChunks: n})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	opts := s.cfg.Defaults
	if req.MaxResults > 0 {
		opts.MaxResults = req.MaxResults
	}
	if req.MinRelevance != nil {
		opts.MinRelevance = *req.MinRelevance
	}
	if req.IncludeContext != nil {
		opts.IncludeContext = *req.IncludeContext
	}
	opts.DocumentFilter = req.DocumentFilter

	ctx, cancel := s.requestContext(r)
	defer cancel()

	results, err := s.svc.Search(ctx, req.Query, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: req.Query, Results: results, Count: len(results)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Stats(r.Context()))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	if err := s.svc.Clear(ctx); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.health.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrInvalidInput, tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", domain.ErrInvalidInput)
		default:
			return fmt.Errorf("%w: malformed JSON: %v", domain.ErrInvalidInput, err)
		}
	}
	return nil
}
