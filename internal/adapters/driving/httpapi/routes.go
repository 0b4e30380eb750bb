package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Documents
	mux.HandleFunc("POST /v1/documents", s.handleIngest)
	mux.HandleFunc("GET /v1/documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /v1/documents/{id}", s.handleRemoveDocument)

	// Search
	mux.HandleFunc("POST /v1/search", s.handleSearch)

	// Index
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("DELETE /v1/index", s.handleClear)

	// System
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}
