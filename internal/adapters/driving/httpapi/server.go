// Package httpapi serves the retrieval engine as a JSON API over HTTP,
// together with health and Prometheus endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driving"
	"github.com/abhinay-x/studymate-sub000/internal/logger"
	"github.com/abhinay-x/studymate-sub000/internal/metrics"
)

// Defaults.
const (
	DefaultAddr           = ":8080"
	DefaultRequestTimeout = 30 * time.Second
	maxBodyBytes          = 32 << 20
	healthTimeout         = 5 * time.Second
)

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds HTTP server settings.
type Config struct {
	// Addr is the listen address.
	Addr string

	// RequestTimeout bounds each API call.
	RequestTimeout time.Duration

	// Defaults fill in search options a request leaves out.
	Defaults domain.SearchOptions
}

// Server is the HTTP API server.
type Server struct {
	svc      driving.RetrievalService
	cfg      Config
	health   Pinger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck makes /health ping p, usually the embedding service.
func WithHealthCheck(p Pinger) Option {
	return func(s *Server) {
		s.health = p
	}
}

// WithMetrics records request metrics in m and serves g on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// New creates a server for svc.
func New(svc driving.RetrievalService, cfg Config, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Defaults.MaxResults <= 0 {
		cfg.Defaults = domain.DefaultSearchOptions()
	}

	s := &Server{svc: svc, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.withMiddleware(s.setupRoutes())
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown: %v", err)
		}
	}()

	zl := logger.Zerolog()
	zl.Info().Str("address", s.cfg.Addr).Msg("HTTP server starting")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	zl.Info().Msg("HTTP server stopped")
	return nil
}

// requestContext derives the per-call context with the request timeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
}
