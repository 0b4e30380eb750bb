package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/ai"
	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/index/flat"
	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/storage/sqlite"
	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
	"github.com/abhinay-x/studymate-sub000/internal/core/services"
	"github.com/abhinay-x/studymate-sub000/internal/logger"
	"github.com/abhinay-x/studymate-sub000/internal/metrics"
	"github.com/abhinay-x/studymate-sub000/internal/postprocessors"
)

// app holds the engine components built from one set of settings.
type app struct {
	embedder  driven.EmbeddingService
	store     driven.ChunkStore
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	retrieval *services.RetrievalService
}

// newApp wires the retrieval engine and restores persisted chunks.
func newApp(ctx context.Context, settings domain.AppSettings) (*app, error) {
	logger.Section("Starting StudyMate")

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.CreateEmbeddingService(settings.Embedding)
	if err != nil {
		return nil, err
	}

	a := &app{
		embedder: embedder,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	opts := []services.Option{
		services.WithMetrics(a.metrics),
		services.WithBatchSize(settings.Embedding.BatchSize),
		services.WithConcurrency(settings.Embedding.Concurrency),
		services.WithCandidatePoolSize(settings.Search.CandidatePoolSize),
	}

	if settings.Storage.Persist {
		store, err := sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("opening chunk store: %w", err)
		}
		logger.Debug("Chunk store: %s", store.Path())
		a.store = store
		opts = append(opts, services.WithChunkStore(store))
	}

	a.retrieval = services.NewRetrievalService(
		pipeline,
		embedder,
		flat.New(),
		services.NewHybridRanker(settings.Search.Ranker()),
		opts...,
	)

	if _, err := a.retrieval.Restore(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the chunk store and the embedding service.
func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	return errors.Join(errs...)
}
