// Package metrics provides Prometheus metrics for the retrieval engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing, so services can run without a registry.
type Metrics struct {
	// Ingestion metrics
	DocumentsIngestedTotal *prometheus.CounterVec
	ChunksIndexedTotal     prometheus.Counter
	ChunksUnembeddedTotal  prometheus.Counter

	// Search metrics
	SearchesTotal         *prometheus.CounterVec
	SearchDuration        prometheus.Histogram
	EmbeddingDuration     *prometheus.HistogramVec
	SearchResultsReturned prometheus.Histogram

	// Index metrics
	IndexChunks    prometheus.Gauge
	IndexDocuments prometheus.Gauge

	// HTTP API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		DocumentsIngestedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studymate_documents_ingested_total",
				Help: "Total number of ingested documents by final state",
			},
			[]string{"state"},
		),
		ChunksIndexedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "studymate_chunks_indexed_total",
			Help: "Total number of chunks added to the index",
		}),
		ChunksUnembeddedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "studymate_chunks_unembedded_total",
			Help: "Total number of chunks indexed without a vector",
		}),
		SearchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studymate_searches_total",
				Help: "Total number of searches by outcome",
			},
			[]string{"status"},
		),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "studymate_search_duration_seconds",
			Help:    "Duration of searches in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		EmbeddingDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studymate_embedding_duration_seconds",
				Help:    "Duration of embedding provider calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		SearchResultsReturned: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "studymate_search_results_returned",
			Help:    "Number of results returned per search",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
		}),
		IndexChunks: f.NewGauge(prometheus.GaugeOpts{
			Name: "studymate_index_chunks",
			Help: "Number of chunks currently in the index",
		}),
		IndexDocuments: f.NewGauge(prometheus.GaugeOpts{
			Name: "studymate_index_documents",
			Help: "Number of documents currently in the index",
		}),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studymate_http_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studymate_http_request_duration_seconds",
				Help:    "Duration of HTTP API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// RecordIngest records the outcome of one document ingestion.
func (m *Metrics) RecordIngest(state string, indexed, unembedded int) {
	if m == nil {
		return
	}
	m.DocumentsIngestedTotal.WithLabelValues(state).Inc()
	m.ChunksIndexedTotal.Add(float64(indexed))
	m.ChunksUnembeddedTotal.Add(float64(unembedded))
}

// RecordSearch records a finished search.
func (m *Metrics) RecordSearch(status string, results int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(status).Inc()
	m.SearchDuration.Observe(duration.Seconds())
	if status == StatusOK {
		m.SearchResultsReturned.Observe(float64(results))
	}
}

// RecordEmbedding records the latency of an embedding call.
// op is "query", "batch" or "chunk".
func (m *Metrics) RecordEmbedding(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.EmbeddingDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SetIndexSize updates the index gauges.
func (m *Metrics) SetIndexSize(chunks, documents int) {
	if m == nil {
		return
	}
	m.IndexChunks.Set(float64(chunks))
	m.IndexDocuments.Set(float64(documents))
}

// RecordHTTPRequest records a finished HTTP API request.
// route is the matched mux pattern, not the raw path, to bound cardinality.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Search outcome labels.
const (
	StatusOK          = "ok"
	StatusEmptyQuery  = "empty_query"
	StatusTimeout     = "timeout"
	StatusUnavailable = "unavailable"
	StatusError       = "error"
)
