package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting application
// metrics across the collector and storage-service binaries. All metrics
// are registered with Prometheus's default registry and exposed at /metrics.
type Metrics struct {
	// PipelineSpansProcessed counts spans entering the enrichment pipeline
	// by outcome (kept|dropped|error).
	PipelineSpansProcessed *prometheus.CounterVec

	// PipelineStageDuration measures the latency of each pipeline stage.
	// Labels: stage (pii|cost|sample)
	PipelineStageDuration *prometheus.HistogramVec

	// WriterBatchSize observes the number of rows flushed per batch.
	// Labels: entity (trace|span|event|metric|data_point|log)
	WriterBatchSize *prometheus.HistogramVec

	// WriterFlushDuration measures how long a batch flush takes.
	// Labels: entity, method (copy|insert)
	WriterFlushDuration *prometheus.HistogramVec

	// WriterItemsWritten counts rows successfully persisted.
	// Labels: entity
	WriterItemsWritten *prometheus.CounterVec

	// WriterErrors counts flush failures by entity and error kind.
	WriterErrors *prometheus.CounterVec

	// PoolConnectionsInUse tracks the pool's current acquired connection
	// count.
	PoolConnectionsInUse prometheus.Gauge

	// PoolConnectionsIdle tracks the pool's current idle connection count.
	PoolConnectionsIdle prometheus.Gauge

	// PoolAcquireDuration measures how long callers wait to acquire a
	// connection.
	PoolAcquireDuration prometheus.Histogram

	// CacheLookups counts analytics cache lookups by outcome (hit|miss).
	CacheLookups *prometheus.CounterVec

	// QueryDuration measures analytics query planner execution time.
	// Labels: operation (analytics|compare|recommendations)
	QueryDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics. Call once at
// process startup.
func NewMetrics() *Metrics {
	return &Metrics{
		PipelineSpansProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmobs_pipeline_spans_total",
				Help: "Total number of spans processed by the enrichment pipeline by outcome",
			},
			[]string{"outcome"},
		),

		PipelineStageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmobs_pipeline_stage_duration_seconds",
				Help:    "Duration of individual enrichment pipeline stages",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"stage"},
		),

		WriterBatchSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmobs_writer_batch_size",
				Help:    "Number of rows flushed per batch by entity",
				Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2500},
			},
			[]string{"entity"},
		),

		WriterFlushDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmobs_writer_flush_duration_seconds",
				Help:    "Duration of batch flush operations",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"entity", "method"},
		),

		WriterItemsWritten: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmobs_writer_items_written_total",
				Help: "Total number of rows successfully persisted by entity",
			},
			[]string{"entity"},
		),

		WriterErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmobs_writer_errors_total",
				Help: "Total number of batch flush errors by entity and error kind",
			},
			[]string{"entity", "kind"},
		),

		PoolConnectionsInUse: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "llmobs_pool_connections_in_use",
				Help: "Current number of acquired connections in the database pool",
			},
		),

		PoolConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "llmobs_pool_connections_idle",
				Help: "Current number of idle connections in the database pool",
			},
		),

		PoolAcquireDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "llmobs_pool_acquire_duration_seconds",
				Help:    "Duration callers wait to acquire a pooled connection",
				Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 30},
			},
		),

		CacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmobs_cache_lookups_total",
				Help: "Total number of analytics cache lookups by outcome",
			},
			[]string{"outcome"},
		),

		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmobs_query_duration_seconds",
				Help:    "Duration of analytics query planner operations",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"operation"},
		),
	}
}
