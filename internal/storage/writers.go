package storage

import (
	"context"
	"time"

	"llmobservatory/internal/config"
	"llmobservatory/internal/observability"
)

// Writers bundles one Writer per entity class, seeded from the shared
// writer defaults in config.WriterConfig and instrumented against the
// shared Prometheus registry.
type Writers struct {
	Traces      *Writer[Trace]
	Spans       *Writer[TraceSpan]
	Events      *Writer[TraceEvent]
	Metrics     *Writer[Metric]
	DataPoints  *Writer[MetricDataPoint]
	Logs        *Writer[LogRecord]
}

// NewWriters constructs the full set of entity writers over pool, wiring
// each to the COPY bulk-load protocol and to m for instrumentation.
func NewWriters(pool *Pool, cfg config.WriterConfig, m *observability.Metrics) *Writers {
	cw := NewCopyWriter(pool.Pg())

	base := WriterConfig{
		BatchSize:      cfg.BatchSize,
		FlushInterval:  cfg.FlushInterval,
		MaxRetries:     cfg.MaxRetries,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	logCfg := base
	logCfg.BatchSize = cfg.LogBatchSize
	logCfg.FlushInterval = cfg.LogFlushInterval

	return &Writers{
		Traces:     NewWriter("trace", base, InstrumentedFlusher("trace", "copy", m, cw.WriteTraces)),
		Spans:      NewWriter("span", base, InstrumentedFlusher("span", "copy", m, cw.WriteSpans)),
		Events:     NewWriter("event", base, InstrumentedFlusher("event", "copy", m, cw.WriteEvents)),
		Metrics:    NewWriter("metric", base, InstrumentedFlusher("metric", "copy", m, cw.WriteMetrics)),
		DataPoints: NewWriter("data_point", base, InstrumentedFlusher("data_point", "copy", m, cw.WriteDataPoints)),
		Logs:       NewWriter("log", logCfg, InstrumentedFlusher("log", "copy", m, cw.WriteLogs)),
	}
}

// StartAutoFlush starts the background flush timer on every writer.
func (w *Writers) StartAutoFlush() {
	w.Traces.StartAutoFlush()
	w.Spans.StartAutoFlush()
	w.Events.StartAutoFlush()
	w.Metrics.StartAutoFlush()
	w.DataPoints.StartAutoFlush()
	w.Logs.StartAutoFlush()
}

// Shutdown flushes every writer, bounded by the given budget, and
// returns the first error encountered. This is the flush step of the
// graceful-shutdown sequence; it does not close the pool.
func (w *Writers) Shutdown(ctx context.Context, budget time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	var first error
	for _, shut := range []func(context.Context) error{
		w.Traces.Shutdown, w.Spans.Shutdown, w.Events.Shutdown,
		w.Metrics.Shutdown, w.DataPoints.Shutdown, w.Logs.Shutdown,
	} {
		if err := shut(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
