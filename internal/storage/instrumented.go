package storage

import (
	"context"
	"time"

	"llmobservatory/internal/observability"
)

// InstrumentedFlusher decorates a Flusher with the per-operation metrics
// named in the batching-writer component design: latency, batch size,
// items written, and errors, labeled by entity.
func InstrumentedFlusher[T any](entity, method string, m *observability.Metrics, f Flusher[T]) Flusher[T] {
	return func(ctx context.Context, rows []T) error {
		start := time.Now()
		err := f(ctx, rows)
		m.WriterFlushDuration.WithLabelValues(entity, method).Observe(time.Since(start).Seconds())
		m.WriterBatchSize.WithLabelValues(entity).Observe(float64(len(rows)))
		if err != nil {
			m.WriterErrors.WithLabelValues(entity, "flush").Inc()
			return err
		}
		m.WriterItemsWritten.WithLabelValues(entity).Add(float64(len(rows)))
		return nil
	}
}
