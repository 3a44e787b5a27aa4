package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"llmobservatory/internal/apierr"
	"llmobservatory/internal/observability"
)

// Flusher emits one batch of rows of type T to the store. Implementations
// are expected to use the bulk-load COPY protocol; see copy.go.
type Flusher[T any] func(ctx context.Context, rows []T) error

// WriterConfig bounds a single entity writer. Defaults vary by entity:
// traces/spans/metrics/data-points default to 500, logs to 1000; flush
// interval defaults to 5s (2s for logs).
type WriterConfig struct {
	BatchSize      int
	FlushInterval  time.Duration
	MaxRetries     int
	MaxConcurrency int
}

// hardCapMultiple is the backpressure ceiling: once the buffer reaches
// this multiple of BatchSize, write() returns a retryable overload error
// instead of growing further.
const hardCapMultiple = 10

// Stats is the writer's observable cumulative state.
type Stats struct {
	RowsWritten  uint64
	WriteFailures uint64
	Retries      uint64
}

// Writer buffers rows of type T and flushes them to the store on a size
// or time trigger, using the bulk-load protocol for emission. Safe for
// concurrent use by multiple producers.
type Writer[T any] struct {
	entity string
	flush  Flusher[T]
	cfg    WriterConfig
	logger zerolog.Logger

	mu     sync.Mutex
	buffer []T

	sem    chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

// NewWriter constructs a writer for the named entity (used in logging
// and metric labels) backed by the given Flusher.
func NewWriter[T any](entity string, cfg WriterConfig, flush Flusher[T]) *Writer[T] {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Writer[T]{
		entity: entity,
		flush:  flush,
		cfg:    cfg,
		logger: observability.For(entity),
		sem:    make(chan struct{}, cfg.MaxConcurrency),
	}
}

// Write appends row to the buffer. If the buffer has reached batch_size,
// the overflowing batch is flushed synchronously before Write returns.
func (w *Writer[T]) Write(ctx context.Context, row T) error {
	return w.WriteMany(ctx, []T{row})
}

// WriteMany is the bulk analogue of Write.
func (w *Writer[T]) WriteMany(ctx context.Context, rows []T) error {
	w.mu.Lock()
	if len(w.buffer)+len(rows) > w.cfg.BatchSize*hardCapMultiple {
		w.mu.Unlock()
		return apierr.New(apierr.KindOverload, w.entity+" writer buffer at capacity")
	}
	w.buffer = append(w.buffer, rows...)
	shouldFlush := len(w.buffer) >= w.cfg.BatchSize
	w.mu.Unlock()

	if shouldFlush {
		return w.Flush(ctx)
	}
	return nil
}

// Flush swaps the buffer under lock, then emits outside the lock so
// producers are not blocked during the bulk-load phase.
func (w *Writer[T]) Flush(ctx context.Context) error {
	w.mu.Lock()
	batch := w.buffer
	w.buffer = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		return apierr.Wrap(apierr.KindTimeout, "wait for flush slot", ctx.Err())
	}
	defer func() { <-w.sem }()

	start := time.Now()
	err := w.emitWithRetry(ctx, batch)
	observability.LogOperation(&w.logger, "flush", w.entity, start, err)
	return err
}

func (w *Writer[T]) emitWithRetry(ctx context.Context, batch []T) error {
	backoff := 100 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		err := w.flush(ctx, batch)
		if err == nil {
			w.recordSuccess(len(batch))
			return nil
		}
		if isUniqueViolation(err) {
			// A redelivered row was rejected by the primary key; the
			// earlier delivery already persisted it.
			w.recordSuccess(len(batch))
			return nil
		}
		lastErr = err
		if !apierr.Retryable(err) || attempt == w.cfg.MaxRetries {
			break
		}
		w.incRetries()
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			lastErr = apierr.Wrap(apierr.KindTimeout, "flush cancelled during backoff", ctx.Err())
			attempt = w.cfg.MaxRetries
		}
		backoff *= 2
	}
	w.incFailures()
	observability.LoggerWithTrace(ctx).Error().Err(lastErr).Int("batch_size", len(batch)).Msg("flush failed")
	return lastErr
}

func (w *Writer[T]) recordSuccess(n int) {
	w.statsMu.Lock()
	w.stats.RowsWritten += uint64(n)
	w.statsMu.Unlock()
}

func (w *Writer[T]) incFailures() {
	w.statsMu.Lock()
	w.stats.WriteFailures++
	w.statsMu.Unlock()
}

func (w *Writer[T]) incRetries() {
	w.statsMu.Lock()
	w.stats.Retries++
	w.statsMu.Unlock()
}

// BufferDepth returns the number of rows currently buffered.
func (w *Writer[T]) BufferDepth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}

// WriteStats returns cumulative write statistics.
func (w *Writer[T]) WriteStats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}

// StartAutoFlush spawns a background goroutine that flushes on
// flush_interval. Errors are logged, never propagated; the loop never
// exits on a flush error. Shutdown stops it.
func (w *Writer[T]) StartAutoFlush() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.cfg.FlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := w.Flush(ctx); err != nil {
					w.logger.Error().Err(err).Msg("auto-flush error")
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the auto-flush loop and performs one best-effort final
// flush of whatever remains buffered, bounded by ctx.
func (w *Writer[T]) Shutdown(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return w.Flush(ctx)
}
