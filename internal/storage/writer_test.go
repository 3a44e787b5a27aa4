package storage

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmobservatory/internal/apierr"
)

func TestWriterFlushesOnBatchSize(t *testing.T) {
	var flushedBatches [][]int
	var calls int32
	flush := func(ctx context.Context, rows []int) error {
		atomic.AddInt32(&calls, 1)
		flushedBatches = append(flushedBatches, append([]int(nil), rows...))
		return nil
	}
	w := NewWriter("test", WriterConfig{BatchSize: 3, FlushInterval: time.Hour, MaxRetries: 1}, flush)

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, 1))
	require.NoError(t, w.Write(ctx, 2))
	assert.Equal(t, 2, w.BufferDepth())
	require.NoError(t, w.Write(ctx, 3))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, w.BufferDepth())
	assert.Equal(t, uint64(3), w.WriteStats().RowsWritten)
}

func TestWriterExplicitFlushEmitsBufferedRows(t *testing.T) {
	var got []int
	flush := func(ctx context.Context, rows []int) error {
		got = append(got, rows...)
		return nil
	}
	w := NewWriter("test", WriterConfig{BatchSize: 100, FlushInterval: time.Hour}, flush)

	ctx := context.Background()
	require.NoError(t, w.WriteMany(ctx, []int{1, 2, 3}))
	assert.Equal(t, 3, w.BufferDepth())

	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 0, w.BufferDepth())
}

func TestWriterOverloadPastHardCap(t *testing.T) {
	flush := func(ctx context.Context, rows []int) error { return nil }
	w := NewWriter("test", WriterConfig{BatchSize: 2, FlushInterval: time.Hour}, flush)
	w.mu.Lock()
	w.buffer = make([]int, 2*hardCapMultiple)
	w.mu.Unlock()

	err := w.Write(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, apierr.KindOverload, apierr.KindOf(err))
}

func TestWriterRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	flush := func(ctx context.Context, rows []int) error {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return apierr.New(apierr.KindConnection, "transient")
		}
		return nil
	}
	w := NewWriter("test", WriterConfig{BatchSize: 1, FlushInterval: time.Hour, MaxRetries: 5}, flush)

	err := w.Write(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, uint64(2), w.WriteStats().Retries)
}

func TestWriterGivesUpAfterMaxRetries(t *testing.T) {
	flush := func(ctx context.Context, rows []int) error {
		return apierr.New(apierr.KindConnection, "always fails")
	}
	w := NewWriter("test", WriterConfig{BatchSize: 1, FlushInterval: time.Hour, MaxRetries: 2}, flush)

	err := w.Write(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, uint64(1), w.WriteStats().WriteFailures)
}

func TestWriterNonRetryableFailsImmediately(t *testing.T) {
	var attempts int32
	flush := func(ctx context.Context, rows []int) error {
		atomic.AddInt32(&attempts, 1)
		return apierr.New(apierr.KindValidation, "bad row")
	}
	w := NewWriter("test", WriterConfig{BatchSize: 1, FlushInterval: time.Hour, MaxRetries: 5}, flush)

	err := w.Write(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestWriterAutoFlushAndShutdown(t *testing.T) {
	var calls int32
	flush := func(ctx context.Context, rows []int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	w := NewWriter("test", WriterConfig{BatchSize: 1000, FlushInterval: 10 * time.Millisecond}, flush)
	w.StartAutoFlush()

	require.NoError(t, w.Write(context.Background(), 1))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, w.Shutdown(context.Background()))
}
