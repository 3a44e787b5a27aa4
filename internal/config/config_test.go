package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Pool.MinConns)
	assert.Equal(t, 10, cfg.Pool.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.Pool.AcquireTimeout)
	assert.Equal(t, 500, cfg.Writer.BatchSize)
	assert.Equal(t, 0.01, cfg.Sampling.HeadRate)
	assert.Equal(t, uint64(5000), cfg.Sampling.SlowThresholdMs)
	assert.Equal(t, 1.0, cfg.Sampling.ExpensiveThresholdUSD)
}

func TestLoadOverlaysFromEnv(t *testing.T) {
	os.Setenv("LLMOBS_DB_URL", "postgres://example/test")
	os.Setenv("LLMOBS_WRITER_BATCH_SIZE", "250")
	os.Setenv("LLMOBS_SAMPLING_HEAD_RATE", "0.5")
	t.Cleanup(func() {
		os.Unsetenv("LLMOBS_DB_URL")
		os.Unsetenv("LLMOBS_WRITER_BATCH_SIZE")
		os.Unsetenv("LLMOBS_SAMPLING_HEAD_RATE")
	})

	cfg := Load()
	assert.Equal(t, "postgres://example/test", cfg.Database.URL)
	assert.Equal(t, 250, cfg.Writer.BatchSize)
	assert.Equal(t, 0.5, cfg.Sampling.HeadRate)
}

func TestLoadIgnoresInvalidIntOverlay(t *testing.T) {
	os.Setenv("LLMOBS_WRITER_BATCH_SIZE", "not-a-number")
	t.Cleanup(func() { os.Unsetenv("LLMOBS_WRITER_BATCH_SIZE") })

	cfg := Load()
	assert.Equal(t, 500, cfg.Writer.BatchSize)
}
