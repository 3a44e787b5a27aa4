// Package config holds the struct-based configuration for the collector and
// storage-service binaries, overridable via LLMOBS_-prefixed environment
// variables. This is intentionally a thin struct + env overlay, not a
// general configuration framework: no file watching, no hot reload.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration for both binaries. Each binary only
// reads the sections it needs.
type Config struct {
	Database  DatabaseConfig
	Pool      PoolConfig
	Writer    WriterConfig
	Sampling  SamplingConfig
	Retention RetentionConfig
	Cache     CacheConfig
	Server    ServerConfig
}

// DatabaseConfig holds the postgres connection string.
type DatabaseConfig struct {
	URL string
}

// PoolConfig bounds the shared connection pool.
type PoolConfig struct {
	MinConns       int
	MaxConns       int
	AcquireTimeout time.Duration
	IdleTimeout    time.Duration
	MaxLifetime    time.Duration
}

// WriterConfig sets the defaults for batching writers; entity-specific
// overrides live in internal/storage, seeded from these.
type WriterConfig struct {
	BatchSize        int
	FlushInterval    time.Duration
	MaxRetries       int
	MaxConcurrency   int
	LogBatchSize     int
	LogFlushInterval time.Duration
}

// SamplingConfig configures the head and tail samplers.
type SamplingConfig struct {
	Strategy            string // "head" | "tail" | "both"
	HeadRate            float64
	SlowThresholdMs     uint64
	ExpensiveThresholdUSD float64
}

// RetentionConfig sets retention trim policies (enforced by a separate
// scheduled job, out of scope here; the values are carried through
// configuration regardless).
type RetentionConfig struct {
	TracesDays  int
	MetricsDays int
	LogsDays    int
}

// CacheConfig configures the Redis read-through cache used by the query
// planner.
type CacheConfig struct {
	Addr    string
	TTL     time.Duration
	Enabled bool
}

// ServerConfig configures the health and metrics HTTP endpoints.
type ServerConfig struct {
	HealthPort  int
	MetricsPort int
}

// Default returns the configuration with the defaults named throughout the
// specification, before any environment overlay is applied.
func Default() Config {
	return Config{
		Database: DatabaseConfig{URL: "postgres://localhost:5432/llmobservatory"},
		Pool: PoolConfig{
			MinConns:       1,
			MaxConns:       10,
			AcquireTimeout: 30 * time.Second,
			IdleTimeout:    5 * time.Minute,
			MaxLifetime:    30 * time.Minute,
		},
		Writer: WriterConfig{
			BatchSize:        500,
			FlushInterval:    5 * time.Second,
			MaxRetries:       3,
			MaxConcurrency:   4,
			LogBatchSize:     1000,
			LogFlushInterval: 2 * time.Second,
		},
		Sampling: SamplingConfig{
			Strategy:              "both",
			HeadRate:              0.01,
			SlowThresholdMs:       5000,
			ExpensiveThresholdUSD: 1.0,
		},
		Retention: RetentionConfig{
			TracesDays:  30,
			MetricsDays: 90,
			LogsDays:    7,
		},
		Cache: CacheConfig{
			Addr:    "localhost:6379",
			TTL:     time.Hour,
			Enabled: true,
		},
		Server: ServerConfig{
			HealthPort:  8080,
			MetricsPort: 9090,
		},
	}
}

// Load returns Default() overlaid with any LLMOBS_-prefixed environment
// variables that are set.
func Load() Config {
	cfg := Default()

	if v := envString("LLMOBS_DB_URL"); v != "" {
		cfg.Database.URL = v
	}

	if v, ok := envInt("LLMOBS_POOL_MIN_CONNS"); ok {
		cfg.Pool.MinConns = v
	}
	if v, ok := envInt("LLMOBS_POOL_MAX_CONNS"); ok {
		cfg.Pool.MaxConns = v
	}
	if v, ok := envSeconds("LLMOBS_POOL_ACQUIRE_TIMEOUT_S"); ok {
		cfg.Pool.AcquireTimeout = v
	}

	if v, ok := envInt("LLMOBS_WRITER_BATCH_SIZE"); ok {
		cfg.Writer.BatchSize = v
	}
	if v, ok := envMillis("LLMOBS_WRITER_FLUSH_INTERVAL_MS"); ok {
		cfg.Writer.FlushInterval = v
	}
	if v, ok := envInt("LLMOBS_WRITER_MAX_RETRIES"); ok {
		cfg.Writer.MaxRetries = v
	}

	if v := envString("LLMOBS_SAMPLING_STRATEGY"); v != "" {
		cfg.Sampling.Strategy = v
	}
	if v, ok := envFloat("LLMOBS_SAMPLING_HEAD_RATE"); ok {
		cfg.Sampling.HeadRate = v
	}
	if v, ok := envInt("LLMOBS_SAMPLING_SLOW_MS"); ok {
		cfg.Sampling.SlowThresholdMs = uint64(v)
	}
	if v, ok := envFloat("LLMOBS_SAMPLING_EXPENSIVE_USD"); ok {
		cfg.Sampling.ExpensiveThresholdUSD = v
	}

	if v, ok := envInt("LLMOBS_RETENTION_TRACES_DAYS"); ok {
		cfg.Retention.TracesDays = v
	}
	if v, ok := envInt("LLMOBS_RETENTION_METRICS_DAYS"); ok {
		cfg.Retention.MetricsDays = v
	}
	if v, ok := envInt("LLMOBS_RETENTION_LOGS_DAYS"); ok {
		cfg.Retention.LogsDays = v
	}

	if v := envString("LLMOBS_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v, ok := envSeconds("LLMOBS_CACHE_TTL_S"); ok {
		cfg.Cache.TTL = v
	}

	if v, ok := envInt("LLMOBS_HEALTH_PORT"); ok {
		cfg.Server.HealthPort = v
	}
	if v, ok := envInt("LLMOBS_METRICS_PORT"); ok {
		cfg.Server.MetricsPort = v
	}

	return cfg
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envInt(key string) (int, bool) {
	v := envString(key)
	if v == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func envFloat(key string) (float64, bool) {
	v := envString(key)
	if v == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func envSeconds(key string) (time.Duration, bool) {
	v, ok := envInt(key)
	if !ok {
		return 0, false
	}
	return time.Duration(v) * time.Second, true
}

func envMillis(key string) (time.Duration, bool) {
	v, ok := envInt(key)
	if !ok {
		return 0, false
	}
	return time.Duration(v) * time.Millisecond, true
}
