// Command storage-service exposes health and metrics endpoints over the
// shared connection pool and Redis cache: /health, /health/live,
// /health/ready, /metrics in Prometheus exposition format.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llmobservatory/internal/cache"
	"llmobservatory/internal/config"
	"llmobservatory/internal/observability"
	"llmobservatory/internal/storage"
	"llmobservatory/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	observability.InitLogger("", "info")
	logger := observability.For("storage-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	metrics := observability.NewMetrics()

	pool, err := storage.OpenPool(ctx, cfg.Pool, cfg.Database.URL)
	if err != nil {
		logger.Error().Err(err).Msg("database unreachable at startup")
		os.Exit(2)
	}
	defer pool.Close()

	redisCache := cache.New(cfg.Cache.Addr, cfg.Cache.Enabled)

	go publishPoolGauges(ctx, pool, metrics)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(pool, redisCache))
	mux.HandleFunc("/health/live", liveHandler(pool))
	mux.HandleFunc("/health/ready", readyHandler(pool, redisCache))
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Server.HealthPort)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("storage-service started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func publishPoolGauges(ctx context.Context, pool *storage.Pool, m *observability.Metrics) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s := pool.Stats()
			m.PoolConnectionsInUse.Set(float64(s.Active))
			m.PoolConnectionsIdle.Set(float64(s.Idle))
		case <-ctx.Done():
			return
		}
	}
}

// liveHandler is always Ok once the process has initialized.
func liveHandler(pool *storage.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool.Live() {
			writeStatus(w, http.StatusOK, "ok")
			return
		}
		writeStatus(w, http.StatusServiceUnavailable, "not initialized")
	}
}

// readyHandler succeeds only if a SELECT-1 round-trip on a freshly
// acquired connection succeeds, and, when caching is enabled, PING
// succeeds too.
func readyHandler(pool *storage.Pool, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ready(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "database not ready: "+err.Error())
			return
		}
		if err := c.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "cache not ready: "+err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	}
}

// healthHandler is the combined endpoint: pool stats plus readiness.
func healthHandler(pool *storage.Pool, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := pool.Stats()
		ready := pool.Ready(r.Context()) == nil
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":  map[bool]string{true: "ok", false: "degraded"}[ready],
			"version": version.Version,
			"pool":    stats,
		})
	}
}

func writeStatus(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	w.Write([]byte(msg))
}
