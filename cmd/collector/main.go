// Command collector runs the span enrichment pipeline and the batching
// writers that persist its output. It exposes start/stop subcommands
// with graceful-shutdown handling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"llmobservatory/internal/config"
	"llmobservatory/internal/observability"
	"llmobservatory/internal/pricing"
	"llmobservatory/internal/processor"
	"llmobservatory/internal/storage"
	"llmobservatory/internal/version"
)

// commit is populated by ldflags during release builds; the version
// number itself lives in internal/version so other binaries can report
// the same value.
var commit = "none"

// shutdownBudget bounds the graceful-shutdown sequence: stop accepting
// new spans, flush every writer, close the pool.
const shutdownBudget = 30 * time.Second

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "collector",
		Short:        "LLM observability collector",
		Version:      fmt.Sprintf("%s (commit: %s)", version.Version, commit),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildStartCmd(), buildStopCmd())
	return rootCmd
}

func buildStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the collector and block until shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollector(cmd.Context())
		},
	}
}

func buildStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Signal a running collector process to shut down gracefully",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidFile := "/var/run/llmobs-collector.pid"
			data, err := os.ReadFile(pidFile)
			if err != nil {
				return fmt.Errorf("read pid file: %w", err)
			}
			var pid int
			if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
				return fmt.Errorf("parse pid file: %w", err)
			}
			proc, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("find process %d: %w", pid, err)
			}
			return proc.Signal(syscall.SIGTERM)
		},
	}
}

func runCollector(ctx context.Context) error {
	cfg := config.Load()
	observability.InitLogger("", "info")
	logger := observability.For("collector")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("received shutdown signal")
		cancel()
	}()

	shutdownOTel, err := observability.InitOTel(ctx, observability.ObsConfig{
		ServiceName:    "llmobs-collector",
		ServiceVersion: version.Version,
		Environment:    "production",
		OTLPEndpoint:   os.Getenv("LLMOBS_OTLP_ENDPOINT"),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("otel disabled: failed to initialize exporters")
	} else {
		defer shutdownOTel(context.Background())
	}

	metrics := observability.NewMetrics()

	pool, err := storage.OpenPool(ctx, cfg.Pool, cfg.Database.URL)
	if err != nil {
		logger.Error().Err(err).Msg("database unreachable at startup")
		os.Exit(2)
	}
	defer pool.Close()

	writers := storage.NewWriters(pool, cfg.Writer, metrics)
	writers.StartAutoFlush()

	pipeline := buildPipeline(cfg)
	_ = pipeline // wired into the ingest receiver, out of scope here (see SPEC_FULL §6)

	logger.Info().Msg("collector started")
	<-ctx.Done()

	logger.Info().Msg("shutting down")
	if err := writers.Shutdown(context.Background(), shutdownBudget); err != nil {
		logger.Error().Err(err).Msg("error flushing writers during shutdown")
	}
	return nil
}

func buildPipeline(cfg config.Config) *processor.Pipeline {
	pii := processor.NewPIIRedactor(processor.Mask)
	cost := processor.NewCostCalculator(pricing.Default(), true)
	head := processor.NewHeadSampler(cfg.Sampling.HeadRate)
	tail := processor.NewTailSampler().
		WithSlowThresholdMs(cfg.Sampling.SlowThresholdMs).
		WithExpensiveThresholdUSD(cfg.Sampling.ExpensiveThresholdUSD)
	return processor.New(pii, cost, head, tail)
}
