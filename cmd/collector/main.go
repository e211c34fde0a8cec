// Command collector runs the swap event collection pipeline: it polls the
// configured upstream sources, normalizes raw records into canonical events
// and publishes them to the broker.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dexrelay-systems/dexrelay/internal/collector"
	"github.com/dexrelay-systems/dexrelay/internal/config"
	"github.com/dexrelay-systems/dexrelay/internal/logging"
	"github.com/dexrelay-systems/dexrelay/internal/metrics"
	"github.com/dexrelay-systems/dexrelay/internal/model"
	"github.com/dexrelay-systems/dexrelay/internal/normalize"
	"github.com/dexrelay-systems/dexrelay/internal/publish"
	"github.com/dexrelay-systems/dexrelay/internal/server"
	"github.com/dexrelay-systems/dexrelay/internal/subgraph"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "collector",
		Short: "DEX swap event collector",
		Long:  "Polls swap events from the configured subgraph sources, normalizes them and publishes canonical events to the broker.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("collector"))
	logging.SetDefault(logger)

	slog.Info("Starting collector",
		slog.String("publisher_backend", cfg.Publisher.Backend),
		slog.String("log_level", cfg.Logging.Level),
	)
	if configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", configPath))
	}

	publisher, err := publish.New(cfg.Publisher.Backend, cfg.NATSPublisherConfig(), cfg.RedisPublisherConfig())
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}

	counters := metrics.New(nil)
	normalizer := normalize.New(logger)

	pollers := []*collector.Poller{
		newPoller(model.VersionV2, cfg.Sources.V2, cfg, normalizer, publisher, counters, logger),
		newPoller(model.VersionV3, cfg.Sources.V3, cfg, normalizer, publisher, counters, logger),
	}

	orch := collector.NewOrchestrator(pollers, publisher, counters, logger)

	// Verify dependencies before starting the loops so a misconfigured broker
	// or endpoint fails fast instead of burning retry budgets.
	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := orch.HealthCheck(startupCtx); err != nil {
		slog.Warn("Dependency check failed at startup, continuing anyway", slog.String("error", err.Error()))
	}
	cancel()

	orch.Start(context.Background())

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      server.NewRouter(server.NewHandler(orch, logger), nil),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced to shutdown", slog.String("error", err.Error()))
	}
	if err := orch.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stop collection: %w", err)
	}

	slog.Info("Collector stopped")
	return nil
}

func newPoller(version model.Version, src config.SourceConfig, cfg *config.Config, normalizer *normalize.Normalizer, publisher publish.Publisher, counters *metrics.Counters, logger *logging.Logger) *collector.Poller {
	client := subgraph.NewClient(src.Timeout, logger)
	source := subgraph.NewSource(client, version, src.URL)

	return collector.NewPoller(source, normalizer, publisher, counters, collector.PollerConfig{
		Interval:  src.PollInterval,
		BatchSize: src.BatchSize,
		Backoff:   cfg.BackoffConfig(),
	}, logger)
}
