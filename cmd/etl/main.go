// Command etl fetches hazard data from upstream feeds and emits it as a GeoJSON
// FeatureCollection.
//
// Usage:
//
//	etl forecast        # avalanche forecast areas styled by danger rating
//	etl tracker         # latest position of every tracked inReach device
//	etl                 # variant taken from VARIANT
//
// Settings come from the environment and an optional .env file.
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

	httpadapter "github.com/couchcryptid/hazard-etl/internal/adapter/http"
	"github.com/couchcryptid/hazard-etl/internal/config"
	"github.com/couchcryptid/hazard-etl/internal/observability"
	"github.com/couchcryptid/hazard-etl/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile string
	once    bool
)

var rootCmd = &cobra.Command{
	Use:   "etl",
	Short: "Publish avalanche forecasts or tracker positions as GeoJSON",
	Long: `Fetch hazard data from its upstream feeds and emit a GeoJSON
FeatureCollection to stdout, a file, Kafka, NATS, or Redis.

With RUN_INTERVAL unset the pipeline runs once and exits non-zero on
failure. With RUN_INTERVAL set it repeats on that interval and serves
/healthz, /readyz, /status, and /metrics on HTTP_ADDR.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return run("")
	},
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Emit avalanche forecast areas styled by worst danger rating",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run(config.VariantForecast)
	},
}

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Emit the latest position of every tracked device",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run(config.VariantTracker)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&once, "once", false, "run a single time even when RUN_INTERVAL is set")
	rootCmd.AddCommand(forecastCmd, trackerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(variant string) error {
	cfg, err := config.LoadVariant(variant)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}
	if once {
		cfg.RunInterval = 0
	}

	logger := observability.NewLogger(cfg).With("variant", cfg.Variant)
	metrics := observability.NewMetrics()

	collector, err := newCollector(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to build collector", "error", err)
		return err
	}
	emitter, err := newEmitter(cfg, logger)
	if err != nil {
		logger.Error("failed to build emitter", "error", err)
		return err
	}
	defer func() {
		if err := emitter.Close(); err != nil {
			logger.Error("emitter close error", "error", err)
		}
	}()

	p := pipeline.New(collector, emitter, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunInterval == 0 {
		if err := p.RunOnce(ctx); err != nil {
			logger.Error("run failed", "error", err)
			return err
		}
		return nil
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.Variant, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := p.Run(ctx, cfg.RunInterval); err != nil {
		logger.Error("pipeline error", "error", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
