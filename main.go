package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parcelforge/shipping/internal/rates"
	"github.com/parcelforge/shipping/internal/server"
	"github.com/parcelforge/shipping/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "shipping",
	Short:   "ParcelForge Shipping - Multi-carrier rate resolution service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	metrics := telemetry.NewMetrics()

	// Initialize carrier registry with all configured carriers
	registry := initCarrierRegistry(cfg, logger)

	// Internal rates are optional; without a database the endpoints answer 503
	store, storeClose, err := initZoneStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if storeClose != nil {
		defer storeClose()
	}

	logger.Info("Starting ParcelForge Shipping",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Int("carriers", registry.Count()),
		zap.Bool("internal_rates", store != nil),
	)

	// Start HTTP server
	srv := server.New(server.Config{
		Port:             cfg.Port,
		DefaultCriterion: rates.Criterion(cfg.BestRateCriterion),
		DefaultOrigin:    cfg.OriginAddress(),
		Aggregation: rates.Config{
			PerCarrierTimeout: time.Duration(cfg.CarrierTimeoutSec) * time.Second,
			OverallBudget:     time.Duration(cfg.QuoteBudgetSec) * time.Second,
		},
	}, registry, store, metrics, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
