package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parcelforge/shipping/internal/config"
	"github.com/parcelforge/shipping/internal/telemetry"
	"github.com/parcelforge/shipping/internal/zones"
	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/parcelforge/shipping/pkg/carrier/dhl"
	"github.com/parcelforge/shipping/pkg/carrier/fedex"
	"github.com/parcelforge/shipping/pkg/carrier/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level, service string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level, service)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

// initCarrierRegistry registers every enabled carrier that has credentials
// (or runs in mock mode). A carrier without credentials is skipped, not an
// error: the service stays up with whatever providers are configured.
func initCarrierRegistry(cfg *config.Config, logger *otelzap.Logger) *carrier.Registry {
	registry := carrier.NewRegistry()
	tracer := otel.GetTracerProvider().Tracer(cfg.ServiceName)

	if cfg.FedExEnabled && (cfg.FedExUseMock || cfg.FedExClientID != "") {
		registry.Register(fedex.New(fedex.Config{
			ClientID:      cfg.FedExClientID,
			ClientSecret:  cfg.FedExClientSecret,
			AccountNumber: cfg.FedExAccountNum,
			BaseURL:       cfg.FedExBaseURL,
			UseMock:       cfg.FedExUseMock,
		}, logger, tracer))
	}

	if cfg.UPSEnabled && (cfg.UPSUseMock || cfg.UPSClientID != "") {
		registry.Register(ups.New(ups.Config{
			ClientID:     cfg.UPSClientID,
			ClientSecret: cfg.UPSClientSecret,
			AccountID:    cfg.UPSAccountID,
			BaseURL:      cfg.UPSBaseURL,
			UseMock:      cfg.UPSUseMock,
		}, logger, tracer))
	}

	if cfg.DHLEnabled && (cfg.DHLUseMock || cfg.DHLAPIKey != "") {
		registry.Register(dhl.New(dhl.Config{
			APIKey:    cfg.DHLAPIKey,
			APISecret: cfg.DHLAPISecret,
			BaseURL:   cfg.DHLBaseURL,
			UseMock:   cfg.DHLUseMock,
		}, logger, tracer))
	}

	if registry.Count() == 0 {
		logger.Warn("No carriers configured; quote endpoints will return empty results")
	}
	return registry
}

// initZoneStore connects the internal-rate store. Returns a nil store when
// no database is configured.
func initZoneStore(ctx context.Context, cfg *config.Config) (zones.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return zones.NewPGStore(pool), pool.Close, nil
}
