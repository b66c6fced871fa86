package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/parcelforge/shipping/pkg/carrier"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Aggregation
	BestRateCriterion string `envconfig:"BEST_RATE_CRITERION" default:"price"`
	CarrierTimeoutSec int    `envconfig:"CARRIER_TIMEOUT_SECONDS" default:"30"`
	QuoteBudgetSec    int    `envconfig:"QUOTE_BUDGET_SECONDS" default:"60"`

	// Default shipment origin, used when a quote request omits one.
	OriginName       string `envconfig:"ORIGIN_NAME"`
	OriginLine1      string `envconfig:"ORIGIN_LINE1"`
	OriginLine2      string `envconfig:"ORIGIN_LINE2"`
	OriginCity       string `envconfig:"ORIGIN_CITY"`
	OriginState      string `envconfig:"ORIGIN_STATE"`
	OriginPostalCode string `envconfig:"ORIGIN_POSTAL_CODE"`
	OriginCountry    string `envconfig:"ORIGIN_COUNTRY_CODE"`
	OriginPhone      string `envconfig:"ORIGIN_PHONE"`

	// FedEx
	FedExClientID     string `envconfig:"FEDEX_CLIENT_ID"`
	FedExClientSecret string `envconfig:"FEDEX_CLIENT_SECRET"`
	FedExAccountNum   string `envconfig:"FEDEX_ACCOUNT_NUMBER"`
	FedExBaseURL      string `envconfig:"FEDEX_BASE_URL" default:"https://apis.fedex.com"`
	FedExEnabled      bool   `envconfig:"FEDEX_ENABLED" default:"true"`
	FedExUseMock      bool   `envconfig:"FEDEX_USE_MOCK" default:"false"`

	// UPS
	UPSClientID     string `envconfig:"UPS_CLIENT_ID"`
	UPSClientSecret string `envconfig:"UPS_CLIENT_SECRET"`
	UPSAccountID    string `envconfig:"UPS_ACCOUNT_ID"`
	UPSBaseURL      string `envconfig:"UPS_BASE_URL" default:"https://onlinetools.ups.com"`
	UPSEnabled      bool   `envconfig:"UPS_ENABLED" default:"true"`
	UPSUseMock      bool   `envconfig:"UPS_USE_MOCK" default:"false"`

	// DHL Express
	DHLAPIKey    string `envconfig:"DHL_API_KEY"`
	DHLAPISecret string `envconfig:"DHL_API_SECRET"`
	DHLBaseURL   string `envconfig:"DHL_BASE_URL" default:"https://express.api.dhl.com/mydhlapi"`
	DHLEnabled   bool   `envconfig:"DHL_ENABLED" default:"true"`
	DHLUseMock   bool   `envconfig:"DHL_USE_MOCK" default:"false"`

	// Internal rates database. Empty disables the zone resolver endpoints.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"parcelforge-shipping"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// OriginAddress returns the configured default shipment origin. Zero when
// no origin variables are set.
func (c *Config) OriginAddress() carrier.Address {
	return carrier.Address{
		Name:        c.OriginName,
		Line1:       c.OriginLine1,
		Line2:       c.OriginLine2,
		City:        c.OriginCity,
		State:       c.OriginState,
		PostalCode:  c.OriginPostalCode,
		CountryCode: c.OriginCountry,
		Phone:       c.OriginPhone,
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("fedex.enabled", c.FedExEnabled),
		attribute.Bool("ups.enabled", c.UPSEnabled),
		attribute.Bool("dhl.enabled", c.DHLEnabled),
	}
}
