// Package dhl provides integration with the DHL Express API.
package dhl

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	carrierID   = "dhl"
	displayName = "DHL Express"
)

// serviceNames maps DHL product codes to canonical display names. Unknown
// codes echo the raw code as the name.
var serviceNames = map[string]string{
	"P": "DHL Express Worldwide",
	"T": "DHL Express 12:00",
	"K": "DHL Express 9:00",
	"U": "DHL Express Worldwide (EU)",
	"N": "DHL Express Domestic",
	"D": "DHL Express Worldwide (Doc)",
}

// trackingStatuses maps DHL shipment/event status labels to canonical
// statuses.
var trackingStatuses = map[string]carrier.TrackingStatus{
	"pre-transit": carrier.StatusPreTransit,
	"transit":     carrier.StatusInTransit,
	"delivered":   carrier.StatusDelivered,
	"failure":     carrier.StatusFailure,
	"unknown":     carrier.StatusUnknown,
}

// eventStatuses maps DHL event type codes to canonical statuses.
var eventStatuses = map[string]carrier.TrackingStatus{
	"PU": carrier.StatusPickup,
	"PL": carrier.StatusInTransit,
	"DF": carrier.StatusInTransit,
	"AF": carrier.StatusInTransit,
	"WC": carrier.StatusOutForDelivery,
	"OK": carrier.StatusDelivered,
	"OH": carrier.StatusAvailableForPickup,
	"RT": carrier.StatusReturnToSender,
	"CA": carrier.StatusCancelled,
	"UD": carrier.StatusException,
}

// Config holds DHL configuration.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	UseMock   bool
}

// Client is the DHL carrier adapter.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new DHL adapter.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
		})
	}
	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a DHL adapter with a custom API client. A nil
// tracer disables span recording.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Client{config: cfg, apiClient: apiClient, logger: logger, tracer: tracer}
}

// ID returns the carrier id.
func (c *Client) ID() string { return carrierID }

// Name returns the carrier display name.
func (c *Client) Name() string { return displayName }

// Services returns the product codes this adapter quotes.
func (c *Client) Services() []string {
	return []string{"P", "T", "K", "N"}
}

// QuoteRates returns rate quotes from DHL.
func (c *Client) QuoteRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateResponse, error) {
	ctx, span := c.tracer.Start(ctx, "dhl.quote_rates")
	defer span.End()

	c.logger.Info("Getting DHL quotes",
		zap.String("origin_postal", req.Origin.PostalCode),
		zap.String("destination_postal", req.Destination.PostalCode),
		zap.Int("package_count", len(req.Packages)),
	)

	apiReq := &RatesQuery{
		CustomerDetails: CustomerDetails{
			ShipperDetails:  addressToPostal(req.Origin),
			ReceiverDetails: addressToPostal(req.Destination),
		},
		ProductCode:       req.ServiceType,
		Packages:          packagesToWire(req.Packages),
		UnitOfMeasurement: "metric",
	}
	if req.ShipDate != nil {
		apiReq.PlannedShippingDate = req.ShipDate.Format(time.RFC3339)
	}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		c.logger.Error("DHL API error", zap.Error(err))
		return nil, err
	}

	rates := make([]carrier.RateResponse, 0, len(apiResp.Products))
	for _, product := range apiResp.Products {
		rates = append(rates, productToCanonical(product))
	}
	return rates, nil
}

// CreateShipment books a shipment with DHL. Canonical fields only.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResponse, error) {
	c.logger.Info("Creating DHL shipment",
		zap.String("service_code", req.ServiceCode),
		zap.String("reference", req.Reference),
	)

	apiReq := &ShipmentWireRequest{
		ProductCode: req.ServiceCode,
		CustomerDetails: CustomerDetails{
			ShipperDetails:  addressToPostal(req.Origin),
			ReceiverDetails: addressToPostal(req.Destination),
		},
		Packages: packagesToWire(req.Packages),
	}
	if req.Reference != "" {
		apiReq.CustomerReferences = []Reference{{Value: req.Reference, TypeCode: "CU"}}
	}
	if req.ShipDate != nil {
		apiReq.PlannedShippingDate = req.ShipDate.Format(time.RFC3339)
	}

	apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
	if err != nil {
		c.logger.Error("DHL API error", zap.Error(err))
		return nil, err
	}

	out := &carrier.ShipmentResponse{
		CarrierID:      carrierID,
		ShipmentID:     apiResp.ShipmentTrackingNumber,
		TrackingNumber: apiResp.ShipmentTrackingNumber,
		TrackingURL:    apiResp.TrackingURL,
		ServiceName:    mapServiceName(req.ServiceCode),
	}
	for _, doc := range apiResp.Documents {
		if doc.TypeCode == "label" && doc.URL != "" {
			out.LabelURL = doc.URL
			break
		}
	}
	return out, nil
}

// Track retrieves tracking details from DHL.
func (c *Client) Track(ctx context.Context, trackingNumber string) (*carrier.TrackingResponse, error) {
	c.logger.Info("Tracking DHL shipment", zap.String("tracking_number", trackingNumber))

	apiResp, err := c.apiClient.GetTracking(ctx, trackingNumber)
	if err != nil {
		c.logger.Error("DHL API error", zap.Error(err))
		return nil, err
	}

	if len(apiResp.Shipments) == 0 {
		return nil, carrier.ErrTrackingNotFound
	}

	shipment := apiResp.Shipments[0]
	out := &carrier.TrackingResponse{
		CarrierID:      carrierID,
		TrackingNumber: shipment.ShipmentTrackingNumber,
		Status:         mapShipmentStatus(shipment.Status),
	}
	if shipment.EstimatedDeliveryDate != "" {
		if t, err := time.Parse("2006-01-02", shipment.EstimatedDeliveryDate); err == nil {
			out.EstimatedDelivery = &t
		}
	}
	for _, ev := range shipment.Events {
		out.Events = append(out.Events, carrier.TrackingEvent{
			Timestamp:   parseEventTime(ev.Date, ev.Time),
			Status:      mapEventStatus(ev.TypeCode),
			Description: ev.Description,
			Location:    firstServiceArea(ev.ServiceArea),
		})
	}
	return out, nil
}

// ValidateAddress checks delivery serviceability with DHL.
func (c *Client) ValidateAddress(ctx context.Context, addr *carrier.Address) (*carrier.AddressValidation, error) {
	apiReq := &AddressQuery{
		Type:        "delivery",
		PostalCode:  addr.PostalCode,
		CityName:    addr.City,
		CountryCode: addr.CountryCode,
	}

	apiResp, err := c.apiClient.ValidateAddress(ctx, apiReq)
	if err != nil {
		c.logger.Error("DHL API error", zap.Error(err))
		return nil, err
	}

	if len(apiResp.Address) == 0 {
		return &carrier.AddressValidation{Valid: false, Messages: apiResp.Warnings}, nil
	}

	validated := apiResp.Address[0]
	normalized := *addr
	normalized.PostalCode = validated.PostalCode
	normalized.City = validated.CityName
	normalized.CountryCode = validated.CountryCode

	return &carrier.AddressValidation{
		Valid:      true,
		Normalized: &normalized,
		Messages:   apiResp.Warnings,
	}, nil
}

// CancelShipment cancels a shipment with DHL.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) (*carrier.CancelResult, error) {
	c.logger.Info("Cancelling DHL shipment", zap.String("shipment_id", shipmentID))

	apiResp, err := c.apiClient.CancelShipment(ctx, shipmentID)
	if err != nil {
		c.logger.Error("DHL API error", zap.Error(err))
		return nil, err
	}
	return &carrier.CancelResult{
		ShipmentID: shipmentID,
		Cancelled:  apiResp.Status == "cancelled",
		Message:    apiResp.Message,
	}, nil
}

// ============================================================================
// Conversion helpers
// ============================================================================

func addressToPostal(a carrier.Address) PostalAddress {
	return PostalAddress{
		PostalCode:   a.PostalCode,
		CityName:     a.City,
		CountryCode:  a.CountryCode,
		AddressLine1: a.Line1,
		AddressLine2: a.Line2,
		ProvinceCode: a.State,
	}
}

// packagesToWire converts canonical packages into metric measurements.
func packagesToWire(pkgs []carrier.PackageDetails) []WirePackage {
	result := make([]WirePackage, len(pkgs))
	for i, p := range pkgs {
		wp := WirePackage{
			Weight: carrier.ConvertWeight(p.Weight.Value, p.Weight.Unit, carrier.WeightKG),
		}
		if p.Dimensions != nil {
			wp.Dimensions = WireDimensions{
				Length: carrier.ConvertDimension(p.Dimensions.Length, p.Dimensions.Unit, carrier.DimensionCM),
				Width:  carrier.ConvertDimension(p.Dimensions.Width, p.Dimensions.Unit, carrier.DimensionCM),
				Height: carrier.ConvertDimension(p.Dimensions.Height, p.Dimensions.Unit, carrier.DimensionCM),
			}
		}
		result[i] = wp
	}
	return result
}

func productToCanonical(product Product) carrier.RateResponse {
	rate := carrier.RateResponse{
		CarrierID:   carrierID,
		CarrierName: displayName,
		ServiceCode: product.ProductCode,
		ServiceName: mapServiceName(product.ProductCode),
	}

	// BILLC is the billing-currency entry
	for _, price := range product.TotalPrice {
		if price.CurrencyType == "BILLC" || rate.Currency == "" {
			rate.TotalAmount = price.Price
			rate.Currency = price.PriceCurrency
		}
	}

	for _, pb := range product.TotalPriceBreakdown {
		for _, item := range pb.Breakdown {
			switch item.TypeCode {
			case "SPRQT":
				rate.Breakdown.Base = item.Price
			case "STTXA":
				rate.Breakdown.Tax = item.Price
			case "SCH":
				rate.Breakdown.Fees = item.Price
			}
		}
	}

	if dc := product.DeliveryCapabilities; dc != nil {
		if dc.EstimatedDeliveryDateAndTime != "" {
			if t, err := time.Parse(time.RFC3339, dc.EstimatedDeliveryDateAndTime); err == nil {
				rate.EstimatedDelivery = &t
			}
		}
		if days, err := strconv.Atoi(dc.TotalTransitDays); err == nil && days > 0 {
			rate.EstimatedDays = days
			if rate.EstimatedDelivery == nil {
				eta := time.Now().AddDate(0, 0, days)
				rate.EstimatedDelivery = &eta
			}
		}
	}
	return rate
}

func parseEventTime(date, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", date+" "+clock)
	if err != nil {
		t, _ = time.Parse("2006-01-02", date)
	}
	return t
}

func firstServiceArea(areas []ServiceArea) string {
	if len(areas) == 0 {
		return ""
	}
	return areas[0].Description
}

func mapServiceName(code string) string {
	if name, ok := serviceNames[code]; ok {
		return name
	}
	return code
}

func mapShipmentStatus(status string) carrier.TrackingStatus {
	if s, ok := trackingStatuses[strings.ToLower(strings.TrimSpace(status))]; ok {
		return s
	}
	return carrier.StatusUnknown
}

func mapEventStatus(typeCode string) carrier.TrackingStatus {
	if s, ok := eventStatuses[typeCode]; ok {
		return s
	}
	return carrier.StatusUnknown
}

// Ensure Client implements the carrier contract.
var _ carrier.Carrier = (*Client)(nil)
