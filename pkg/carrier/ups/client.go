// Package ups provides integration with the UPS JSON APIs.
package ups

import (
	"context"
	"strconv"
	"time"

	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	carrierID   = "ups"
	displayName = "UPS"
)

// serviceNames maps UPS service codes to canonical display names. Unknown
// codes echo the raw code as the name.
var serviceNames = map[string]string{
	"01": "UPS Next Day Air",
	"02": "UPS 2nd Day Air",
	"03": "UPS Ground",
	"07": "UPS Worldwide Express",
	"08": "UPS Worldwide Expedited",
	"11": "UPS Standard",
	"12": "UPS 3 Day Select",
	"13": "UPS Next Day Air Saver",
	"14": "UPS Next Day Air Early",
	"65": "UPS Worldwide Saver",
}

// trackingStatuses maps UPS activity status types to canonical statuses.
var trackingStatuses = map[string]carrier.TrackingStatus{
	"M":  carrier.StatusManifest,
	"P":  carrier.StatusPickup,
	"I":  carrier.StatusInTransit,
	"O":  carrier.StatusOutForDelivery,
	"D":  carrier.StatusDelivered,
	"X":  carrier.StatusException,
	"RS": carrier.StatusReturnToSender,
	"MV": carrier.StatusCancelled, // manifest void
	"NA": carrier.StatusAvailableForPickup,
}

// Config holds UPS configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	AccountID    string
	BaseURL      string
	UseMock      bool
}

// Client is the UPS carrier adapter.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new UPS adapter.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:      cfg.BaseURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		})
	}
	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a UPS adapter with a custom API client. A nil
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

// Services returns the service codes this adapter quotes.
func (c *Client) Services() []string {
	return []string{"01", "02", "03", "12", "13"}
}

// QuoteRates returns rate quotes from UPS.
func (c *Client) QuoteRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateResponse, error) {
	ctx, span := c.tracer.Start(ctx, "ups.quote_rates")
	defer span.End()

	c.logger.Info("Getting UPS quotes",
		zap.String("origin_postal", req.Origin.PostalCode),
		zap.String("destination_postal", req.Destination.PostalCode),
		zap.Int("package_count", len(req.Packages)),
	)

	apiReq := &RateWireRequest{
		RateRequest: RateRequestBody{
			Shipment: WireShipment{
				Shipper:  addressToParty(req.Origin),
				ShipFrom: addressToParty(req.Origin),
				ShipTo:   addressToParty(req.Destination),
				Package:  packagesToWire(req.Packages),
			},
		},
	}
	if req.ServiceType != "" {
		apiReq.RateRequest.Shipment.Service = &WireService{Code: req.ServiceType}
	}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		c.logger.Error("UPS API error", zap.Error(err))
		return nil, err
	}

	rates := make([]carrier.RateResponse, 0, len(apiResp.RateResponse.RatedShipment))
	for _, rs := range apiResp.RateResponse.RatedShipment {
		rates = append(rates, ratedShipmentToCanonical(rs))
	}
	return rates, nil
}

// CreateShipment books a shipment with UPS. Canonical fields only.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResponse, error) {
	c.logger.Info("Creating UPS shipment",
		zap.String("service_code", req.ServiceCode),
		zap.String("reference", req.Reference),
	)

	apiReq := &ShipWireRequest{
		ShipmentRequest: ShipmentRequestBody{
			Shipment: WireShipment{
				Shipper:  addressToParty(req.Origin),
				ShipFrom: addressToParty(req.Origin),
				ShipTo:   addressToParty(req.Destination),
				Service:  &WireService{Code: req.ServiceCode},
				Package:  packagesToWire(req.Packages),
			},
			ReferenceNumber: req.Reference,
		},
	}

	apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
	if err != nil {
		c.logger.Error("UPS API error", zap.Error(err))
		return nil, err
	}

	results := apiResp.ShipmentResponse.ShipmentResults
	out := &carrier.ShipmentResponse{
		CarrierID:   carrierID,
		ShipmentID:  results.ShipmentIdentificationNumber,
		ServiceName: mapServiceName(req.ServiceCode),
	}
	if len(results.PackageResults) > 0 {
		out.TrackingNumber = results.PackageResults[0].TrackingNumber
		out.LabelURL = results.PackageResults[0].LabelURL
	}
	if results.ShipmentCharges != nil {
		out.TotalCharged = parseMonetary(results.ShipmentCharges.TotalCharges.MonetaryValue)
		out.Currency = results.ShipmentCharges.TotalCharges.CurrencyCode
	}
	return out, nil
}

// Track retrieves tracking details from UPS.
func (c *Client) Track(ctx context.Context, trackingNumber string) (*carrier.TrackingResponse, error) {
	c.logger.Info("Tracking UPS shipment", zap.String("tracking_number", trackingNumber))

	apiResp, err := c.apiClient.GetTracking(ctx, trackingNumber)
	if err != nil {
		c.logger.Error("UPS API error", zap.Error(err))
		return nil, err
	}

	if len(apiResp.TrackResponse.Shipment) == 0 || len(apiResp.TrackResponse.Shipment[0].Package) == 0 {
		return nil, carrier.ErrTrackingNotFound
	}

	pkg := apiResp.TrackResponse.Shipment[0].Package[0]
	out := &carrier.TrackingResponse{
		CarrierID:      carrierID,
		TrackingNumber: pkg.TrackingNumber,
		Status:         carrier.StatusUnknown,
	}

	// Activities arrive most recent first; the first one carries the
	// current status.
	for i, act := range pkg.Activity {
		status := mapTrackingStatus(act.Status.Type)
		if i == 0 {
			out.Status = status
		}
		out.Events = append(out.Events, carrier.TrackingEvent{
			Timestamp:   parseActivityTime(act.Date, act.Time),
			Status:      status,
			Description: act.Status.Description,
			Location:    formatActivityLocation(act.Location),
		})
	}

	for _, dd := range pkg.DeliveryDate {
		if dd.Type == "SDD" || dd.Type == "RDD" {
			if t, err := time.Parse("20060102", dd.Date); err == nil {
				out.EstimatedDelivery = &t
			}
		}
	}
	return out, nil
}

// ValidateAddress validates an address against the UPS XAV service.
func (c *Client) ValidateAddress(ctx context.Context, addr *carrier.Address) (*carrier.AddressValidation, error) {
	lines := []string{addr.Line1}
	if addr.Line2 != "" {
		lines = append(lines, addr.Line2)
	}
	apiReq := &XAVRequest{
		XAVRequestBody: XAVRequestBody{
			AddressKeyFormat: AddressKeyFormat{
				ConsigneeName:      addr.Name,
				AddressLine:        lines,
				PoliticalDivision2: addr.City,
				PoliticalDivision1: addr.State,
				PostcodePrimaryLow: addr.PostalCode,
				CountryCode:        addr.CountryCode,
			},
		},
	}

	apiResp, err := c.apiClient.ValidateAddress(ctx, apiReq)
	if err != nil {
		c.logger.Error("UPS API error", zap.Error(err))
		return nil, err
	}

	valid := apiResp.XAVResponseBody.ValidAddressIndicator != nil
	result := &carrier.AddressValidation{Valid: valid}
	if len(apiResp.XAVResponseBody.Candidate) > 0 {
		akf := apiResp.XAVResponseBody.Candidate[0].AddressKeyFormat
		normalized := *addr
		if len(akf.AddressLine) > 0 {
			normalized.Line1 = akf.AddressLine[0]
		}
		normalized.City = akf.PoliticalDivision2
		normalized.State = akf.PoliticalDivision1
		normalized.PostalCode = akf.PostcodePrimaryLow
		normalized.CountryCode = akf.CountryCode
		result.Normalized = &normalized
	}
	if !valid {
		result.Messages = append(result.Messages, "address could not be validated")
	}
	return result, nil
}

// CancelShipment voids a shipment with UPS.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) (*carrier.CancelResult, error) {
	c.logger.Info("Voiding UPS shipment", zap.String("shipment_id", shipmentID))

	apiResp, err := c.apiClient.CancelShipment(ctx, shipmentID)
	if err != nil {
		c.logger.Error("UPS API error", zap.Error(err))
		return nil, err
	}

	status := apiResp.VoidShipmentResponse.SummaryResult.Status
	return &carrier.CancelResult{
		ShipmentID: shipmentID,
		Cancelled:  status.Code == "1",
		Message:    status.Description,
	}, nil
}

// ============================================================================
// Conversion helpers
// ============================================================================

func addressToParty(a carrier.Address) WireParty {
	lines := []string{a.Line1}
	if a.Line2 != "" {
		lines = append(lines, a.Line2)
	}
	party := WireParty{
		Name: a.Name,
		Address: WireAddress{
			AddressLine:       lines,
			City:              a.City,
			StateProvinceCode: a.State,
			PostalCode:        a.PostalCode,
			CountryCode:       a.CountryCode,
		},
	}
	if a.Phone != "" {
		party.Phone = &WirePhone{Number: a.Phone}
	}
	if a.IsResidential {
		party.Address.ResidentialAddressIndicator = "Y"
	}
	return party
}

// packagesToWire converts canonical packages, normalizing weight to LBS and
// dimensions to IN; UPS wants measurements as strings.
func packagesToWire(pkgs []carrier.PackageDetails) []WirePackage {
	result := make([]WirePackage, len(pkgs))
	for i, p := range pkgs {
		lb := carrier.ConvertWeight(p.Weight.Value, p.Weight.Unit, carrier.WeightLB)
		wp := WirePackage{
			PackagingType: WireService{Code: "02"}, // customer supplied package
			PackageWeight: WireWeight{
				UnitOfMeasurement: WireService{Code: "LBS"},
				Weight:            strconv.FormatFloat(lb, 'f', 2, 64),
			},
		}
		if p.Dimensions != nil {
			wp.Dimensions = &WireDimension{
				UnitOfMeasurement: WireService{Code: "IN"},
				Length:            strconv.FormatFloat(carrier.ConvertDimension(p.Dimensions.Length, p.Dimensions.Unit, carrier.DimensionIN), 'f', 2, 64),
				Width:             strconv.FormatFloat(carrier.ConvertDimension(p.Dimensions.Width, p.Dimensions.Unit, carrier.DimensionIN), 'f', 2, 64),
				Height:            strconv.FormatFloat(carrier.ConvertDimension(p.Dimensions.Height, p.Dimensions.Unit, carrier.DimensionIN), 'f', 2, 64),
			}
		}
		result[i] = wp
	}
	return result
}

func ratedShipmentToCanonical(rs RatedShipment) carrier.RateResponse {
	var taxes float64
	for _, tc := range rs.TaxCharges {
		taxes += parseMonetary(tc.MonetaryValue)
	}
	var fees float64
	if rs.ServiceOptionsCharges != nil {
		fees = parseMonetary(rs.ServiceOptionsCharges.MonetaryValue)
	}

	rate := carrier.RateResponse{
		CarrierID:   carrierID,
		CarrierName: displayName,
		ServiceCode: rs.Service.Code,
		ServiceName: mapServiceName(rs.Service.Code),
		TotalAmount: parseMonetary(rs.TotalCharges.MonetaryValue),
		Currency:    rs.TotalCharges.CurrencyCode,
		Breakdown: carrier.RateBreakdown{
			Base: parseMonetary(rs.TransportationCharges.MonetaryValue),
			Tax:  taxes,
			Fees: fees,
		},
	}

	if gd := rs.GuaranteedDelivery; gd != nil {
		if gd.ScheduledDeliveryDate != "" {
			if t, err := time.Parse("2006-01-02", gd.ScheduledDeliveryDate); err == nil {
				rate.EstimatedDelivery = &t
			}
		}
		if days, err := strconv.Atoi(gd.BusinessDaysInTransit); err == nil && days > 0 {
			rate.EstimatedDays = days
			if rate.EstimatedDelivery == nil {
				eta := time.Now().AddDate(0, 0, days)
				rate.EstimatedDelivery = &eta
			}
		}
	}
	return rate
}

func parseMonetary(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseActivityTime(date, clock string) time.Time {
	t, err := time.Parse("20060102 150405", date+" "+clock)
	if err != nil {
		t, _ = time.Parse("20060102", date)
	}
	return t
}

func formatActivityLocation(loc ActivityLocation) string {
	if loc.Address.City == "" {
		return ""
	}
	if loc.Address.StateProvince == "" {
		return loc.Address.City
	}
	return loc.Address.City + ", " + loc.Address.StateProvince
}

func mapServiceName(code string) string {
	if name, ok := serviceNames[code]; ok {
		return name
	}
	return code
}

func mapTrackingStatus(code string) carrier.TrackingStatus {
	if status, ok := trackingStatuses[code]; ok {
		return status
	}
	return carrier.StatusUnknown
}

// Ensure Client implements the carrier contract.
var _ carrier.Carrier = (*Client)(nil)
