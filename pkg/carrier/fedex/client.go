// Package fedex provides integration with the FedEx REST APIs.
package fedex

import (
	"context"
	"time"

	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	carrierID   = "fedex"
	displayName = "FedEx"
)

// serviceNames maps FedEx service types to canonical display names.
// Unknown codes echo the raw code as the name.
var serviceNames = map[string]string{
	"FEDEX_GROUND":           "FedEx Ground",
	"GROUND_HOME_DELIVERY":   "FedEx Home Delivery",
	"FEDEX_EXPRESS_SAVER":    "FedEx Express Saver",
	"FEDEX_2_DAY":            "FedEx 2Day",
	"FEDEX_2_DAY_AM":         "FedEx 2Day AM",
	"STANDARD_OVERNIGHT":     "FedEx Standard Overnight",
	"PRIORITY_OVERNIGHT":     "FedEx Priority Overnight",
	"FIRST_OVERNIGHT":        "FedEx First Overnight",
	"INTERNATIONAL_ECONOMY":  "FedEx International Economy",
	"INTERNATIONAL_PRIORITY": "FedEx International Priority",
}

// transitDays maps FedEx coarse transit-time tokens to day counts.
var transitDays = map[string]int{
	"ONE_DAY":    1,
	"TWO_DAYS":   2,
	"THREE_DAYS": 3,
	"FOUR_DAYS":  4,
	"FIVE_DAYS":  5,
	"SIX_DAYS":   6,
	"SEVEN_DAYS": 7,
	"EIGHT_DAYS": 8,
	"NINE_DAYS":  9,
	"TEN_DAYS":   10,
}

// trackingStatuses maps FedEx derived status codes to canonical statuses.
var trackingStatuses = map[string]carrier.TrackingStatus{
	"OC": carrier.StatusPreTransit, // order created
	"PU": carrier.StatusPickup,
	"IT": carrier.StatusInTransit,
	"IX": carrier.StatusInTransit,
	"OD": carrier.StatusOutForDelivery,
	"DL": carrier.StatusDelivered,
	"HL": carrier.StatusAvailableForPickup, // hold at location
	"RS": carrier.StatusReturnToSender,
	"DE": carrier.StatusException,
	"CA": carrier.StatusCancelled,
	"SE": carrier.StatusError,
	"MF": carrier.StatusManifest,
}

// Config holds FedEx configuration.
type Config struct {
	ClientID      string
	ClientSecret  string
	AccountNumber string
	BaseURL       string
	UseMock       bool
}

// Client is the FedEx carrier adapter. It implements carrier.Carrier and
// delegates wire calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new FedEx adapter. If cfg.UseMock is true the adapter uses
// a mock API client instead of the real HTTP client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:       cfg.BaseURL,
			ClientID:      cfg.ClientID,
			ClientSecret:  cfg.ClientSecret,
			AccountNumber: cfg.AccountNumber,
		})
	}
	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates an adapter with a custom API client, mainly for
// injecting mocks in tests. A nil tracer disables span recording.
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
	return []string{"FEDEX_GROUND", "FEDEX_EXPRESS_SAVER", "FEDEX_2_DAY", "STANDARD_OVERNIGHT", "PRIORITY_OVERNIGHT"}
}

// QuoteRates returns rate quotes from FedEx.
func (c *Client) QuoteRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateResponse, error) {
	ctx, span := c.tracer.Start(ctx, "fedex.quote_rates")
	defer span.End()

	c.logger.Info("Getting FedEx quotes",
		zap.String("origin_postal", req.Origin.PostalCode),
		zap.String("destination_postal", req.Destination.PostalCode),
		zap.Int("package_count", len(req.Packages)),
	)

	apiReq := &RatesRequest{
		AccountNumber: AccountNumber{Value: c.config.AccountNumber},
		RequestedShipment: RequestedShipment{
			Shipper:               addressToParty(req.Origin),
			Recipient:             addressToParty(req.Destination),
			ServiceType:           req.ServiceType,
			PickupType:            "DROPOFF_AT_FEDEX_LOCATION",
			RateRequestType:       []string{"ACCOUNT"},
			RequestedPackageItems: packagesToWire(req.Packages),
		},
	}
	if req.ShipDate != nil {
		apiReq.RequestedShipment.ShipDateStamp = req.ShipDate.Format("2006-01-02")
	}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		c.logger.Error("FedEx API error", zap.Error(err))
		return nil, err
	}

	rates := make([]carrier.RateResponse, 0, len(apiResp.Output.RateReplyDetails))
	for _, detail := range apiResp.Output.RateReplyDetails {
		if len(detail.RatedShipmentDetails) == 0 {
			continue
		}
		rates = append(rates, rateDetailToCanonical(detail))
	}
	return rates, nil
}

// CreateShipment books a shipment with FedEx. Only the canonical fields are
// mapped; carrier-specific payload enrichment is not modeled here.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResponse, error) {
	c.logger.Info("Creating FedEx shipment",
		zap.String("service_code", req.ServiceCode),
		zap.String("reference", req.Reference),
	)

	apiReq := &ShipmentRequest{
		AccountNumber: AccountNumber{Value: c.config.AccountNumber},
		RequestedShipment: RequestedShipment{
			Shipper:               addressToParty(req.Origin),
			Recipient:             addressToParty(req.Destination),
			ServiceType:           req.ServiceCode,
			PickupType:            "DROPOFF_AT_FEDEX_LOCATION",
			RequestedPackageItems: packagesToWire(req.Packages),
		},
		Reference: req.Reference,
	}

	apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
	if err != nil {
		c.logger.Error("FedEx API error", zap.Error(err))
		return nil, err
	}

	out := &carrier.ShipmentResponse{CarrierID: carrierID}
	if len(apiResp.Output.TransactionShipments) > 0 {
		ts := apiResp.Output.TransactionShipments[0]
		out.ShipmentID = ts.MasterTrackingNumber
		out.TrackingNumber = ts.MasterTrackingNumber
		out.ServiceName = ts.ServiceName
		out.LabelURL = ts.LabelURL
		if ts.DeliveryDatestamp != "" {
			if t, err := time.Parse("2006-01-02", ts.DeliveryDatestamp); err == nil {
				out.EstimatedDelivery = &t
			}
		}
	}
	return out, nil
}

// Track retrieves tracking details from FedEx.
func (c *Client) Track(ctx context.Context, trackingNumber string) (*carrier.TrackingResponse, error) {
	c.logger.Info("Tracking FedEx shipment", zap.String("tracking_number", trackingNumber))

	apiResp, err := c.apiClient.GetTracking(ctx, trackingNumber)
	if err != nil {
		c.logger.Error("FedEx API error", zap.Error(err))
		return nil, err
	}

	out := &carrier.TrackingResponse{
		CarrierID:      carrierID,
		TrackingNumber: trackingNumber,
		Status:         carrier.StatusUnknown,
	}
	if len(apiResp.Output.CompleteTrackResults) == 0 || len(apiResp.Output.CompleteTrackResults[0].TrackResults) == 0 {
		return nil, carrier.ErrTrackingNotFound
	}

	result := apiResp.Output.CompleteTrackResults[0].TrackResults[0]
	out.Status = mapTrackingStatus(result.LatestStatusDetail.Code)
	for _, ev := range result.ScanEvents {
		ts, _ := time.Parse(time.RFC3339, ev.Date)
		out.Events = append(out.Events, carrier.TrackingEvent{
			Timestamp:   ts,
			Status:      mapTrackingStatus(ev.DerivedStatusCode),
			Description: ev.EventDescription,
			Location:    formatScanLocation(ev.ScanLocation),
		})
	}
	return out, nil
}

// ValidateAddress resolves an address against the FedEx address service.
func (c *Client) ValidateAddress(ctx context.Context, addr *carrier.Address) (*carrier.AddressValidation, error) {
	apiReq := &AddressRequest{
		AddressesToValidate: []AddressToValidate{{Address: addressToWire(*addr)}},
	}

	apiResp, err := c.apiClient.ValidateAddress(ctx, apiReq)
	if err != nil {
		c.logger.Error("FedEx API error", zap.Error(err))
		return nil, err
	}

	if len(apiResp.Output.ResolvedAddresses) == 0 {
		return &carrier.AddressValidation{Valid: false, Messages: []string{"address could not be resolved"}}, nil
	}

	resolved := apiResp.Output.ResolvedAddresses[0]
	normalized := *addr
	if len(resolved.StreetLinesToken) > 0 {
		normalized.Line1 = resolved.StreetLinesToken[0]
	}
	normalized.City = resolved.City
	normalized.State = resolved.StateOrProvinceCode
	normalized.PostalCode = resolved.PostalCode
	normalized.CountryCode = resolved.CountryCode

	return &carrier.AddressValidation{
		Valid:      resolved.State == "MATCHED",
		Normalized: &normalized,
	}, nil
}

// CancelShipment voids a shipment with FedEx.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) (*carrier.CancelResult, error) {
	c.logger.Info("Cancelling FedEx shipment", zap.String("shipment_id", shipmentID))

	apiResp, err := c.apiClient.CancelShipment(ctx, shipmentID)
	if err != nil {
		c.logger.Error("FedEx API error", zap.Error(err))
		return nil, err
	}
	return &carrier.CancelResult{
		ShipmentID: shipmentID,
		Cancelled:  apiResp.Output.CancelledShipment,
		Message:    apiResp.Output.Message,
	}, nil
}

// ============================================================================
// Conversion helpers: canonical models -> wire models
// ============================================================================

func addressToWire(a carrier.Address) WireAddress {
	streetLines := []string{a.Line1}
	if a.Line2 != "" {
		streetLines = append(streetLines, a.Line2)
	}
	return WireAddress{
		StreetLines:         streetLines,
		City:                a.City,
		StateOrProvinceCode: a.State,
		PostalCode:          a.PostalCode,
		CountryCode:         a.CountryCode,
		Residential:         a.IsResidential,
	}
}

func addressToParty(a carrier.Address) Party {
	return Party{
		Contact: WireContact{PersonName: a.Name, PhoneNumber: a.Phone, EmailAddress: a.Email},
		Address: addressToWire(a),
	}
}

// packagesToWire converts canonical packages, normalizing weight to LB and
// dimensions to IN as FedEx requires.
func packagesToWire(pkgs []carrier.PackageDetails) []RequestedPackage {
	result := make([]RequestedPackage, len(pkgs))
	for i, p := range pkgs {
		item := RequestedPackage{
			Weight: WireWeight{
				Units: "LB",
				Value: carrier.ConvertWeight(p.Weight.Value, p.Weight.Unit, carrier.WeightLB),
			},
		}
		if p.Dimensions != nil {
			item.Dimensions = &WireDimensions{
				Length: carrier.ConvertDimension(p.Dimensions.Length, p.Dimensions.Unit, carrier.DimensionIN),
				Width:  carrier.ConvertDimension(p.Dimensions.Width, p.Dimensions.Unit, carrier.DimensionIN),
				Height: carrier.ConvertDimension(p.Dimensions.Height, p.Dimensions.Unit, carrier.DimensionIN),
				Units:  "IN",
			}
		}
		result[i] = item
	}
	return result
}

// ============================================================================
// Conversion helpers: wire models -> canonical models
// ============================================================================

func rateDetailToCanonical(detail RateReplyDetail) carrier.RateResponse {
	rated := detail.RatedShipmentDetails[0]

	rate := carrier.RateResponse{
		CarrierID:   carrierID,
		CarrierName: displayName,
		ServiceCode: detail.ServiceType,
		ServiceName: mapServiceName(detail.ServiceType),
		TotalAmount: rated.TotalNetCharge,
		Currency:    rated.CurrencyCode,
		Breakdown: carrier.RateBreakdown{
			Base: rated.TotalBaseCharge,
			Tax:  rated.TotalTaxes,
			Fees: rated.TotalSurcharges,
		},
	}

	if detail.Commit != nil {
		days, eta := parseCommit(detail.Commit)
		rate.EstimatedDays = days
		rate.EstimatedDelivery = eta
	}
	return rate
}

// parseCommit extracts transit days and delivery date from a commitment.
// An explicit delivery timestamp wins; otherwise the coarse transit-time
// token yields a day count and the date is computed from now.
func parseCommit(commit *CommitDetail) (int, *time.Time) {
	if commit.DateDetail != nil && commit.DateDetail.DayFormat != "" {
		if t, err := time.Parse(time.RFC3339, commit.DateDetail.DayFormat); err == nil {
			days := int(time.Until(t).Hours() / 24)
			if days < 0 {
				days = 0
			}
			return days, &t
		}
	}
	if days, ok := transitDays[commit.TransitTime]; ok {
		eta := time.Now().AddDate(0, 0, days)
		return days, &eta
	}
	return 0, nil
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

func formatScanLocation(loc ScanLocation) string {
	if loc.City == "" {
		return ""
	}
	if loc.StateOrProvinceCode == "" {
		return loc.City
	}
	return loc.City + ", " + loc.StateOrProvinceCode
}

// Ensure Client implements the carrier contract.
var _ carrier.Carrier = (*Client)(nil)
