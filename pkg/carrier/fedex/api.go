package fedex

import (
	"context"
)

// APIClient defines the interface for FedEx API operations. The abstraction
// allows mock implementations during testing and the real HTTP client in
// production.
type APIClient interface {
	// GetRates fetches rate quotes.
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)

	// CreateShipment books a shipment.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)

	// GetTracking retrieves tracking details for a tracking number.
	GetTracking(ctx context.Context, trackingNumber string) (*TrackingReply, error)

	// ValidateAddress resolves an address against the FedEx address service.
	ValidateAddress(ctx context.Context, req *AddressRequest) (*AddressReply, error)

	// CancelShipment voids a shipment.
	CancelShipment(ctx context.Context, shipmentID string) (*CancelReply, error)
}

// ============================================================================
// Wire types (FedEx REST API shapes)
// ============================================================================

// RatesRequest is the body of POST /rate/v1/rates/quotes.
type RatesRequest struct {
	AccountNumber     AccountNumber     `json:"accountNumber"`
	RequestedShipment RequestedShipment `json:"requestedShipment"`
}

// AccountNumber wraps the FedEx account number.
type AccountNumber struct {
	Value string `json:"value"`
}

// RequestedShipment describes the shipment to be rated or created.
type RequestedShipment struct {
	Shipper               Party              `json:"shipper"`
	Recipient             Party              `json:"recipient"`
	ShipDateStamp         string             `json:"shipDateStamp,omitempty"` // YYYY-MM-DD
	ServiceType           string             `json:"serviceType,omitempty"`
	PickupType            string             `json:"pickupType"`
	RateRequestType       []string           `json:"rateRequestType,omitempty"`
	RequestedPackageItems []RequestedPackage `json:"requestedPackageLineItems"`
}

// Party is a shipper or recipient.
type Party struct {
	Contact WireContact `json:"contact"`
	Address WireAddress `json:"address"`
}

// WireContact carries contact fields.
type WireContact struct {
	PersonName   string `json:"personName,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// WireAddress is the FedEx address shape.
type WireAddress struct {
	StreetLines         []string `json:"streetLines"`
	City                string   `json:"city"`
	StateOrProvinceCode string   `json:"stateOrProvinceCode"`
	PostalCode          string   `json:"postalCode"`
	CountryCode         string   `json:"countryCode"`
	Residential         bool     `json:"residential,omitempty"`
}

// RequestedPackage is one package line item.
type RequestedPackage struct {
	Weight     WireWeight      `json:"weight"`
	Dimensions *WireDimensions `json:"dimensions,omitempty"`
}

// WireWeight is weight with FedEx units (LB or KG).
type WireWeight struct {
	Units string  `json:"units"`
	Value float64 `json:"value"`
}

// WireDimensions are dimensions with FedEx units (IN or CM).
type WireDimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Units  string  `json:"units"`
}

// RatesResponse is the body returned by the quotes endpoint.
type RatesResponse struct {
	Output RatesOutput `json:"output"`
}

// RatesOutput wraps the rate reply list.
type RatesOutput struct {
	RateReplyDetails []RateReplyDetail `json:"rateReplyDetails"`
}

// RateReplyDetail is one quoted service.
type RateReplyDetail struct {
	ServiceType          string               `json:"serviceType"`
	ServiceName          string               `json:"serviceName,omitempty"`
	RatedShipmentDetails []RatedShipmentDetail `json:"ratedShipmentDetails"`
	Commit               *CommitDetail        `json:"commit,omitempty"`
}

// RatedShipmentDetail carries the charge breakdown for one rate type.
type RatedShipmentDetail struct {
	RateType        string  `json:"rateType"`
	TotalNetCharge  float64 `json:"totalNetCharge"`
	TotalBaseCharge float64 `json:"totalBaseCharge"`
	TotalTaxes      float64 `json:"totalTaxes,omitempty"`
	TotalSurcharges float64 `json:"totalSurcharges,omitempty"`
	CurrencyCode    string  `json:"currency"`
}

// CommitDetail carries delivery commitment data.
type CommitDetail struct {
	DateDetail  *CommitDateDetail `json:"dateDetail,omitempty"`
	TransitTime string            `json:"transitTime,omitempty"` // e.g. "TWO_DAYS"
}

// CommitDateDetail is an explicit delivery timestamp.
type CommitDateDetail struct {
	DayFormat string `json:"dayFormat,omitempty"` // RFC3339-ish local timestamp
}

// ShipmentRequest is the body of POST /ship/v1/shipments.
type ShipmentRequest struct {
	AccountNumber     AccountNumber     `json:"accountNumber"`
	RequestedShipment RequestedShipment `json:"requestedShipment"`
	Reference         string            `json:"customerReference,omitempty"`
}

// ShipmentResponse is the result of creating a shipment.
type ShipmentResponse struct {
	Output ShipmentOutput `json:"output"`
}

// ShipmentOutput wraps transaction shipment data.
type ShipmentOutput struct {
	TransactionShipments []TransactionShipment `json:"transactionShipments"`
}

// TransactionShipment is one created shipment.
type TransactionShipment struct {
	MasterTrackingNumber string `json:"masterTrackingNumber"`
	ServiceName          string `json:"serviceName"`
	ShipDatestamp        string `json:"shipDatestamp"`
	DeliveryDatestamp    string `json:"deliveryDatestamp,omitempty"`
	LabelURL             string `json:"labelUrl,omitempty"`
}

// TrackingReply is the body returned by the tracking endpoint.
type TrackingReply struct {
	Output TrackingOutput `json:"output"`
}

// TrackingOutput wraps tracking results.
type TrackingOutput struct {
	CompleteTrackResults []CompleteTrackResult `json:"completeTrackResults"`
}

// CompleteTrackResult groups results for one tracking number.
type CompleteTrackResult struct {
	TrackingNumber string        `json:"trackingNumber"`
	TrackResults   []TrackResult `json:"trackResults"`
}

// TrackResult is one carrier-side tracking record.
type TrackResult struct {
	LatestStatusDetail StatusDetail `json:"latestStatusDetail"`
	ScanEvents         []ScanEvent  `json:"scanEvents"`
	EstimatedDelivery  string       `json:"estimatedDeliveryTimeWindow,omitempty"`
}

// StatusDetail is a coded status with description.
type StatusDetail struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ScanEvent is one scan in the shipment history.
type ScanEvent struct {
	Date             string       `json:"date"` // RFC3339
	EventDescription string       `json:"eventDescription"`
	DerivedStatusCode string      `json:"derivedStatusCode"`
	ScanLocation     ScanLocation `json:"scanLocation"`
}

// ScanLocation is the place a scan happened.
type ScanLocation struct {
	City                string `json:"city"`
	StateOrProvinceCode string `json:"stateOrProvinceCode"`
	CountryCode         string `json:"countryCode"`
}

// AddressRequest is the body of the address resolution endpoint.
type AddressRequest struct {
	AddressesToValidate []AddressToValidate `json:"addressesToValidate"`
}

// AddressToValidate wraps one address.
type AddressToValidate struct {
	Address WireAddress `json:"address"`
}

// AddressReply is the resolution result.
type AddressReply struct {
	Output AddressOutput `json:"output"`
}

// AddressOutput wraps resolved addresses.
type AddressOutput struct {
	ResolvedAddresses []ResolvedAddress `json:"resolvedAddresses"`
}

// ResolvedAddress is one normalized address with its resolution state.
type ResolvedAddress struct {
	StreetLinesToken    []string `json:"streetLinesToken"`
	City                string   `json:"city"`
	StateOrProvinceCode string   `json:"stateOrProvinceCode"`
	PostalCode          string   `json:"postalCode"`
	CountryCode         string   `json:"countryCode"`
	Classification      string   `json:"classification,omitempty"`
	State               string   `json:"attributesState,omitempty"` // "MATCHED", "PARTIAL", ...
}

// CancelReply is the result of voiding a shipment.
type CancelReply struct {
	Output CancelOutput `json:"output"`
}

// CancelOutput carries the cancellation outcome.
type CancelOutput struct {
	CancelledShipment bool   `json:"cancelledShipment"`
	Message           string `json:"message,omitempty"`
}
