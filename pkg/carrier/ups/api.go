package ups

import (
	"context"
)

// APIClient defines the interface for UPS API operations, so tests can swap
// in a mock while production uses the HTTP client.
type APIClient interface {
	GetRates(ctx context.Context, req *RateWireRequest) (*RateWireResponse, error)
	CreateShipment(ctx context.Context, req *ShipWireRequest) (*ShipWireResponse, error)
	GetTracking(ctx context.Context, trackingNumber string) (*TrackWireResponse, error)
	ValidateAddress(ctx context.Context, req *XAVRequest) (*XAVResponse, error)
	CancelShipment(ctx context.Context, shipmentID string) (*VoidWireResponse, error)
}

// ============================================================================
// Wire types (UPS JSON API shapes; monetary values and day counts travel as
// strings on this API)
// ============================================================================

// RateWireRequest is the body of POST /api/rating/{version}/Shop.
type RateWireRequest struct {
	RateRequest RateRequestBody `json:"RateRequest"`
}

// RateRequestBody wraps the shipment to rate.
type RateRequestBody struct {
	Shipment WireShipment `json:"Shipment"`
}

// WireShipment describes the shipment.
type WireShipment struct {
	Shipper  WireParty     `json:"Shipper"`
	ShipTo   WireParty     `json:"ShipTo"`
	ShipFrom WireParty     `json:"ShipFrom"`
	Service  *WireService  `json:"Service,omitempty"`
	Package  []WirePackage `json:"Package"`
}

// WireParty is a shipper/recipient with its address.
type WireParty struct {
	Name    string      `json:"Name,omitempty"`
	Phone   *WirePhone  `json:"Phone,omitempty"`
	Address WireAddress `json:"Address"`
}

// WirePhone wraps a phone number.
type WirePhone struct {
	Number string `json:"Number"`
}

// WireAddress is the UPS address shape.
type WireAddress struct {
	AddressLine       []string `json:"AddressLine"`
	City              string   `json:"City"`
	StateProvinceCode string   `json:"StateProvinceCode"`
	PostalCode        string   `json:"PostalCode"`
	CountryCode       string   `json:"CountryCode"`
	ResidentialAddressIndicator string `json:"ResidentialAddressIndicator,omitempty"`
}

// WireService is a coded service selection.
type WireService struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// WirePackage is one package.
type WirePackage struct {
	PackagingType WireService    `json:"PackagingType"`
	Dimensions    *WireDimension `json:"Dimensions,omitempty"`
	PackageWeight WireWeight     `json:"PackageWeight"`
}

// WireDimension carries dimensions with a coded unit.
type WireDimension struct {
	UnitOfMeasurement WireService `json:"UnitOfMeasurement"` // "IN" or "CM"
	Length            string      `json:"Length"`
	Width             string      `json:"Width"`
	Height            string      `json:"Height"`
}

// WireWeight carries weight with a coded unit.
type WireWeight struct {
	UnitOfMeasurement WireService `json:"UnitOfMeasurement"` // "LBS" or "KGS"
	Weight            string      `json:"Weight"`
}

// RateWireResponse is the rating response.
type RateWireResponse struct {
	RateResponse RateResponseBody `json:"RateResponse"`
}

// RateResponseBody wraps rated shipments.
type RateResponseBody struct {
	RatedShipment []RatedShipment `json:"RatedShipment"`
}

// RatedShipment is one quoted service.
type RatedShipment struct {
	Service            WireService         `json:"Service"`
	TotalCharges       WireCharge          `json:"TotalCharges"`
	TransportationCharges WireCharge       `json:"TransportationCharges"`
	ServiceOptionsCharges *WireCharge      `json:"ServiceOptionsCharges,omitempty"`
	TaxCharges         []WireCharge        `json:"TaxCharges,omitempty"`
	GuaranteedDelivery *GuaranteedDelivery `json:"GuaranteedDelivery,omitempty"`
}

// WireCharge is a monetary value; UPS sends amounts as strings.
type WireCharge struct {
	CurrencyCode  string `json:"CurrencyCode"`
	MonetaryValue string `json:"MonetaryValue"`
}

// GuaranteedDelivery carries transit commitment data.
type GuaranteedDelivery struct {
	BusinessDaysInTransit string `json:"BusinessDaysInTransit,omitempty"`
	DeliveryByTime        string `json:"DeliveryByTime,omitempty"`
	ScheduledDeliveryDate string `json:"ScheduledDeliveryDate,omitempty"` // YYYY-MM-DD
}

// ShipWireRequest is the body of the shipment endpoint.
type ShipWireRequest struct {
	ShipmentRequest ShipmentRequestBody `json:"ShipmentRequest"`
}

// ShipmentRequestBody wraps the shipment to create.
type ShipmentRequestBody struct {
	Shipment    WireShipment `json:"Shipment"`
	ReferenceNumber string   `json:"ReferenceNumber,omitempty"`
}

// ShipWireResponse is the result of creating a shipment.
type ShipWireResponse struct {
	ShipmentResponse ShipmentResponseBody `json:"ShipmentResponse"`
}

// ShipmentResponseBody wraps shipment results.
type ShipmentResponseBody struct {
	ShipmentResults ShipmentResults `json:"ShipmentResults"`
}

// ShipmentResults carries identifiers and charges for a created shipment.
type ShipmentResults struct {
	ShipmentIdentificationNumber string      `json:"ShipmentIdentificationNumber"`
	PackageResults               []PackageResult `json:"PackageResults"`
	ShipmentCharges              *ShipmentCharges `json:"ShipmentCharges,omitempty"`
}

// PackageResult is one package's tracking outcome.
type PackageResult struct {
	TrackingNumber string `json:"TrackingNumber"`
	LabelURL       string `json:"LabelURL,omitempty"`
}

// ShipmentCharges carries total charges.
type ShipmentCharges struct {
	TotalCharges WireCharge `json:"TotalCharges"`
}

// TrackWireResponse is the tracking response.
type TrackWireResponse struct {
	TrackResponse TrackResponseBody `json:"trackResponse"`
}

// TrackResponseBody wraps tracked shipments.
type TrackResponseBody struct {
	Shipment []TrackedShipment `json:"shipment"`
}

// TrackedShipment is one tracked shipment.
type TrackedShipment struct {
	Package []TrackedPackage `json:"package"`
}

// TrackedPackage is one tracked package with its activity history.
type TrackedPackage struct {
	TrackingNumber string         `json:"trackingNumber"`
	Activity       []Activity     `json:"activity"`
	DeliveryDate   []DeliveryDate `json:"deliveryDate,omitempty"`
}

// Activity is one tracking event.
type Activity struct {
	Status   ActivityStatus   `json:"status"`
	Date     string           `json:"date"` // YYYYMMDD
	Time     string           `json:"time"` // HHMMSS
	Location ActivityLocation `json:"location"`
}

// ActivityStatus is a typed status code with description.
type ActivityStatus struct {
	Type        string `json:"type"` // M, P, I, O, D, X, RS
	Description string `json:"description"`
	Code        string `json:"code"`
}

// ActivityLocation is the place an activity happened.
type ActivityLocation struct {
	Address struct {
		City          string `json:"city"`
		StateProvince string `json:"stateProvince"`
		CountryCode   string `json:"countryCode"`
	} `json:"address"`
}

// DeliveryDate carries a typed delivery date.
type DeliveryDate struct {
	Type string `json:"type"` // "SDD" scheduled, "RDD" rescheduled, "DEL" delivered
	Date string `json:"date"` // YYYYMMDD
}

// XAVRequest is the address validation request.
type XAVRequest struct {
	XAVRequestBody XAVRequestBody `json:"XAVRequest"`
}

// XAVRequestBody wraps the address to validate.
type XAVRequestBody struct {
	AddressKeyFormat AddressKeyFormat `json:"AddressKeyFormat"`
}

// AddressKeyFormat is the UPS address validation shape.
type AddressKeyFormat struct {
	ConsigneeName       string   `json:"ConsigneeName,omitempty"`
	AddressLine         []string `json:"AddressLine"`
	PoliticalDivision2  string   `json:"PoliticalDivision2"` // city
	PoliticalDivision1  string   `json:"PoliticalDivision1"` // state
	PostcodePrimaryLow  string   `json:"PostcodePrimaryLow"`
	CountryCode         string   `json:"CountryCode"`
}

// XAVResponse is the address validation result.
type XAVResponse struct {
	XAVResponseBody XAVResponseBody `json:"XAVResponse"`
}

// XAVResponseBody wraps validation results.
type XAVResponseBody struct {
	ValidAddressIndicator *struct{}          `json:"ValidAddressIndicator,omitempty"`
	Candidate             []AddressCandidate `json:"Candidate,omitempty"`
}

// AddressCandidate is one normalized candidate address.
type AddressCandidate struct {
	AddressKeyFormat AddressKeyFormat `json:"AddressKeyFormat"`
}

// VoidWireResponse is the cancellation result.
type VoidWireResponse struct {
	VoidShipmentResponse VoidShipmentResponseBody `json:"VoidShipmentResponse"`
}

// VoidShipmentResponseBody wraps the void outcome.
type VoidShipmentResponseBody struct {
	SummaryResult SummaryResult `json:"SummaryResult"`
}

// SummaryResult is the coded void outcome.
type SummaryResult struct {
	Status WireService `json:"Status"` // Code "1" = voided
}
