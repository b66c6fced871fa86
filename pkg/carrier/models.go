package carrier

import (
	"time"
)

// TrackingStatus is the normalized status of a shipment.
type TrackingStatus string

const (
	StatusUnknown            TrackingStatus = "unknown"
	StatusPreTransit         TrackingStatus = "pre_transit"
	StatusInTransit          TrackingStatus = "in_transit"
	StatusOutForDelivery     TrackingStatus = "out_for_delivery"
	StatusDelivered          TrackingStatus = "delivered"
	StatusAvailableForPickup TrackingStatus = "available_for_pickup"
	StatusReturnToSender     TrackingStatus = "return_to_sender"
	StatusFailure            TrackingStatus = "failure"
	StatusCancelled          TrackingStatus = "cancelled"
	StatusError              TrackingStatus = "error"
	StatusException          TrackingStatus = "exception"
	StatusPickup             TrackingStatus = "pickup"
	StatusManifest           TrackingStatus = "manifest"
)

// WeightUnit represents a weight measurement unit.
type WeightUnit string

const (
	WeightKG WeightUnit = "kg"
	WeightLB WeightUnit = "lb"
	WeightOZ WeightUnit = "oz"
)

// DimensionUnit represents a dimension measurement unit.
type DimensionUnit string

const (
	DimensionCM DimensionUnit = "cm"
	DimensionIN DimensionUnit = "in"
)

// Address represents a shipping address.
type Address struct {
	Name          string `json:"name" validate:"required"`
	Line1         string `json:"line1" validate:"required"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	CountryCode   string `json:"countryCode" validate:"required,len=2"`
	PostalCode    string `json:"postalCode" validate:"required"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	IsResidential bool   `json:"isResidential,omitempty"`
}

// Weight is a value with its unit.
type Weight struct {
	Value float64    `json:"value" validate:"gt=0"`
	Unit  WeightUnit `json:"unit" validate:"oneof=kg lb oz"`
}

// Dimensions are package measurements with their unit.
type Dimensions struct {
	Length float64       `json:"length"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Unit   DimensionUnit `json:"unit" validate:"oneof=cm in"`
}

// PackageDetails describes a single package in a shipment.
type PackageDetails struct {
	Weight            Weight      `json:"weight"`
	Dimensions        *Dimensions `json:"dimensions,omitempty"`
	DeclaredValue     float64     `json:"declaredValue,omitempty"`
	Currency          string      `json:"currency,omitempty"`
	SignatureRequired bool        `json:"signatureRequired,omitempty"`
	Insured           bool        `json:"insured,omitempty"`
}

// RateRequest is the canonical rate-quote request handed to every adapter.
type RateRequest struct {
	Origin      Address          `json:"origin"`
	Destination Address          `json:"destination"`
	Packages    []PackageDetails `json:"packages" validate:"min=1,dive"`
	ShipDate    *time.Time       `json:"shipDate,omitempty"`
	ServiceType string           `json:"serviceType,omitempty"`
	Options     map[string]any   `json:"options,omitempty"`
}

// RateBreakdown splits a quoted amount into its components.
type RateBreakdown struct {
	Base float64 `json:"base"`
	Tax  float64 `json:"tax"`
	Fees float64 `json:"fees"`
}

// RateResponse is one quoted rate from one carrier.
type RateResponse struct {
	CarrierID         string         `json:"carrierId"`
	CarrierName       string         `json:"carrierName"`
	ServiceCode       string         `json:"serviceCode"`
	ServiceName       string         `json:"serviceName"`
	TotalAmount       float64        `json:"totalAmount"`
	Currency          string         `json:"currency"`
	EstimatedDays     int            `json:"estimatedDays,omitempty"` // 0 = unknown
	EstimatedDelivery *time.Time     `json:"estimatedDelivery,omitempty"`
	Breakdown         RateBreakdown  `json:"breakdown"`
	CarrierData       map[string]any `json:"carrierData,omitempty"`
}

// ShipmentRequest is the canonical shipment-creation request.
// Carrier-specific payload enrichment happens inside each adapter.
type ShipmentRequest struct {
	Origin      Address          `json:"origin"`
	Destination Address          `json:"destination"`
	Packages    []PackageDetails `json:"packages" validate:"min=1,dive"`
	ServiceCode string           `json:"serviceCode"`
	Reference   string           `json:"reference,omitempty"`
	ShipDate    *time.Time       `json:"shipDate,omitempty"`
}

// ShipmentResponse is the canonical result of creating a shipment.
type ShipmentResponse struct {
	CarrierID         string     `json:"carrierId"`
	ShipmentID        string     `json:"shipmentId"`
	TrackingNumber    string     `json:"trackingNumber"`
	TrackingURL       string     `json:"trackingUrl,omitempty"`
	ServiceName       string     `json:"serviceName,omitempty"`
	TotalCharged      float64    `json:"totalCharged,omitempty"`
	Currency          string     `json:"currency,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	LabelURL          string     `json:"labelUrl,omitempty"`
}

// TrackingEvent is one timestamped event in a shipment's history.
type TrackingEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	Status      TrackingStatus `json:"status"`
	Description string         `json:"description"`
	Location    string         `json:"location,omitempty"`
	Latitude    *float64       `json:"latitude,omitempty"`
	Longitude   *float64       `json:"longitude,omitempty"`
}

// TrackingResponse is the canonical tracking result.
type TrackingResponse struct {
	CarrierID         string          `json:"carrierId"`
	TrackingNumber    string          `json:"trackingNumber"`
	Status            TrackingStatus  `json:"status"`
	Events            []TrackingEvent `json:"events"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
}

// AddressValidation is the result of a carrier address check.
type AddressValidation struct {
	Valid      bool     `json:"valid"`
	Normalized *Address `json:"normalized,omitempty"`
	Messages   []string `json:"messages,omitempty"`
}

// CancelResult is the canonical result of a shipment cancellation.
type CancelResult struct {
	ShipmentID string `json:"shipmentId"`
	Cancelled  bool   `json:"cancelled"`
	Message    string `json:"message,omitempty"`
}

// Info identifies a registered carrier for discovery surfaces.
type Info struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Services []string `json:"services"`
}
