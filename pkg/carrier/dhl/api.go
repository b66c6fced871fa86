package dhl

import (
	"context"
)

// APIClient defines the interface for DHL Express API operations.
type APIClient interface {
	GetRates(ctx context.Context, req *RatesQuery) (*ProductsResponse, error)
	CreateShipment(ctx context.Context, req *ShipmentWireRequest) (*ShipmentWireResponse, error)
	GetTracking(ctx context.Context, trackingNumber string) (*TrackingWireResponse, error)
	ValidateAddress(ctx context.Context, req *AddressQuery) (*AddressWireResponse, error)
	CancelShipment(ctx context.Context, shipmentID string) (*CancelWireResponse, error)
}

// ============================================================================
// Wire types (DHL Express MyDHL API shapes)
// ============================================================================

// RatesQuery is the body of POST /rates.
type RatesQuery struct {
	CustomerDetails CustomerDetails `json:"customerDetails"`
	PlannedShippingDate string      `json:"plannedShippingDateAndTime,omitempty"`
	ProductCode     string          `json:"productCode,omitempty"`
	Packages        []WirePackage   `json:"packages"`
	UnitOfMeasurement string        `json:"unitOfMeasurement"` // "metric" or "imperial"
}

// CustomerDetails holds both endpoints of the shipment.
type CustomerDetails struct {
	ShipperDetails  PostalAddress `json:"shipperDetails"`
	ReceiverDetails PostalAddress `json:"receiverDetails"`
}

// PostalAddress is the DHL address shape.
type PostalAddress struct {
	PostalCode   string `json:"postalCode"`
	CityName     string `json:"cityName"`
	CountryCode  string `json:"countryCode"`
	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	ProvinceCode string `json:"provinceCode,omitempty"`
}

// WirePackage is one package with metric measurements.
type WirePackage struct {
	Weight     float64        `json:"weight"` // kg in metric mode
	Dimensions WireDimensions `json:"dimensions"`
}

// WireDimensions are cm in metric mode.
type WireDimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ProductsResponse is the rates reply.
type ProductsResponse struct {
	Products []Product `json:"products"`
}

// Product is one quoted DHL product.
type Product struct {
	ProductName          string                `json:"productName"`
	ProductCode          string                `json:"productCode"`
	TotalPrice           []PriceEntry          `json:"totalPrice"`
	TotalPriceBreakdown  []PriceBreakdownEntry `json:"totalPriceBreakdown,omitempty"`
	DeliveryCapabilities *DeliveryCapabilities `json:"deliveryCapabilities,omitempty"`
}

// PriceEntry is a priced currency entry.
type PriceEntry struct {
	CurrencyType string  `json:"currencyType"` // "BILLC", "PULCL", ...
	PriceCurrency string `json:"priceCurrency"`
	Price        float64 `json:"price"`
}

// PriceBreakdownEntry splits a price into coded components.
type PriceBreakdownEntry struct {
	PriceCurrency string          `json:"priceCurrency"`
	Breakdown     []BreakdownItem `json:"priceBreakdown"`
}

// BreakdownItem is one charge component.
type BreakdownItem struct {
	TypeCode string  `json:"typeCode"` // "STTXA" taxes, "SPRQT" base, "SCH" surcharges
	Price    float64 `json:"price"`
}

// DeliveryCapabilities carries transit commitment data.
type DeliveryCapabilities struct {
	EstimatedDeliveryDateAndTime string `json:"estimatedDeliveryDateAndTime,omitempty"` // RFC3339
	TotalTransitDays             string `json:"totalTransitDays,omitempty"`
}

// ShipmentWireRequest is the body of POST /shipments.
type ShipmentWireRequest struct {
	PlannedShippingDate string          `json:"plannedShippingDateAndTime,omitempty"`
	ProductCode         string          `json:"productCode"`
	CustomerDetails     CustomerDetails `json:"customerDetails"`
	Packages            []WirePackage   `json:"packages"`
	CustomerReferences  []Reference     `json:"customerReferences,omitempty"`
}

// Reference is a typed customer reference.
type Reference struct {
	Value    string `json:"value"`
	TypeCode string `json:"typeCode"`
}

// ShipmentWireResponse is the result of creating a shipment.
type ShipmentWireResponse struct {
	ShipmentTrackingNumber string          `json:"shipmentTrackingNumber"`
	TrackingURL            string          `json:"trackingUrl,omitempty"`
	Packages               []CreatedPackage `json:"packages,omitempty"`
	Documents              []Document      `json:"documents,omitempty"`
}

// CreatedPackage is one created package.
type CreatedPackage struct {
	TrackingNumber string `json:"trackingNumber"`
}

// Document is an encoded label or customs document.
type Document struct {
	TypeCode string `json:"typeCode"` // "label"
	URL      string `json:"url,omitempty"`
	Content  string `json:"content,omitempty"` // base64
}

// TrackingWireResponse is the body of GET /shipments/{id}/tracking.
type TrackingWireResponse struct {
	Shipments []TrackedShipment `json:"shipments"`
}

// TrackedShipment is one tracked shipment.
type TrackedShipment struct {
	ShipmentTrackingNumber string       `json:"shipmentTrackingNumber"`
	Status                 string       `json:"status"`
	EstimatedDeliveryDate  string       `json:"estimatedDeliveryDate,omitempty"`
	Events                 []TrackEvent `json:"events"`
}

// TrackEvent is one tracking event.
type TrackEvent struct {
	Date        string `json:"date"`  // YYYY-MM-DD
	Time        string `json:"time"`  // HH:MM:SS
	TypeCode    string `json:"typeCode"`
	Description string `json:"description"`
	ServiceArea []ServiceArea `json:"serviceArea,omitempty"`
}

// ServiceArea names the place an event happened.
type ServiceArea struct {
	Description string `json:"description"`
}

// AddressQuery is the body of the address validation endpoint.
type AddressQuery struct {
	Type        string `json:"type"` // "delivery" or "pickup"
	PostalCode  string `json:"postalCode"`
	CityName    string `json:"cityName"`
	CountryCode string `json:"countryCode"`
}

// AddressWireResponse is the address validation result.
type AddressWireResponse struct {
	Address []ValidatedAddress `json:"address"`
	Warnings []string          `json:"warnings,omitempty"`
}

// ValidatedAddress is one serviceable address.
type ValidatedAddress struct {
	PostalCode  string `json:"postalCode"`
	CityName    string `json:"cityName"`
	CountryCode string `json:"countryCode"`
	ServiceArea ServiceArea `json:"serviceArea"`
}

// CancelWireResponse is the cancellation result.
type CancelWireResponse struct {
	Status  string `json:"status"` // "cancelled"
	Message string `json:"message,omitempty"`
}
