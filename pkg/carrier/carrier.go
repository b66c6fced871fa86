// Package carrier provides an abstraction layer for external parcel carriers.
package carrier

import (
	"context"
)

// Carrier defines the capability set every integrated provider must implement.
type Carrier interface {
	// ID returns the stable carrier identifier (e.g., "fedex", "ups", "dhl").
	ID() string

	// Name returns the carrier display name (e.g., "FedEx").
	Name() string

	// Services returns the canonical service codes this carrier supports.
	Services() []string

	// QuoteRates returns shipping rate quotes for a shipment.
	QuoteRates(ctx context.Context, req *RateRequest) ([]RateResponse, error)

	// CreateShipment books a shipment with the carrier.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)

	// Track returns tracking information for a tracking number.
	Track(ctx context.Context, trackingNumber string) (*TrackingResponse, error)

	// ValidateAddress checks an address against the carrier's address service.
	ValidateAddress(ctx context.Context, addr *Address) (*AddressValidation, error)

	// CancelShipment cancels a previously created shipment.
	CancelShipment(ctx context.Context, shipmentID string) (*CancelResult, error)
}
