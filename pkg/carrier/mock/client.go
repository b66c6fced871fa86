// Package mock provides a mock carrier implementation for testing.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/parcelforge/shipping/pkg/carrier"
)

// Client is a mock carrier for testing. The On* hooks override individual
// operations; unset hooks fall back to canned responses.
type Client struct {
	id   string
	name string

	OnQuoteRates func(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateResponse, error)
	OnTrack      func(ctx context.Context, trackingNumber string) (*carrier.TrackingResponse, error)

	// QuoteErr, when set, makes QuoteRates fail.
	QuoteErr error
}

// New creates a new mock carrier.
func New(id string) *Client {
	return &Client{id: id, name: id}
}

// ID returns the carrier id.
func (c *Client) ID() string {
	return c.id
}

// Name returns the carrier display name.
func (c *Client) Name() string {
	return c.name
}

// Services returns the mock service codes.
func (c *Client) Services() []string {
	return []string{"STANDARD", "EXPRESS"}
}

// QuoteRates returns canned shipping quotes.
func (c *Client) QuoteRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateResponse, error) {
	if c.OnQuoteRates != nil {
		return c.OnQuoteRates(ctx, req)
	}
	if c.QuoteErr != nil {
		return nil, c.QuoteErr
	}

	eta := time.Now().Add(5 * 24 * time.Hour)
	return []carrier.RateResponse{
		{
			CarrierID:         c.id,
			CarrierName:       c.name,
			ServiceCode:       "STANDARD",
			ServiceName:       fmt.Sprintf("%s Standard", c.name),
			TotalAmount:       15.82,
			Currency:          "USD",
			EstimatedDays:     5,
			EstimatedDelivery: &eta,
			Breakdown:         carrier.RateBreakdown{Base: 12.50, Tax: 1.82, Fees: 1.50},
		},
		{
			CarrierID:     c.id,
			CarrierName:   c.name,
			ServiceCode:   "EXPRESS",
			ServiceName:   fmt.Sprintf("%s Express", c.name),
			TotalAmount:   29.95,
			Currency:      "USD",
			EstimatedDays: 2,
			Breakdown:     carrier.RateBreakdown{Base: 24.00, Tax: 3.45, Fees: 2.50},
		},
	}, nil
}

// CreateShipment returns a canned shipment confirmation.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResponse, error) {
	now := time.Now()
	eta := now.Add(4 * 24 * time.Hour)
	return &carrier.ShipmentResponse{
		CarrierID:         c.id,
		ShipmentID:        fmt.Sprintf("%s-ship-%d", c.id, now.UnixNano()),
		TrackingNumber:    fmt.Sprintf("%s-track-%d", c.id, now.UnixNano()),
		ServiceName:       req.ServiceCode,
		TotalCharged:      15.82,
		Currency:          "USD",
		EstimatedDelivery: &eta,
	}, nil
}

// Track returns canned tracking data.
func (c *Client) Track(ctx context.Context, trackingNumber string) (*carrier.TrackingResponse, error) {
	if c.OnTrack != nil {
		return c.OnTrack(ctx, trackingNumber)
	}
	now := time.Now()
	return &carrier.TrackingResponse{
		CarrierID:      c.id,
		TrackingNumber: trackingNumber,
		Status:         carrier.StatusInTransit,
		Events: []carrier.TrackingEvent{
			{Timestamp: now.Add(-48 * time.Hour), Status: carrier.StatusPreTransit, Description: "Label created"},
			{Timestamp: now.Add(-24 * time.Hour), Status: carrier.StatusInTransit, Description: "Departed facility", Location: "Memphis, TN"},
		},
	}, nil
}

// ValidateAddress accepts every address.
func (c *Client) ValidateAddress(ctx context.Context, addr *carrier.Address) (*carrier.AddressValidation, error) {
	return &carrier.AddressValidation{Valid: true, Normalized: addr}, nil
}

// CancelShipment confirms every cancellation.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) (*carrier.CancelResult, error) {
	return &carrier.CancelResult{ShipmentID: shipmentID, Cancelled: true}, nil
}
