package dhl

import (
	"context"
	"fmt"
	"time"

	"github.com/parcelforge/shipping/pkg/carrier"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetRates        func(ctx context.Context, req *RatesQuery) (*ProductsResponse, error)
	OnCreateShipment  func(ctx context.Context, req *ShipmentWireRequest) (*ShipmentWireResponse, error)
	OnGetTracking     func(ctx context.Context, trackingNumber string) (*TrackingWireResponse, error)
	OnValidateAddress func(ctx context.Context, req *AddressQuery) (*AddressWireResponse, error)
	OnCancelShipment  func(ctx context.Context, shipmentID string) (*CancelWireResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return carrier.NewResponseError(carrierID, 503, `{"detail":"Service temporarily unavailable"}`)
	}
	return nil
}

// GetRates returns mock product quotes.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesQuery) (*ProductsResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	eta := time.Now().AddDate(0, 0, 3).Format(time.RFC3339)
	return &ProductsResponse{
		Products: []Product{
			{
				ProductName: "EXPRESS WORLDWIDE",
				ProductCode: "P",
				TotalPrice:  []PriceEntry{{CurrencyType: "BILLC", PriceCurrency: "USD", Price: 45.30}},
				TotalPriceBreakdown: []PriceBreakdownEntry{
					{
						PriceCurrency: "USD",
						Breakdown: []BreakdownItem{
							{TypeCode: "SPRQT", Price: 38.50},
							{TypeCode: "STTXA", Price: 4.10},
							{TypeCode: "SCH", Price: 2.70},
						},
					},
				},
				DeliveryCapabilities: &DeliveryCapabilities{
					EstimatedDeliveryDateAndTime: eta,
					TotalTransitDays:             "3",
				},
			},
			{
				ProductName: "EXPRESS 12:00",
				ProductCode: "T",
				TotalPrice:  []PriceEntry{{CurrencyType: "BILLC", PriceCurrency: "USD", Price: 72.10}},
				DeliveryCapabilities: &DeliveryCapabilities{
					TotalTransitDays: "2",
				},
			},
		},
	}, nil
}

// CreateShipment returns a mock shipment confirmation.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentWireRequest) (*ShipmentWireResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	tracking := fmt.Sprintf("%d", 4000000000+time.Now().UnixNano()%999999999)
	return &ShipmentWireResponse{
		ShipmentTrackingNumber: tracking,
		TrackingURL:            "https://mock.dhl.test/track/" + tracking,
		Packages:               []CreatedPackage{{TrackingNumber: tracking}},
		Documents:              []Document{{TypeCode: "label", URL: "https://mock.dhl.test/labels/" + tracking}},
	}, nil
}

// GetTracking returns mock tracking data.
func (m *MockAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackingWireResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetTracking != nil {
		return m.OnGetTracking(ctx, trackingNumber)
	}

	yesterday := time.Now().Add(-24 * time.Hour)
	return &TrackingWireResponse{
		Shipments: []TrackedShipment{
			{
				ShipmentTrackingNumber: trackingNumber,
				Status:                 "transit",
				EstimatedDeliveryDate:  time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
				Events: []TrackEvent{
					{
						Date:        yesterday.Format("2006-01-02"),
						Time:        "09:12:00",
						TypeCode:    "PU",
						Description: "Shipment picked up",
						ServiceArea: []ServiceArea{{Description: "LEIPZIG - GERMANY"}},
					},
					{
						Date:        time.Now().Format("2006-01-02"),
						Time:        "04:47:00",
						TypeCode:    "PL",
						Description: "Processed at DHL hub",
						ServiceArea: []ServiceArea{{Description: "CINCINNATI HUB - USA"}},
					},
				},
			},
		},
	}, nil
}

// ValidateAddress returns a mock serviceability result.
func (m *MockAPIClient) ValidateAddress(ctx context.Context, req *AddressQuery) (*AddressWireResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnValidateAddress != nil {
		return m.OnValidateAddress(ctx, req)
	}

	return &AddressWireResponse{
		Address: []ValidatedAddress{
			{
				PostalCode:  req.PostalCode,
				CityName:    req.CityName,
				CountryCode: req.CountryCode,
				ServiceArea: ServiceArea{Description: req.CityName},
			},
		},
	}, nil
}

// CancelShipment returns a mock cancellation confirmation.
func (m *MockAPIClient) CancelShipment(ctx context.Context, shipmentID string) (*CancelWireResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelShipment != nil {
		return m.OnCancelShipment(ctx, shipmentID)
	}
	return &CancelWireResponse{Status: "cancelled"}, nil
}

// Ensure MockAPIClient implements APIClient.
var _ APIClient = (*MockAPIClient)(nil)
