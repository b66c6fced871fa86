package ups

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

	OnGetRates        func(ctx context.Context, req *RateWireRequest) (*RateWireResponse, error)
	OnCreateShipment  func(ctx context.Context, req *ShipWireRequest) (*ShipWireResponse, error)
	OnGetTracking     func(ctx context.Context, trackingNumber string) (*TrackWireResponse, error)
	OnValidateAddress func(ctx context.Context, req *XAVRequest) (*XAVResponse, error)
	OnCancelShipment  func(ctx context.Context, shipmentID string) (*VoidWireResponse, error)
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
		return carrier.NewResponseError(carrierID, 500, `{"response":{"errors":[{"code":"10001"}]}}`)
	}
	return nil
}

// GetRates returns mock rate quotes.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RateWireRequest) (*RateWireResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	return &RateWireResponse{
		RateResponse: RateResponseBody{
			RatedShipment: []RatedShipment{
				{
					Service:               WireService{Code: "03"},
					TotalCharges:          WireCharge{CurrencyCode: "USD", MonetaryValue: "17.35"},
					TransportationCharges: WireCharge{CurrencyCode: "USD", MonetaryValue: "15.60"},
					TaxCharges:            []WireCharge{{CurrencyCode: "USD", MonetaryValue: "1.75"}},
					GuaranteedDelivery:    &GuaranteedDelivery{BusinessDaysInTransit: "4"},
				},
				{
					Service:               WireService{Code: "02"},
					TotalCharges:          WireCharge{CurrencyCode: "USD", MonetaryValue: "31.10"},
					TransportationCharges: WireCharge{CurrencyCode: "USD", MonetaryValue: "28.20"},
					TaxCharges:            []WireCharge{{CurrencyCode: "USD", MonetaryValue: "2.90"}},
					GuaranteedDelivery: &GuaranteedDelivery{
						BusinessDaysInTransit: "2",
						ScheduledDeliveryDate: time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
					},
				},
				{
					Service:               WireService{Code: "01"},
					TotalCharges:          WireCharge{CurrencyCode: "USD", MonetaryValue: "58.90"},
					TransportationCharges: WireCharge{CurrencyCode: "USD", MonetaryValue: "54.00"},
					TaxCharges:            []WireCharge{{CurrencyCode: "USD", MonetaryValue: "4.90"}},
					GuaranteedDelivery:    &GuaranteedDelivery{BusinessDaysInTransit: "1"},
				},
			},
		},
	}, nil
}

// CreateShipment returns a mock shipment confirmation.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipWireRequest) (*ShipWireResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	id := fmt.Sprintf("1Z%09d", time.Now().UnixNano()%1000000000)
	return &ShipWireResponse{
		ShipmentResponse: ShipmentResponseBody{
			ShipmentResults: ShipmentResults{
				ShipmentIdentificationNumber: id,
				PackageResults:               []PackageResult{{TrackingNumber: id}},
				ShipmentCharges: &ShipmentCharges{
					TotalCharges: WireCharge{CurrencyCode: "USD", MonetaryValue: "17.35"},
				},
			},
		},
	}, nil
}

// GetTracking returns mock tracking data.
func (m *MockAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackWireResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetTracking != nil {
		return m.OnGetTracking(ctx, trackingNumber)
	}

	pkg := TrackedPackage{
		TrackingNumber: trackingNumber,
		Activity: []Activity{
			{
				Status: ActivityStatus{Type: "I", Description: "Departed from facility", Code: "DP"},
				Date:   time.Now().Add(-12 * time.Hour).Format("20060102"),
				Time:   "084500",
			},
			{
				Status: ActivityStatus{Type: "P", Description: "Pickup scan", Code: "PU"},
				Date:   time.Now().Add(-36 * time.Hour).Format("20060102"),
				Time:   "153000",
			},
		},
	}
	pkg.Activity[0].Location.Address.City = "Louisville"
	pkg.Activity[0].Location.Address.StateProvince = "KY"

	return &TrackWireResponse{
		TrackResponse: TrackResponseBody{
			Shipment: []TrackedShipment{{Package: []TrackedPackage{pkg}}},
		},
	}, nil
}

// ValidateAddress returns a mock validation result.
func (m *MockAPIClient) ValidateAddress(ctx context.Context, req *XAVRequest) (*XAVResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnValidateAddress != nil {
		return m.OnValidateAddress(ctx, req)
	}

	return &XAVResponse{
		XAVResponseBody: XAVResponseBody{
			ValidAddressIndicator: &struct{}{},
			Candidate: []AddressCandidate{
				{AddressKeyFormat: req.XAVRequestBody.AddressKeyFormat},
			},
		},
	}, nil
}

// CancelShipment returns a mock void confirmation.
func (m *MockAPIClient) CancelShipment(ctx context.Context, shipmentID string) (*VoidWireResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelShipment != nil {
		return m.OnCancelShipment(ctx, shipmentID)
	}
	return &VoidWireResponse{
		VoidShipmentResponse: VoidShipmentResponseBody{
			SummaryResult: SummaryResult{Status: WireService{Code: "1", Description: "Voided"}},
		},
	}, nil
}

// Ensure MockAPIClient implements APIClient.
var _ APIClient = (*MockAPIClient)(nil)
