package fedex

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parcelforge/shipping/pkg/carrier"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetRates        func(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
	OnCreateShipment  func(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)
	OnGetTracking     func(ctx context.Context, trackingNumber string) (*TrackingReply, error)
	OnValidateAddress func(ctx context.Context, req *AddressRequest) (*AddressReply, error)
	OnCancelShipment  func(ctx context.Context, shipmentID string) (*CancelReply, error)
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
		return carrier.NewResponseError(carrierID, 503, `{"errors":[{"code":"SERVICE.UNAVAILABLE"}]}`)
	}
	return nil
}

// GetRates returns mock rate quotes.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	return &RatesResponse{
		Output: RatesOutput{
			RateReplyDetails: []RateReplyDetail{
				{
					ServiceType: "FEDEX_GROUND",
					RatedShipmentDetails: []RatedShipmentDetail{
						{RateType: "ACCOUNT", TotalNetCharge: 18.45, TotalBaseCharge: 15.20, TotalTaxes: 2.15, TotalSurcharges: 1.10, CurrencyCode: "USD"},
					},
					Commit: &CommitDetail{TransitTime: "THREE_DAYS"},
				},
				{
					ServiceType: "FEDEX_2_DAY",
					RatedShipmentDetails: []RatedShipmentDetail{
						{RateType: "ACCOUNT", TotalNetCharge: 32.80, TotalBaseCharge: 27.90, TotalTaxes: 3.10, TotalSurcharges: 1.80, CurrencyCode: "USD"},
					},
					Commit: &CommitDetail{
						DateDetail: &CommitDateDetail{DayFormat: time.Now().AddDate(0, 0, 2).Format(time.RFC3339)},
					},
				},
				{
					ServiceType: "PRIORITY_OVERNIGHT",
					RatedShipmentDetails: []RatedShipmentDetail{
						{RateType: "ACCOUNT", TotalNetCharge: 61.25, TotalBaseCharge: 54.00, TotalTaxes: 4.75, TotalSurcharges: 2.50, CurrencyCode: "USD"},
					},
					Commit: &CommitDetail{TransitTime: "ONE_DAY"},
				},
			},
		},
	}, nil
}

// CreateShipment returns a mock shipment confirmation.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	tracking := fmt.Sprintf("%d", 700000000000+time.Now().UnixNano()%99999999999)
	return &ShipmentResponse{
		Output: ShipmentOutput{
			TransactionShipments: []TransactionShipment{
				{
					MasterTrackingNumber: tracking,
					ServiceName:          "FedEx Ground",
					ShipDatestamp:        time.Now().Format("2006-01-02"),
					DeliveryDatestamp:    time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
					LabelURL:             "https://mock.fedex.test/labels/" + uuid.New().String(),
				},
			},
		},
	}, nil
}

// GetTracking returns mock tracking data.
func (m *MockAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackingReply, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetTracking != nil {
		return m.OnGetTracking(ctx, trackingNumber)
	}

	now := time.Now()
	return &TrackingReply{
		Output: TrackingOutput{
			CompleteTrackResults: []CompleteTrackResult{
				{
					TrackingNumber: trackingNumber,
					TrackResults: []TrackResult{
						{
							LatestStatusDetail: StatusDetail{Code: "IT", Description: "In transit"},
							ScanEvents: []ScanEvent{
								{
									Date:              now.Add(-36 * time.Hour).Format(time.RFC3339),
									EventDescription:  "Picked up",
									DerivedStatusCode: "PU",
									ScanLocation:      ScanLocation{City: "MEMPHIS", StateOrProvinceCode: "TN", CountryCode: "US"},
								},
								{
									Date:              now.Add(-12 * time.Hour).Format(time.RFC3339),
									EventDescription:  "Departed FedEx hub",
									DerivedStatusCode: "IT",
									ScanLocation:      ScanLocation{City: "INDIANAPOLIS", StateOrProvinceCode: "IN", CountryCode: "US"},
								},
							},
						},
					},
				},
			},
		},
	}, nil
}

// ValidateAddress returns a mock address resolution.
func (m *MockAPIClient) ValidateAddress(ctx context.Context, req *AddressRequest) (*AddressReply, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnValidateAddress != nil {
		return m.OnValidateAddress(ctx, req)
	}

	var resolved []ResolvedAddress
	for _, a := range req.AddressesToValidate {
		resolved = append(resolved, ResolvedAddress{
			StreetLinesToken:    a.Address.StreetLines,
			City:                a.Address.City,
			StateOrProvinceCode: a.Address.StateOrProvinceCode,
			PostalCode:          a.Address.PostalCode,
			CountryCode:         a.Address.CountryCode,
			State:               "MATCHED",
		})
	}
	return &AddressReply{Output: AddressOutput{ResolvedAddresses: resolved}}, nil
}

// CancelShipment returns a mock cancellation confirmation.
func (m *MockAPIClient) CancelShipment(ctx context.Context, shipmentID string) (*CancelReply, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelShipment != nil {
		return m.OnCancelShipment(ctx, shipmentID)
	}
	return &CancelReply{Output: CancelOutput{CancelledShipment: true}}, nil
}

// Ensure MockAPIClient implements APIClient.
var _ APIClient = (*MockAPIClient)(nil)
