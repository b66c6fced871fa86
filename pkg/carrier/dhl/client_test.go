package dhl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/parcelforge/shipping/pkg/carrier/dhl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *dhl.MockAPIClient) *dhl.Client {
	logger := otelzap.New(zap.NewNop())
	return dhl.NewWithAPIClient(
		dhl.Config{},
		mockClient,
		logger,
		nil,
	)
}

func testRateRequest() *carrier.RateRequest {
	return &carrier.RateRequest{
		Origin: carrier.Address{
			Name:        "Sender",
			Line1:       "Hauptstrasse 1",
			City:        "Leipzig",
			PostalCode:  "04103",
			CountryCode: "DE",
		},
		Destination: carrier.Address{
			Name:        "Receiver",
			Line1:       "456 Oak Ave",
			City:        "Cincinnati",
			State:       "OH",
			PostalCode:  "45202",
			CountryCode: "US",
		},
		Packages: []carrier.PackageDetails{
			{Weight: carrier.Weight{Value: 2.5, Unit: carrier.WeightKG}},
		},
	}
}

func TestClient_QuoteRates_Success(t *testing.T) {
	mockAPI := dhl.NewMockAPIClient()
	client := newTestClient(mockAPI)

	rates, err := client.QuoteRates(context.Background(), testRateRequest())

	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "dhl", rates[0].CarrierID)
	assert.Equal(t, "DHL Express Worldwide", rates[0].ServiceName)
	assert.Equal(t, 45.30, rates[0].TotalAmount)
	assert.Equal(t, "USD", rates[0].Currency)
	assert.Equal(t, 3, rates[0].EstimatedDays)
	require.NotNil(t, rates[0].EstimatedDelivery)
}

func TestClient_QuoteRates_Breakdown(t *testing.T) {
	mockAPI := dhl.NewMockAPIClient()
	client := newTestClient(mockAPI)

	rates, err := client.QuoteRates(context.Background(), testRateRequest())

	require.NoError(t, err)
	assert.Equal(t, 38.50, rates[0].Breakdown.Base)
	assert.Equal(t, 4.10, rates[0].Breakdown.Tax)
	assert.Equal(t, 2.70, rates[0].Breakdown.Fees)
	// Second product carries no breakdown in the mock payload.
	assert.Zero(t, rates[1].Breakdown.Base)
}

func TestClient_QuoteRates_APIError(t *testing.T) {
	mockAPI := dhl.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	_, err := client.QuoteRates(context.Background(), testRateRequest())

	require.Error(t, err)
	var cerr *carrier.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "dhl", cerr.CarrierID)
}

func TestClient_QuoteRates_MetricPackages(t *testing.T) {
	mockAPI := dhl.NewMockAPIClient()
	var captured *dhl.RatesQuery
	mockAPI.OnGetRates = func(ctx context.Context, req *dhl.RatesQuery) (*dhl.ProductsResponse, error) {
		captured = req
		return &dhl.ProductsResponse{}, nil
	}
	client := newTestClient(mockAPI)

	req := testRateRequest()
	req.Packages[0].Weight = carrier.Weight{Value: 16, Unit: carrier.WeightOZ}

	_, err := client.QuoteRates(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "metric", captured.UnitOfMeasurement)
	require.Len(t, captured.Packages, 1)
	assert.InDelta(t, 0.4536, captured.Packages[0].Weight, 0.001) // 16 oz in kg
}

func TestClient_Track_Success(t *testing.T) {
	mockAPI := dhl.NewMockAPIClient()
	client := newTestClient(mockAPI)

	resp, err := client.Track(context.Background(), "4012345678")

	require.NoError(t, err)
	assert.Equal(t, "4012345678", resp.TrackingNumber)
	assert.Equal(t, carrier.StatusInTransit, resp.Status)
	require.NotNil(t, resp.EstimatedDelivery)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, carrier.StatusPickup, resp.Events[0].Status)
	assert.Equal(t, "LEIPZIG - GERMANY", resp.Events[0].Location)
}

func TestClient_Track_NotFound(t *testing.T) {
	mockAPI := dhl.NewMockAPIClient()
	mockAPI.OnGetTracking = func(ctx context.Context, trackingNumber string) (*dhl.TrackingWireResponse, error) {
		return &dhl.TrackingWireResponse{}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.Track(context.Background(), "0000000000")

	assert.ErrorIs(t, err, carrier.ErrTrackingNotFound)
}

func TestClient_CancelShipment(t *testing.T) {
	mockAPI := dhl.NewMockAPIClient()
	client := newTestClient(mockAPI)

	result, err := client.CancelShipment(context.Background(), "4012345678")

	require.NoError(t, err)
	assert.True(t, result.Cancelled)
}
