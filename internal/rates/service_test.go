package rates_test

import (
	"context"
	"testing"

	"github.com/parcelforge/shipping/internal/rates"
	"github.com/parcelforge/shipping/internal/telemetry"
	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/parcelforge/shipping/pkg/carrier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Prometheus collectors register globally, so the package shares one set.
var testMetrics = telemetry.NewMetrics()

func newTestService(registry *carrier.Registry) *rates.Service {
	logger := otelzap.New(zap.NewNop())
	return rates.New(registry, logger, testMetrics, rates.Config{})
}

func quoteRequest() *carrier.RateRequest {
	return &carrier.RateRequest{
		Origin:      carrier.Address{Name: "Sender", Line1: "1 Main St", City: "Memphis", State: "TN", PostalCode: "38116", CountryCode: "US"},
		Destination: carrier.Address{Name: "Receiver", Line1: "2 Oak Ave", City: "Portland", State: "OR", PostalCode: "97201", CountryCode: "US"},
		Packages:    []carrier.PackageDetails{{Weight: carrier.Weight{Value: 2, Unit: carrier.WeightKG}}},
	}
}

func fixedRates(carrierID string, amounts ...float64) func(context.Context, *carrier.RateRequest) ([]carrier.RateResponse, error) {
	return func(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateResponse, error) {
		out := make([]carrier.RateResponse, len(amounts))
		for i, amount := range amounts {
			out[i] = carrier.RateResponse{CarrierID: carrierID, TotalAmount: amount, Currency: "USD"}
		}
		return out, nil
	}
}

func TestService_QuoteAll_MergesAndSorts(t *testing.T) {
	registry := carrier.NewRegistry()

	a := mock.New("alpha")
	a.OnQuoteRates = fixedRates("alpha", 25.00, 9.50)
	b := mock.New("bravo")
	b.OnQuoteRates = fixedRates("bravo", 14.75)
	registry.Register(a)
	registry.Register(b)

	result := newTestService(registry).QuoteAll(context.Background(), quoteRequest())

	require.Len(t, result.Rates, 3)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 9.50, result.Rates[0].TotalAmount)
	assert.Equal(t, 14.75, result.Rates[1].TotalAmount)
	assert.Equal(t, 25.00, result.Rates[2].TotalAmount)
}

func TestService_QuoteAll_PartialFailure(t *testing.T) {
	registry := carrier.NewRegistry()

	healthy := mock.New("healthy")
	healthy.OnQuoteRates = fixedRates("healthy", 12.00)
	broken := mock.New("broken")
	broken.QuoteErr = carrier.NewResponseError("broken", 503, "maintenance")
	registry.Register(healthy)
	registry.Register(broken)

	result := newTestService(registry).QuoteAll(context.Background(), quoteRequest())

	require.Len(t, result.Rates, 1)
	assert.Equal(t, "healthy", result.Rates[0].CarrierID)
	require.Contains(t, result.Errors, "broken")
	assert.Contains(t, result.Errors["broken"], "503")
}

func TestService_QuoteAll_EmptyRegistry(t *testing.T) {
	result := newTestService(carrier.NewRegistry()).QuoteAll(context.Background(), quoteRequest())

	assert.NotNil(t, result)
	assert.Empty(t, result.Rates)
	assert.Empty(t, result.Errors)
}

func TestService_QuoteFrom_UnknownCarrier(t *testing.T) {
	registry := carrier.NewRegistry()
	known := mock.New("known")
	known.OnQuoteRates = fixedRates("known", 8.00)
	registry.Register(known)

	result := newTestService(registry).QuoteFrom(context.Background(), quoteRequest(), []string{"known", "ghost"})

	require.Len(t, result.Rates, 1)
	assert.Equal(t, "known", result.Rates[0].CarrierID)
	assert.Equal(t, carrier.ErrCarrierNotFound.Error(), result.Errors["ghost"])
}

func TestService_Select_ByPrice(t *testing.T) {
	svc := newTestService(carrier.NewRegistry())
	rated := []carrier.RateResponse{
		{CarrierID: "a", TotalAmount: 10, EstimatedDays: 5},
		{CarrierID: "b", TotalAmount: 20, EstimatedDays: 1},
	}

	best := svc.Select(rated, rates.ByPrice)

	require.NotNil(t, best)
	assert.Equal(t, "a", best.CarrierID)
}

func TestService_Select_ByTime(t *testing.T) {
	svc := newTestService(carrier.NewRegistry())
	rated := []carrier.RateResponse{
		{CarrierID: "slow", TotalAmount: 10, EstimatedDays: 5},
		{CarrierID: "fast", TotalAmount: 60, EstimatedDays: 1},
		{CarrierID: "mystery", TotalAmount: 5}, // no estimate sorts last
	}

	best := svc.Select(rated, rates.ByTime)

	require.NotNil(t, best)
	assert.Equal(t, "fast", best.CarrierID)
}

func TestService_Select_ByValue(t *testing.T) {
	svc := newTestService(carrier.NewRegistry())
	rated := []carrier.RateResponse{
		{CarrierID: "cheap-slow", TotalAmount: 10, EstimatedDays: 6}, // 60
		{CarrierID: "balanced", TotalAmount: 18, EstimatedDays: 2},   // 36
		{CarrierID: "fast-dear", TotalAmount: 50, EstimatedDays: 1},  // 50
	}

	best := svc.Select(rated, rates.ByValue)

	require.NotNil(t, best)
	assert.Equal(t, "balanced", best.CarrierID)
}

func TestService_Select_Empty(t *testing.T) {
	svc := newTestService(carrier.NewRegistry())

	assert.Nil(t, svc.Select(nil, rates.ByPrice))
}

func TestService_BestQuote_EqualsCheapestAfterSort(t *testing.T) {
	registry := carrier.NewRegistry()
	a := mock.New("alpha")
	a.OnQuoteRates = fixedRates("alpha", 31.00)
	b := mock.New("bravo")
	b.OnQuoteRates = fixedRates("bravo", 7.25)
	registry.Register(a)
	registry.Register(b)
	svc := newTestService(registry)

	best := svc.BestQuote(context.Background(), quoteRequest(), rates.ByPrice)

	require.NotNil(t, best)
	assert.Equal(t, "bravo", best.CarrierID)
	assert.Equal(t, 7.25, best.TotalAmount)
}

func TestService_Track_ProbesInRegistrationOrder(t *testing.T) {
	registry := carrier.NewRegistry()

	var probed []string
	first := mock.New("first")
	first.OnTrack = func(ctx context.Context, n string) (*carrier.TrackingResponse, error) {
		probed = append(probed, "first")
		return nil, carrier.ErrTrackingNotFound
	}
	second := mock.New("second")
	second.OnTrack = func(ctx context.Context, n string) (*carrier.TrackingResponse, error) {
		probed = append(probed, "second")
		return &carrier.TrackingResponse{CarrierID: "second", TrackingNumber: n, Status: carrier.StatusDelivered}, nil
	}
	registry.Register(first)
	registry.Register(second)

	resp := newTestService(registry).Track(context.Background(), "XYZ123")

	require.NotNil(t, resp)
	assert.Equal(t, "second", resp.CarrierID)
	assert.Equal(t, []string{"first", "second"}, probed)
}

func TestService_Track_Unrecognized(t *testing.T) {
	registry := carrier.NewRegistry()
	c := mock.New("only")
	c.OnTrack = func(ctx context.Context, n string) (*carrier.TrackingResponse, error) {
		return nil, carrier.ErrTrackingNotFound
	}
	registry.Register(c)

	resp := newTestService(registry).Track(context.Background(), "NOPE")

	assert.Nil(t, resp)
}
