package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/parcelforge/shipping/internal/server"
	"github.com/parcelforge/shipping/internal/telemetry"
	"github.com/parcelforge/shipping/internal/zones"
	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/parcelforge/shipping/pkg/carrier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Prometheus collectors register globally, so the package shares one set.
var testMetrics = telemetry.NewMetrics()

func newTestHandler(t *testing.T, carriers ...carrier.Carrier) http.Handler {
	t.Helper()

	registry := carrier.NewRegistry()
	for _, c := range carriers {
		registry.Register(c)
	}

	store := zones.NewMemoryStore(
		[]zones.Zone{{ID: "domestic", Regions: []zones.Region{{Country: "US"}}, Priority: 1, Active: true}},
		[]zones.Method{{ID: "m1", Code: "standard", Name: "Standard", BaseRate: 7.99, Currency: "USD", TransitDays: 5, Active: true}},
		[]zones.Rate{{ID: "r1", MethodID: "m1", ZoneID: "domestic", Amount: 4.99, Active: true}},
	)

	logger := otelzap.New(zap.NewNop())
	srv := server.New(server.Config{
		Port: 8080,
		DefaultOrigin: carrier.Address{
			Name: "ParcelForge Warehouse", Line1: "100 Depot Way", City: "Memphis",
			State: "TN", PostalCode: "38116", CountryCode: "US",
		},
	}, registry, store, testMetrics, logger)
	return srv.Handler()
}

const quoteBody = `{
	"origin": {"name":"Sender","line1":"1 Main St","city":"Memphis","state":"TN","postalCode":"38116","countryCode":"US"},
	"destination": {"name":"Receiver","line1":"2 Oak Ave","city":"Portland","state":"OR","postalCode":"97201","countryCode":"US"},
	"packages": [{"weight":{"value":2,"unit":"kg"}}]
}`

func TestServer_Health(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Quotes(t *testing.T) {
	handler := newTestHandler(t, mock.New("mock-carrier"))

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(quoteBody))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rates  []carrier.RateResponse `json:"rates"`
		Errors map[string]string      `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Rates, 2)
	// Sorted ascending by total.
	assert.LessOrEqual(t, resp.Rates[0].TotalAmount, resp.Rates[1].TotalAmount)
}

func TestServer_Quotes_DefaultOriginApplied(t *testing.T) {
	var captured carrier.Address
	probe := mock.New("probe")
	probe.OnQuoteRates = func(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateResponse, error) {
		captured = req.Origin
		return []carrier.RateResponse{{CarrierID: "probe", TotalAmount: 9.99, Currency: "USD"}}, nil
	}
	handler := newTestHandler(t, probe)

	// No origin in the body; the configured default fills it in.
	body := `{
		"destination": {"name":"Receiver","line1":"2 Oak Ave","city":"Portland","state":"OR","postalCode":"97201","countryCode":"US"},
		"packages": [{"weight":{"value":2,"unit":"kg"}}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ParcelForge Warehouse", captured.Name)
	assert.Equal(t, "38116", captured.PostalCode)
}

func TestServer_Quotes_InvalidBody(t *testing.T) {
	handler := newTestHandler(t, mock.New("mock-carrier"))

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(`{"origin":{}}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Quotes_MalformedJSON(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp["error"], "invalid JSON")
}

func TestServer_BestQuote(t *testing.T) {
	cheap := mock.New("cheap")
	cheap.OnQuoteRates = func(ctx context.Context, req *carrier.RateRequest) ([]carrier.RateResponse, error) {
		return []carrier.RateResponse{{CarrierID: "cheap", TotalAmount: 4.20, Currency: "USD"}}, nil
	}
	handler := newTestHandler(t, mock.New("regular"), cheap)

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/best", strings.NewReader(quoteBody))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var best carrier.RateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&best))
	assert.Equal(t, "cheap", best.CarrierID)
}

func TestServer_BestQuote_NoRates(t *testing.T) {
	handler := newTestHandler(t) // no carriers registered

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/best", strings.NewReader(quoteBody))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Tracking(t *testing.T) {
	handler := newTestHandler(t, mock.New("mock-carrier"))

	req := httptest.NewRequest(http.MethodGet, "/v1/tracking/ABC123", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp carrier.TrackingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ABC123", resp.TrackingNumber)
	assert.Equal(t, carrier.StatusInTransit, resp.Status)
}

func TestServer_Tracking_NotFound(t *testing.T) {
	unaware := mock.New("unaware")
	unaware.OnTrack = func(ctx context.Context, n string) (*carrier.TrackingResponse, error) {
		return nil, carrier.ErrTrackingNotFound
	}
	handler := newTestHandler(t, unaware)

	req := httptest.NewRequest(http.MethodGet, "/v1/tracking/NOPE", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Carriers(t *testing.T) {
	handler := newTestHandler(t, mock.New("alpha"), mock.New("bravo"))

	req := httptest.NewRequest(http.MethodGet, "/v1/carriers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Carriers []carrier.Info `json:"carriers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Carriers, 2)
	assert.Equal(t, "alpha", resp.Carriers[0].ID)
}

func TestServer_InternalRate(t *testing.T) {
	handler := newTestHandler(t)

	body := `{"methodCode":"standard","countryCode":"US","postalCode":"97201","weightKg":2}`
	req := httptest.NewRequest(http.MethodPost, "/v1/rates/internal", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resolved zones.ResolvedRate
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resolved))
	assert.Equal(t, 4.99, resolved.Amount)
	assert.False(t, resolved.BaseRate)
}

func TestServer_InternalRate_UnknownMethod(t *testing.T) {
	handler := newTestHandler(t)

	body := `{"methodCode":"teleport","countryCode":"US"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/rates/internal", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_InternalRate_ValidationError(t *testing.T) {
	handler := newTestHandler(t)

	body := `{"methodCode":"standard","countryCode":"USA"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/rates/internal", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Methods(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/rates/methods", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Methods []zones.Method `json:"methods"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Methods, 1)
	assert.Equal(t, "standard", resp.Methods[0].Code)
}

func TestServer_MethodByID(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/rates/methods/m1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var method zones.Method
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&method))
	assert.Equal(t, "standard", method.Code)
	assert.Equal(t, 7.99, method.BaseRate)
}

func TestServer_MethodByID_NotFound(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/rates/methods/ghost", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
