package dhl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parcelforge/shipping/pkg/carrier"
)

// HTTPAPIClient is the production implementation of APIClient.
type HTTPAPIClient struct {
	transport *carrier.Transport
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// NewHTTPAPIClient creates an HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	tokens := carrier.NewTokenSource(carrierID, tokenFunc(cfg.BaseURL, cfg.APIKey, cfg.APISecret, timeout))

	return &HTTPAPIClient{
		transport: carrier.NewTransport(carrier.TransportConfig{
			CarrierID: carrierID,
			BaseURL:   cfg.BaseURL,
			Timeout:   timeout,
			Tokens:    tokens,
		}),
	}
}

// tokenFunc exchanges the API key pair for a bearer token at POST /auth/v1/token.
func tokenFunc(baseURL, apiKey, apiSecret string, timeout time.Duration) carrier.TokenFunc {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context) (string, time.Duration, error) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")
		form.Set("client_id", apiKey)
		form.Set("client_secret", apiSecret)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/v1/token", strings.NewReader(form.Encode()))
		if err != nil {
			return "", 0, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := client.Do(req)
		if err != nil {
			return "", 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return "", 0, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, body)
		}

		var token struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
			return "", 0, fmt.Errorf("failed to decode token response: %w", err)
		}
		return token.AccessToken, time.Duration(token.ExpiresIn) * time.Second, nil
	}
}

// GetRates fetches product quotes via POST /rates.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RatesQuery) (*ProductsResponse, error) {
	var out ProductsResponse
	if err := c.transport.DoJSON(ctx, http.MethodPost, "/rates", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateShipment books a shipment via POST /shipments.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipmentWireRequest) (*ShipmentWireResponse, error) {
	var out ShipmentWireResponse
	if err := c.transport.DoJSON(ctx, http.MethodPost, "/shipments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTracking retrieves tracking via GET /shipments/{id}/tracking.
func (c *HTTPAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackingWireResponse, error) {
	var out TrackingWireResponse
	path := "/shipments/" + url.PathEscape(trackingNumber) + "/tracking"
	if err := c.transport.DoJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateAddress checks serviceability via GET /address-validate.
func (c *HTTPAPIClient) ValidateAddress(ctx context.Context, req *AddressQuery) (*AddressWireResponse, error) {
	query := url.Values{}
	query.Set("type", req.Type)
	query.Set("postalCode", req.PostalCode)
	query.Set("cityName", req.CityName)
	query.Set("countryCode", req.CountryCode)

	var out AddressWireResponse
	if err := c.transport.DoJSON(ctx, http.MethodGet, "/address-validate?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelShipment cancels via DELETE /shipments/{id}.
func (c *HTTPAPIClient) CancelShipment(ctx context.Context, shipmentID string) (*CancelWireResponse, error) {
	var out CancelWireResponse
	path := "/shipments/" + url.PathEscape(shipmentID)
	if err := c.transport.DoJSON(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ensure HTTPAPIClient implements APIClient.
var _ APIClient = (*HTTPAPIClient)(nil)
