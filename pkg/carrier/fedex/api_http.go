package fedex

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

// HTTPAPIClient is the production implementation of APIClient. All
// authenticated calls go through the shared carrier transport, which injects
// the bearer token and translates failures.
type HTTPAPIClient struct {
	transport *carrier.Transport
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	AccountNumber string
	Timeout       time.Duration
}

// NewHTTPAPIClient creates an HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	tokens := carrier.NewTokenSource(carrierID, oauthTokenFunc(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, timeout))

	return &HTTPAPIClient{
		transport: carrier.NewTransport(carrier.TransportConfig{
			CarrierID: carrierID,
			BaseURL:   cfg.BaseURL,
			Timeout:   timeout,
			Tokens:    tokens,
		}),
	}
}

// oauthTokenFunc fetches a client-credentials token from POST /oauth/token.
// The acquisition call itself is deliberately not routed through the
// bearer-decorated transport.
func oauthTokenFunc(baseURL, clientID, clientSecret string, timeout time.Duration) carrier.TokenFunc {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context) (string, time.Duration, error) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")
		form.Set("client_id", clientID)
		form.Set("client_secret", clientSecret)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/oauth/token", strings.NewReader(form.Encode()))
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

// GetRates fetches rate quotes via POST /rate/v1/rates/quotes.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	var out RatesResponse
	if err := c.transport.DoJSON(ctx, http.MethodPost, "/rate/v1/rates/quotes", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateShipment books a shipment via POST /ship/v1/shipments.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	var out ShipmentResponse
	if err := c.transport.DoJSON(ctx, http.MethodPost, "/ship/v1/shipments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTracking retrieves tracking details via POST /track/v1/trackingnumbers.
func (c *HTTPAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackingReply, error) {
	body := map[string]any{
		"includeDetailedScans": true,
		"trackingInfo": []map[string]any{
			{"trackingNumberInfo": map[string]string{"trackingNumber": trackingNumber}},
		},
	}
	var out TrackingReply
	if err := c.transport.DoJSON(ctx, http.MethodPost, "/track/v1/trackingnumbers", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateAddress resolves an address via POST /address/v1/addresses/resolve.
func (c *HTTPAPIClient) ValidateAddress(ctx context.Context, req *AddressRequest) (*AddressReply, error) {
	var out AddressReply
	if err := c.transport.DoJSON(ctx, http.MethodPost, "/address/v1/addresses/resolve", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelShipment voids a shipment via PUT /ship/v1/shipments/cancel.
func (c *HTTPAPIClient) CancelShipment(ctx context.Context, shipmentID string) (*CancelReply, error) {
	body := map[string]string{"trackingNumber": shipmentID}
	var out CancelReply
	if err := c.transport.DoJSON(ctx, http.MethodPut, "/ship/v1/shipments/cancel", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ensure HTTPAPIClient implements APIClient.
var _ APIClient = (*HTTPAPIClient)(nil)
