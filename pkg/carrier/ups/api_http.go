package ups

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

// HTTPAPIClient is the production implementation of APIClient using the
// shared carrier transport for bearer decoration and error translation.
type HTTPAPIClient struct {
	transport *carrier.Transport
	version   string
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Version      string // API version segment, e.g. "v2403"
	Timeout      time.Duration
}

// NewHTTPAPIClient creates an HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	version := cfg.Version
	if version == "" {
		version = "v2403"
	}

	tokens := carrier.NewTokenSource(carrierID, oauthTokenFunc(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, timeout))

	return &HTTPAPIClient{
		transport: carrier.NewTransport(carrier.TransportConfig{
			CarrierID: carrierID,
			BaseURL:   cfg.BaseURL,
			Timeout:   timeout,
			Tokens:    tokens,
		}),
		version: version,
	}
}

// oauthTokenFunc fetches a client-credentials token from the UPS security
// endpoint. UPS wants the credentials as Basic auth on the token call.
func oauthTokenFunc(baseURL, clientID, clientSecret string, timeout time.Duration) carrier.TokenFunc {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context) (string, time.Duration, error) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/security/v1/oauth/token", strings.NewReader(form.Encode()))
		if err != nil {
			return "", 0, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(clientID, clientSecret)

		resp, err := client.Do(req)
		if err != nil {
			return "", 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return "", 0, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, body)
		}

		// expires_in arrives as a string on this API
		var token struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   string `json:"expires_in"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
			return "", 0, fmt.Errorf("failed to decode token response: %w", err)
		}

		expires := time.Hour
		if d, err := time.ParseDuration(token.ExpiresIn + "s"); err == nil {
			expires = d
		}
		return token.AccessToken, expires, nil
	}
}

// GetRates fetches rate quotes via POST /api/rating/{version}/Shop.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RateWireRequest) (*RateWireResponse, error) {
	var out RateWireResponse
	path := fmt.Sprintf("/api/rating/%s/Shop", c.version)
	if err := c.transport.DoJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateShipment books a shipment via POST /api/shipments/{version}/ship.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipWireRequest) (*ShipWireResponse, error) {
	var out ShipWireResponse
	path := fmt.Sprintf("/api/shipments/%s/ship", c.version)
	if err := c.transport.DoJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTracking retrieves tracking details via GET /api/track/v1/details/{number}.
func (c *HTTPAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackWireResponse, error) {
	var out TrackWireResponse
	path := "/api/track/v1/details/" + url.PathEscape(trackingNumber)
	if err := c.transport.DoJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateAddress validates via POST /api/addressvalidation/v2/1.
func (c *HTTPAPIClient) ValidateAddress(ctx context.Context, req *XAVRequest) (*XAVResponse, error) {
	var out XAVResponse
	if err := c.transport.DoJSON(ctx, http.MethodPost, "/api/addressvalidation/v2/1", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelShipment voids a shipment via DELETE /api/shipments/{version}/void/cancel/{id}.
func (c *HTTPAPIClient) CancelShipment(ctx context.Context, shipmentID string) (*VoidWireResponse, error) {
	var out VoidWireResponse
	path := fmt.Sprintf("/api/shipments/%s/void/cancel/%s", c.version, url.PathEscape(shipmentID))
	if err := c.transport.DoJSON(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ensure HTTPAPIClient implements APIClient.
var _ APIClient = (*HTTPAPIClient)(nil)
