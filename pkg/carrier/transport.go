package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// tokenExpiryBuffer is subtracted from a token's advertised lifetime so a
// token is never used right at its expiry edge.
const tokenExpiryBuffer = 5 * time.Minute

// TokenFunc acquires a fresh bearer token from a provider's credential
// endpoint, returning the token and its advertised lifetime.
type TokenFunc func(ctx context.Context) (token string, expiresIn time.Duration, err error)

// TokenSource caches a provider access token in memory and refreshes it on
// demand. Concurrent callers racing on an expired token share a single
// in-flight fetch.
type TokenSource struct {
	carrierID string
	fetch     TokenFunc

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	group     singleflight.Group
}

// NewTokenSource creates a token source for one carrier.
func NewTokenSource(carrierID string, fetch TokenFunc) *TokenSource {
	return &TokenSource{carrierID: carrierID, fetch: fetch}
}

// Token returns a cached token, fetching a new one when the cached token is
// missing or within the expiry buffer.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.token != "" && time.Until(s.expiresAt) > tokenExpiryBuffer {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("token", func() (any, error) {
		token, expiresIn, err := s.fetch(ctx)
		if err != nil {
			return "", NewCredentialError(s.carrierID, "token acquisition failed", err)
		}
		s.mu.Lock()
		s.token = token
		s.expiresAt = time.Now().Add(expiresIn)
		s.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate discards the cached token. The next call to Token fetches anew.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// Transport is the HTTP plumbing shared by every concrete adapter. It
// decorates outbound requests with a bearer credential, translates all
// failures into the carrier error taxonomy, and never panics on provider
// misbehavior.
type Transport struct {
	carrierID  string
	baseURL    string
	httpClient *http.Client
	tokens     *TokenSource // nil for unauthenticated transports
}

// TransportConfig holds construction options for a Transport.
type TransportConfig struct {
	CarrierID string
	BaseURL   string
	Timeout   time.Duration
	Tokens    *TokenSource
}

// NewTransport creates a transport with a dedicated HTTP client.
func NewTransport(cfg TransportConfig) *Transport {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Transport{
		carrierID:  cfg.CarrierID,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     cfg.Tokens,
	}
}

// DoJSON performs a JSON request against the provider and decodes the
// response into out (when out is non-nil).
func (t *Transport) DoJSON(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return NewConstructionError(t.carrierID, "failed to marshal request body", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, bodyReader)
	if err != nil {
		return NewConstructionError(t.carrierID, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if t.tokens != nil {
		token, err := t.tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return NewUnreachableError(t.carrierID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewUnreachableError(t.carrierID, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewResponseError(t.carrierID, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			respErr := NewResponseError(t.carrierID, resp.StatusCode, string(raw))
			respErr.Message = fmt.Sprintf("failed to decode provider response: %v", err)
			return respErr
		}
	}
	return nil
}
