package carrier_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSource_CachesToken(t *testing.T) {
	var fetches int32
	source := carrier.NewTokenSource("fedex", func(ctx context.Context) (string, time.Duration, error) {
		atomic.AddInt32(&fetches, 1)
		return "tok-1", time.Hour, nil
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		token, err := source.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

func TestTokenSource_RefreshesNearExpiry(t *testing.T) {
	var fetches int32
	source := carrier.NewTokenSource("fedex", func(ctx context.Context) (string, time.Duration, error) {
		n := atomic.AddInt32(&fetches, 1)
		if n == 1 {
			// Lifetime inside the expiry buffer, so the next call refetches.
			return "short-lived", time.Minute, nil
		}
		return "long-lived", time.Hour, nil
	})

	ctx := context.Background()
	token, err := source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "short-lived", token)

	token, err = source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "long-lived", token)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
}

func TestTokenSource_ConcurrentCallersShareOneFetch(t *testing.T) {
	var fetches int32
	release := make(chan struct{})
	source := carrier.NewTokenSource("ups", func(ctx context.Context) (string, time.Duration, error) {
		atomic.AddInt32(&fetches, 1)
		<-release
		return "shared", time.Hour, nil
	})

	const callers = 10
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			token, err := source.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "shared", token)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

func TestTokenSource_FetchFailureIsCredentialError(t *testing.T) {
	source := carrier.NewTokenSource("dhl", func(ctx context.Context) (string, time.Duration, error) {
		return "", 0, errors.New("invalid client")
	})

	_, err := source.Token(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, &carrier.Error{Kind: carrier.KindCredential}))
}

func TestTokenSource_Invalidate(t *testing.T) {
	var fetches int32
	source := carrier.NewTokenSource("fedex", func(ctx context.Context) (string, time.Duration, error) {
		atomic.AddInt32(&fetches, 1)
		return "tok", time.Hour, nil
	})

	ctx := context.Background()
	_, err := source.Token(ctx)
	require.NoError(t, err)

	source.Invalidate()

	_, err = source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
}

func TestTransport_DoJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"answer":42}`))
	}))
	defer srv.Close()

	transport := carrier.NewTransport(carrier.TransportConfig{
		CarrierID: "fedex",
		BaseURL:   srv.URL,
		Tokens: carrier.NewTokenSource("fedex", func(ctx context.Context) (string, time.Duration, error) {
			return "tok", time.Hour, nil
		}),
	})

	var out struct {
		Answer int `json:"answer"`
	}
	err := transport.DoJSON(context.Background(), http.MethodPost, "/rates", map[string]string{"x": "y"}, &out)

	require.NoError(t, err)
	assert.Equal(t, 42, out.Answer)
}

func TestTransport_DoJSON_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"errors":["upstream down"]}`))
	}))
	defer srv.Close()

	transport := carrier.NewTransport(carrier.TransportConfig{CarrierID: "ups", BaseURL: srv.URL})

	err := transport.DoJSON(context.Background(), http.MethodGet, "/track", nil, nil)

	var cerr *carrier.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, carrier.KindProviderResponse, cerr.Kind)
	assert.Equal(t, http.StatusBadGateway, cerr.StatusCode)
	assert.Contains(t, cerr.Body, "upstream down")
}

func TestTransport_DoJSON_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	transport := carrier.NewTransport(carrier.TransportConfig{CarrierID: "dhl", BaseURL: srv.URL})

	err := transport.DoJSON(context.Background(), http.MethodGet, "/rates", nil, nil)

	assert.True(t, errors.Is(err, &carrier.Error{Kind: carrier.KindProviderUnreachable}))
}

func TestTransport_DoJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	transport := carrier.NewTransport(carrier.TransportConfig{CarrierID: "fedex", BaseURL: srv.URL})

	var out map[string]any
	err := transport.DoJSON(context.Background(), http.MethodGet, "/rates", nil, &out)

	var cerr *carrier.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, carrier.KindProviderResponse, cerr.Kind)
	assert.Contains(t, cerr.Message, "decode")
}

func TestTransport_DoJSON_UnmarshalableBody(t *testing.T) {
	transport := carrier.NewTransport(carrier.TransportConfig{CarrierID: "fedex", BaseURL: "http://localhost:0"})

	err := transport.DoJSON(context.Background(), http.MethodPost, "/rates", func() {}, nil)

	assert.True(t, errors.Is(err, &carrier.Error{Kind: carrier.KindRequestConstruction}))
}
