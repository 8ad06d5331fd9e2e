package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// captureSink records raw payloads handed to it.
type captureSink struct {
	mu       sync.Mutex
	devices  []string
	payloads [][]byte
}

func (s *captureSink) StoreRaw(_ context.Context, deviceID string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, deviceID)
	s.payloads = append(s.payloads, payload)
}

// fakeProvider is a minimal provider API for tests.
type fakeProvider struct {
	mu          sync.Mutex
	authCalls   int
	trackCalls  int
	rejectToken bool
	trackBody   func() (int, string)
}

func (p *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/authorization", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.authCalls++
		n := p.authCalls
		p.mu.Unlock()

		if r.URL.Query().Get("account") == "" || r.URL.Query().Get("signature") == "" {
			fmt.Fprint(w, `{"code":1}`)
			return
		}
		fmt.Fprintf(w, `{"code":0,"record":{"access_token":"tok-%d","expire_time":9999999999}}`, n)
	})
	mux.HandleFunc("/api/track", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.trackCalls++
		reject := p.rejectToken
		p.rejectToken = false
		body := p.trackBody
		p.mu.Unlock()

		if reject {
			fmt.Fprint(w, `{"code":10012}`)
			return
		}
		status, payload := http.StatusOK, `{"code":0,"record":[{"imei":"355468593059041","accstatus":1,"acctime":7200,"servertime":1756700000}]}`
		if body != nil {
			status, payload = body()
		}
		w.WriteHeader(status)
		fmt.Fprint(w, payload)
	})
	return mux
}

func newTestClient(t *testing.T, baseURL string, sink RawSink) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:            baseURL,
		Account:            "acme",
		Password:           "secret",
		TimeoutSeconds:     5,
		TokenMarginSeconds: 60,
	}, zap.NewNop(), sink)
}

func TestClient_Fetch(t *testing.T) {
	provider := &fakeProvider{}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	sample, err := client.Fetch(context.Background(), "355468593059041")
	require.NoError(t, err)
	assert.Equal(t, "355468593059041", sample.DeviceID)
	assert.Equal(t, int64(1756700000), sample.ObservedAt)
	require.NotNil(t, sample.EngineOn)
	assert.True(t, *sample.EngineOn)
	require.NotNil(t, sample.CumulativeRunSeconds)
	assert.InDelta(t, 7200.0, *sample.CumulativeRunSeconds, 1e-9)

	// Second fetch reuses the cached token.
	_, err = client.Fetch(context.Background(), "355468593059041")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.authCalls)
	assert.Equal(t, 2, provider.trackCalls)
}

func TestClient_TokenRejectedOnce(t *testing.T) {
	provider := &fakeProvider{}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	// Warm the token cache, then have the provider reject it once.
	_, err := client.Fetch(context.Background(), "355468593059041")
	require.NoError(t, err)

	provider.mu.Lock()
	provider.rejectToken = true
	provider.mu.Unlock()

	sample, err := client.Fetch(context.Background(), "355468593059041")
	require.NoError(t, err, "token must be refreshed transparently on rejection")
	assert.NotNil(t, sample)
	assert.Equal(t, 2, provider.authCalls)
}

func TestClient_ProviderDown(t *testing.T) {
	provider := &fakeProvider{
		trackBody: func() (int, string) { return http.StatusBadGateway, "bad gateway" },
	}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	_, err := client.Fetch(context.Background(), "355468593059041")
	require.Error(t, err)
	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnavailable, pe.Kind)
}

func TestClient_MalformedResponse(t *testing.T) {
	provider := &fakeProvider{
		trackBody: func() (int, string) { return http.StatusOK, `<html>maintenance</html>` },
	}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	_, err := client.Fetch(context.Background(), "355468593059041")
	require.Error(t, err)
	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, KindMalformed, pe.Kind)
}

func TestClient_NoRecords(t *testing.T) {
	provider := &fakeProvider{
		trackBody: func() (int, string) { return http.StatusOK, `{"code":0,"record":[]}` },
	}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	_, err := client.Fetch(context.Background(), "355468593059041")
	require.Error(t, err)
	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnavailable, pe.Kind)
}

func TestClient_MalformedRecordArchived(t *testing.T) {
	// A record without any usable timestamp cannot be normalized; the raw
	// payload goes to the sink for diagnosis.
	provider := &fakeProvider{
		trackBody: func() (int, string) {
			return http.StatusOK, `{"code":0,"record":[{"imei":"355468593059041","accstatus":1}]}`
		},
	}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	sink := &captureSink{}
	client := newTestClient(t, srv.URL, sink)

	_, err := client.Fetch(context.Background(), "355468593059041")
	require.Error(t, err)
	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, KindMalformed, pe.Kind)

	require.Len(t, sink.payloads, 1)
	assert.Equal(t, "355468593059041", sink.devices[0])

	var archived map[string]any
	require.NoError(t, json.Unmarshal(sink.payloads[0], &archived))
	assert.Equal(t, "355468593059041", archived["imei"])
}

func TestClient_EmptyDeviceID(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid", nil)

	_, err := client.Fetch(context.Background(), "")
	require.Error(t, err)
	_, ok := AsProviderError(err)
	assert.True(t, ok)
}

func TestClient_MissingCredentials(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused.invalid"}, zap.NewNop(), nil)

	_, err := client.Fetch(context.Background(), "355468593059041")
	require.Error(t, err)
	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnavailable, pe.Kind)
	assert.Equal(t, "authorization", pe.Op)
}
