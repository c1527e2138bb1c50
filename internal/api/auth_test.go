package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"postavka/internal/config"
	"postavka/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newAuthTestServer(t *testing.T, cfg config.APIConfig) *httptest.Server {
	t.Helper()
	db := newTestDB(t)
	logger := zerolog.New(io.Discard)
	assignments := service.NewAssignmentService(db, nil, nil, &logger)
	fulfillment := service.NewFulfillmentService(db, nil, nil, &logger)
	settlement := service.NewSettlementService(db, nil, nil, &logger)
	server := NewHTTPServer(cfg, assignments, fulfillment, settlement, db, nil, &logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestAuth(t *testing.T) {
	cfg := config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: "reader-key", Name: "reader", Permissions: []string{"read"}},
				{Key: "admin-key", Name: "admin", Permissions: []string{"read", "write"}},
				{Key: "open-key", Name: "open"},
			},
		},
	}
	ts := newAuthTestServer(t, cfg)

	doRequest := func(method, path, key string) *http.Response {
		req, _ := http.NewRequest(method, ts.URL+path, http.NoBody)
		if key != "" {
			req.Header.Set("x-api-key", key)
		}
		resp, err := http.DefaultClient.Do(req)
		assert.NoError(t, err)
		return resp
	}

	t.Run("MissingKey", func(t *testing.T) {
		resp := doRequest("GET", "/api/v1/items", "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		resp := doRequest("GET", "/api/v1/items", "wrong")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("ReadWithReadKey", func(t *testing.T) {
		resp := doRequest("GET", "/api/v1/items", "reader-key")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("WriteWithReadKeyForbidden", func(t *testing.T) {
		resp := doRequest("POST", "/api/v1/items/1/accept", "reader-key")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("WriteWithAdminKey", func(t *testing.T) {
		// Auth passes; 404 is the handler's answer for a missing item.
		resp := doRequest("POST", "/api/v1/items/1/accept", "admin-key")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("EmptyPermissionsAllowAll", func(t *testing.T) {
		resp := doRequest("POST", "/api/v1/items/1/accept", "open-key")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	cfg := config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth:    config.APIAuthConfig{Enabled: false},
	}
	ts := newAuthTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/api/v1/items")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	cfg := config.APIConfig{
		Enabled:   true,
		HTTP:      config.APIHTTPConfig{Enabled: true, Port: 0},
		RateLimit: config.APIRateLimitConfig{RPS: 1, Burst: 1},
	}
	ts := newAuthTestServer(t, cfg)

	resp1, err := http.Get(ts.URL + "/api/v1/items")
	if err != nil {
		t.Fatalf("request 1 failed: %v", err)
	}
	defer resp1.Body.Close()
	if resp1.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp1.StatusCode)
	}

	resp2, err := http.Get(ts.URL + "/api/v1/items")
	if err != nil {
		t.Fatalf("request 2 failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", resp2.StatusCode)
	}
}

func TestFindClientConstantTime(t *testing.T) {
	auth := NewHTTPAuth(config.APIConfig{
		Auth: config.APIAuthConfig{
			APIKeys: []config.APIClientKey{
				{Key: "aaa", Name: "first"},
				{Key: "bbb", Name: "second"},
			},
		},
	})

	client, ok := auth.findClient("bbb")
	assert.True(t, ok)
	assert.Equal(t, "second", client.Name)

	_, ok = auth.findClient("ccc")
	assert.False(t, ok)
}
