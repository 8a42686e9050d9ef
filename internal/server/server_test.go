package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almalabs/wabridge/internal/config"
	"github.com/almalabs/wabridge/internal/metrics"
)

// platformStub records every payload posted to the fake WhatsApp endpoint.
type platformStub struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
	status   int
}

func newPlatformStub(t *testing.T) (*platformStub, *httptest.Server) {
	t.Helper()

	stub := &platformStub{status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		stub.mu.Lock()
		stub.payloads = append(stub.payloads, payload)
		status := stub.status
		stub.mu.Unlock()

		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return stub, srv
}

func (p *platformStub) sent() []map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]map[string]interface{}, len(p.payloads))
	copy(out, p.payloads)
	return out
}

func (p *platformStub) setStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
}

// messageSends filters out read receipts, leaving actual message sends.
func (p *platformStub) messageSends() []map[string]interface{} {
	var out []map[string]interface{}
	for _, payload := range p.sent() {
		if payload["status"] == "read" {
			continue
		}
		out = append(out, payload)
	}
	return out
}

func newAgentStub(t *testing.T, response string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.WhatsApp.VerifyToken = "verify-secret"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	srv, err := NewServer(cfg, metrics.NewMetrics(), zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func TestNewServer(t *testing.T) {
	t.Run("requires config", func(t *testing.T) {
		_, err := NewServer(nil, metrics.NewMetrics(), zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("requires metrics", func(t *testing.T) {
		_, err := NewServer(testConfig(), nil, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("minimal config has no gateways", func(t *testing.T) {
		srv := newTestServer(t, testConfig())
		assert.Nil(t, srv.agent)
		assert.Nil(t, srv.platform)
	})

	t.Run("full config builds both gateways", func(t *testing.T) {
		cfg := testConfig()
		cfg.Agent.URL = "http://agent:8000/run"
		cfg.WhatsApp.APIURL = "https://graph.facebook.com/v18.0/1/messages"
		cfg.WhatsApp.AccessToken = "tok"

		srv := newTestServer(t, cfg)
		assert.NotNil(t, srv.agent)
		assert.NotNil(t, srv.platform)
	})
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "wabridge", body["service"])
	assert.Equal(t, "dev", body["env"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
