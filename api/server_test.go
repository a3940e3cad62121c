package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/creator-staking/api/middleware"
)

func newTestHTTPServer(t *testing.T, config *Config) (*Server, http.Handler) {
	srv, err := NewServer(config, log.NewNopLogger(), WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, srv.Stop(context.Background())) })
	return srv, srv.Handler()
}

func TestServerHealthAndMetrics(t *testing.T) {
	config := DefaultConfig()
	config.DisableRateLimit = true
	_, handler := newTestHTTPServer(t, config)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
	require.EqualValues(t, 0, body["height"])

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "xstake_api_requests_total")
}

func TestServerCORSPreflight(t *testing.T) {
	_, handler := newTestHTTPServer(t, DefaultConfig())

	req := httptest.NewRequest(http.MethodOptions, "/v1/vaults", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerRateLimitsWrites(t *testing.T) {
	config := DefaultConfig()
	config.RateLimit = &middleware.RateLimitConfig{
		IPRequestsPerSecond: 100,
		IPBurst:             100,
		WritesPerSecond:     0.001,
		WriteBurst:          1,
		CleanupInterval:     time.Minute,
		VisitorTTL:          time.Minute,
	}
	config.EnableFaucet = true
	_, handler := newTestHTTPServer(t, config)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/v1/faucet",
			strings.NewReader(`{"address":"nope","denom":"ucreator","amount":"1"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusBadRequest, post())
	require.Equal(t, http.StatusTooManyRequests, post())
}
