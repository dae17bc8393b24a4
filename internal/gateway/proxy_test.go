package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/api-gateway/internal/config"
	"github.com/spec-kit/api-gateway/internal/observability"
)

func newProxyApp(t *testing.T, target string) (*fiber.App, *Proxy) {
	t.Helper()
	route := Route{Service: "user", Prefix: "/api/users", Target: target}
	p := NewProxy(config.GatewayConfig{
		ProxyTimeoutSeconds: 2,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.6,
		BreakerOpenSeconds:  30,
	}, []Route{route}, NewFallbackResponder(), zap.NewNop(), observability.NewMetrics())

	app := fiber.New()
	app.All(route.Prefix+"/*", p.Handler(route))
	app.All(route.Prefix, p.Handler(route))
	return app, p
}

func TestProxyForwardsToDownstream(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":"` + r.Header.Get("X-User-Id") + `","path":"` + r.URL.Path + `"}`))
	}))
	defer downstream.Close()

	app, _ := newProxyApp(t, downstream.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1", nil)
	req.Header.Set("X-User-Id", "u1")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload struct {
		UserID string `json:"userId"`
		Path   string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "u1", payload.UserID)
	assert.Equal(t, "/api/users/u1", payload.Path)
}

func TestProxyFallsBackWhenDownstreamUnreachable(t *testing.T) {
	// Nothing listens on this address.
	app, _ := newProxyApp(t, "http://127.0.0.1:1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/u1", nil), 10000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "User service is temporarily unavailable. Please try again later.", payload.Message)
	assert.Equal(t, http.StatusServiceUnavailable, payload.Status)
}

func TestProxyBreakerOpensAfterRepeatedFailures(t *testing.T) {
	app, p := newProxyApp(t, "http://127.0.0.1:1")

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/u1", nil), 10000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	}

	assert.Equal(t, gobreaker.StateOpen, p.breakers["user"].State(),
		"breaker must open once the failure ratio is reached")

	// With the breaker open the fallback is immediate; the request
	// still gets the same static payload.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/u1", nil), 10000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
