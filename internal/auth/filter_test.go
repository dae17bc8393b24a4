package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/api-gateway/internal/domain"
	"github.com/spec-kit/api-gateway/internal/observability"
)

// capturedHeaders records what the downstream handler saw.
type capturedHeaders struct {
	hit    bool
	userID string
	email  string
	role   string
}

func newFilterApp(t *testing.T, codec *Codec) (*fiber.App, *capturedHeaders) {
	t.Helper()
	captured := &capturedHeaders{}
	filter := NewFilter(codec, zap.NewNop(), observability.NewMetrics())

	app := fiber.New()
	app.Use(filter.Handle)
	app.All("/*", func(c *fiber.Ctx) error {
		captured.hit = true
		captured.userID = c.Get(HeaderUserID)
		captured.email = c.Get(HeaderUserEmail)
		captured.role = c.Get(HeaderUserRole)
		return c.SendString("ok")
	})
	return app, captured
}

func TestFilterRejectsMissingHeader(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	app, captured := newFilterApp(t, codec)

	for _, path := range []string{"/api/users/u1", "/api/loans", "/anything"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
	}
	assert.False(t, captured.hit, "downstream must never be reached without credentials")
}

func TestFilterRejectsWrongScheme(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	app, captured := newFilterApp(t, codec)

	tests := []struct {
		name   string
		header string
	}{
		{"basic scheme", "Basic abc"},
		{"lowercase bearer", "bearer sometoken"},
		{"no space", "Bearertoken"},
		{"token only", "sometoken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/u1", nil)
			req.Header.Set("Authorization", tt.header)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
	assert.False(t, captured.hit)
}

func TestFilterRejectsBadTokens(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	app, captured := newFilterApp(t, codec)

	valid, _, err := codec.Issue("u1", "a@b.c", domain.RoleCustomer, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"tampered", tamperSignature(t, valid)},
		{"expired", expiredToken(t, testSecret, "u1", "a@b.c", domain.RoleCustomer)},
		{"no expiry claim", tokenWithoutExpiry(t, testSecret, "u1", "a@b.c", domain.RoleCustomer)},
		{"wrong secret", func() string {
			tok, _, err := NewCodec("other", time.Hour).Issue("u1", "a@b.c", domain.RoleCustomer, time.Hour)
			require.NoError(t, err)
			return tok
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/u1", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
	assert.False(t, captured.hit)
}

func TestFilterInjectsIdentityHeaders(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	app, captured := newFilterApp(t, codec)

	token, _, err := codec.Issue("u1", "alice@example.com", domain.RoleCustomer, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/loans/l-9", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	// Spoofing attempt: the filter must overwrite these.
	req.Header.Set(HeaderUserID, "attacker")
	req.Header.Set(HeaderUserEmail, "attacker@evil.example")
	req.Header.Set(HeaderUserRole, "SYSTEM_ADMIN")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, captured.hit)
	assert.Equal(t, "u1", captured.userID)
	assert.Equal(t, "alice@example.com", captured.email)
	assert.Equal(t, "CUSTOMER", captured.role)
}

func TestFilterStripsSpoofedHeadersOnBypass(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	app, captured := newFilterApp(t, codec)

	req := httptest.NewRequest(http.MethodGet, "/actuator/health", nil)
	req.Header.Set(HeaderUserRole, "SYSTEM_ADMIN")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, captured.hit)
	assert.Empty(t, captured.role, "spoofed header must not survive the filter")
}

func TestFilterBypass(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	app, _ := newFilterApp(t, codec)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"preflight", http.MethodOptions, "/api/users/u1"},
		{"health suffix", http.MethodGet, "/api/users/health"},
		{"actuator health", http.MethodGet, "/actuator/health"},
		{"actuator health subpath", http.MethodGet, "/service/actuator/health/liveness"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode, "bypass path must not require credentials")
		})
	}
}
