package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/api-gateway/internal/observability"
	"github.com/spec-kit/api-gateway/pkg/util"
)

// Identity headers injected for downstream services. The filter owns
// these: caller-supplied values are stripped before any decision is
// made, so they can never be spoofed from outside the gateway.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"

	bearerPrefix = "Bearer "
)

// Filter intercepts every inbound request, decides pass/reject and
// injects identity headers for the downstream service.
type Filter struct {
	codec   *Codec
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewFilter constructs the authorization filter.
func NewFilter(codec *Codec, logger *zap.Logger, metrics *observability.Metrics) *Filter {
	return &Filter{codec: codec, logger: logger, metrics: metrics}
}

// Handle enforces authentication for protected routes. Token problems
// never escalate past 401: a panic while decoding is recovered and
// treated as an invalid token.
func (f *Filter) Handle(c *fiber.Ctx) error {
	c.Request().Header.Del(HeaderUserID)
	c.Request().Header.Del(HeaderUserEmail)
	c.Request().Header.Del(HeaderUserRole)

	if bypassAuth(c.Method(), c.Path()) {
		return c.Next()
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return f.reject(c, fiber.StatusUnauthorized, util.CodeMissingCredential, "missing authorization header")
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return f.reject(c, fiber.StatusUnauthorized, util.CodeMalformedCredential, "invalid authorization header format")
	}
	token := authHeader[len(bearerPrefix):]

	claims, err := f.decodeSafely(token)
	if err != nil {
		return f.reject(c, fiber.StatusUnauthorized, util.CodeInvalidOrExpiredToken, "invalid or expired token")
	}

	c.Request().Header.Set(HeaderUserID, claims.UserID)
	c.Request().Header.Set(HeaderUserEmail, claims.Email())
	c.Request().Header.Set(HeaderUserRole, claims.Role.String())

	return c.Next()
}

// bypassAuth reports whether the request skips token inspection:
// pre-flight requests and health-check paths are always forwarded.
func bypassAuth(method, path string) bool {
	return method == fiber.MethodOptions ||
		strings.HasSuffix(path, "/health") ||
		strings.Contains(path, "/actuator/health")
}

// decodeSafely verifies and extracts claims, converting any panic into
// a decode failure.
func (f *Filter) decodeSafely(token string) (claims *Claims, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("token decode panic", zap.Any("panic", r))
			claims, err = nil, ErrMalformed
		}
	}()
	return f.codec.Decode(token)
}

// reject writes the error response itself instead of delegating to the
// error middleware. Every authentication failure stays a 401.
func (f *Filter) reject(c *fiber.Ctx, status int, code, message string) error {
	if status == fiber.StatusUnauthorized {
		f.logger.Warn("authentication rejected", zap.String("code", code), zap.String("reason", message))
	} else {
		f.logger.Error("authentication rejected", zap.String("code", code), zap.String("reason", message))
	}
	f.metrics.RecordAuthRejection(code)
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{"code": code, "message": message},
	})
}
