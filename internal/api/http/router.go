package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/api-gateway/internal/api/http/handlers"
	"github.com/spec-kit/api-gateway/internal/auth"
	"github.com/spec-kit/api-gateway/internal/gateway"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Filter *auth.Filter
	Proxy  *gateway.Proxy
}

// RegisterRoutes wires HTTP routes. Identity and health routes are
// public; everything else passes the authorization filter before being
// forwarded downstream.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/actuator/health", cfg.Health.Live)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/validate", cfg.Auth.Validate)
	authGroup.Get("/health", cfg.Health.Live)

	for _, route := range cfg.Proxy.Routes() {
		app.All(route.Prefix+"/*", cfg.Filter.Handle, cfg.Proxy.Handler(route))
		app.All(route.Prefix, cfg.Filter.Handle, cfg.Proxy.Handler(route))
	}
}
