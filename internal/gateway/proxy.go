package gateway

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spec-kit/api-gateway/internal/config"
	"github.com/spec-kit/api-gateway/internal/observability"
)

// Route maps a path prefix onto a downstream service.
type Route struct {
	Service string
	Prefix  string
	Target  string
}

// Proxy forwards protected requests to downstream services. Each
// downstream gets its own circuit breaker; when the breaker is open or
// the forward fails, the static fallback payload is returned instead.
type Proxy struct {
	routes   []Route
	breakers map[string]*gobreaker.CircuitBreaker
	fallback *FallbackResponder
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewProxy builds the proxy with one breaker per route.
func NewProxy(cfg config.GatewayConfig, routes []Route, fallback *FallbackResponder, logger *zap.Logger, metrics *observability.Metrics) *Proxy {
	p := &Proxy{
		routes:   routes,
		breakers: make(map[string]*gobreaker.CircuitBreaker, len(routes)),
		fallback: fallback,
		timeout:  cfg.ProxyTimeout(),
		logger:   logger,
		metrics:  metrics,
	}

	minRequests := cfg.BreakerMinRequests
	if minRequests == 0 {
		minRequests = 3
	}
	failureRatio := cfg.BreakerFailureRatio
	if failureRatio <= 0 {
		failureRatio = 0.6
	}
	openTimeout := time.Duration(cfg.BreakerOpenSeconds) * time.Second
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	for _, route := range routes {
		p.breakers[route.Service] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    route.Service,
			Timeout: openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= minRequests && ratio >= failureRatio
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					zap.String("service", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}
	return p
}

// Routes returns the configured route table.
func (p *Proxy) Routes() []Route {
	return p.routes
}

// Handler returns the forwarding handler for the given route.
func (p *Proxy) Handler(route Route) fiber.Handler {
	breaker := p.breakers[route.Service]
	target := strings.TrimRight(route.Target, "/")

	return func(c *fiber.Ctx) error {
		url := target + c.OriginalURL()

		_, err := breaker.Execute(func() (interface{}, error) {
			return nil, proxy.DoTimeout(c, url, p.timeout)
		})
		if err != nil {
			p.logger.Warn("downstream unavailable",
				zap.String("service", route.Service),
				zap.String("url", url),
				zap.Error(err))
			p.metrics.RecordProxy(route.Service, "fallback")
			return p.fallback.Respond(c, route.Service)
		}

		p.metrics.RecordProxy(route.Service, "forwarded")
		// The proxied response is already written onto the context.
		c.Response().Header.Del(fiber.HeaderServer)
		return nil
	}
}
