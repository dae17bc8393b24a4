package gateway

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// FallbackResponder shapes the static degraded-mode response returned
// when a downstream service is unreachable. One payload per service,
// no retry or probing logic.
type FallbackResponder struct {
	messages map[string]string
}

// NewFallbackResponder builds the responder for the three logical
// downstream services.
func NewFallbackResponder() *FallbackResponder {
	return &FallbackResponder{
		messages: map[string]string{
			"auth": "Auth service is temporarily unavailable. Please try again later.",
			"user": "User service is temporarily unavailable. Please try again later.",
			"loan": "Loan service is temporarily unavailable. Please try again later.",
		},
	}
}

// Respond writes the 503 payload for the named service.
func (f *FallbackResponder) Respond(c *fiber.Ctx, service string) error {
	message, ok := f.messages[service]
	if !ok {
		message = fmt.Sprintf("%s service is temporarily unavailable. Please try again later.", service)
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"message": message,
		"status":  fiber.StatusServiceUnavailable,
	})
}

// Message returns the static payload text for the named service.
func (f *FallbackResponder) Message(service string) string {
	return f.messages[service]
}
