package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// contextWithTimeout derives a bounded context from the request context
func contextWithTimeout(c *fiber.Ctx, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), d)
}
