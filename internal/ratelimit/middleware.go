package ratelimit

import (
	"github.com/gofiber/fiber/v2"
)

// Middleware returns a Fiber handler that rejects requests exceeding
// limiter's per-client budget with 429, keyed by whichever of
// Authorization header, X-Session-ID header, or remote IP is present
// first — grounded on the teacher's getClientIP fallback chain in
// internal/middleware/security.go, extended with the two
// higher-priority identifiers this API actually has available.
func Middleware(limiter Allower) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := clientKey(c)
		if !limiter.Allow(c.Context(), key) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}

func clientKey(c *fiber.Ctx) string {
	if tok := c.Get("Authorization"); tok != "" {
		return "auth:" + tok
	}
	if sid := c.Get("X-Session-ID"); sid != "" {
		return "session:" + sid
	}
	return "ip:" + c.IP()
}
