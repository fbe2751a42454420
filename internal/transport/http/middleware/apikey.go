package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// APIKey enforces the X-API-Key header (spec §6 "Authentication") on
// every POST endpoint that consumes LLM/fetch resources. A request with
// a missing or mismatched key gets 401 before reaching the handler.
func APIKey(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expected == "" {
			return c.Next() // auth disabled (e.g. local dev without APP_API_KEY set)
		}
		if c.Get("X-API-Key") != expected {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or invalid API key"})
		}
		return c.Next()
	}
}
