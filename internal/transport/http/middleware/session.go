package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"veritas/internal/auth"
)

// SessionClaimsLocalsKey is the fiber.Ctx Locals key SessionAuth stores
// verified claims under.
const SessionClaimsLocalsKey = "session_claims"

// SessionAuth optionally verifies an "Authorization: Bearer <jwt>"
// header against verifier, attaching the resulting claims to the
// request context for handlers that want richer identity than the
// opaque X-Session-ID header provides. A nil verifier (the default when
// JWKS_URL isn't configured) makes this a no-op, and a request with no
// Authorization header is never rejected here — bearer auth is additive
// to, not a replacement for, the X-API-Key gate.
func SessionAuth(verifier auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verifier == nil {
			return c.Next()
		}

		header := c.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Next()
		}

		claims, err := verifier.VerifyToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid session token"})
		}

		c.Locals(SessionClaimsLocalsKey, claims)
		return c.Next()
	}
}
