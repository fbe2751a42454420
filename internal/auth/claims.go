// Package auth implements an optional, JWT-backed session-identity
// upgrade path: verifying a Bearer token against a JWKS endpoint and
// resolving it to a SessionClaims value. Most deployments never
// configure JWKS_URL and run on the X-API-Key scheme alone (spec §6);
// this package exists for installations that front veritas with a
// Supabase-, Auth0-, or Clerk-style identity provider and want
// per-session identity beyond an opaque session_id header.
package auth

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the JWT claims shape this verifier accepts: standard
// registered claims plus the handful of fields a bearer-token identity
// provider typically adds (adapted from Supabase's JWT schema, the
// shape the pack's own JWT verifier was built against).
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"` // e.g. "authenticated" vs "anon"
}

// UserID returns the claims' subject, the session's stable identifier.
func (c *SessionClaims) UserID() string { return c.Subject }

// Verifier validates a bearer token and extracts its claims.
type Verifier interface {
	VerifyToken(tokenString string) (*SessionClaims, error)
}
