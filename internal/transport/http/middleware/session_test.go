package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"veritas/internal/auth"
)

type fakeVerifier struct {
	claims *auth.SessionClaims
	err    error
}

func (f *fakeVerifier) VerifyToken(token string) (*auth.SessionClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func appWithSessionAuth(v auth.Verifier) *fiber.App {
	app := fiber.New()
	app.Use(SessionAuth(v))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		claims, ok := c.Locals(SessionClaimsLocalsKey).(*auth.SessionClaims)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(claims.UserID())
	})
	return app
}

func TestSessionAuth_NilVerifierIsNoop(t *testing.T) {
	app := appWithSessionAuth(nil)
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
}

func TestSessionAuth_NoHeaderPassesThrough(t *testing.T) {
	app := appWithSessionAuth(&fakeVerifier{err: errors.New("should not be called")})
	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("want 200 for a request with no Authorization header, got %d", resp.StatusCode)
	}
}

func TestSessionAuth_ValidTokenAttachesClaims(t *testing.T) {
	claims := &auth.SessionClaims{}
	claims.Subject = "user-42"
	app := appWithSessionAuth(&fakeVerifier{claims: claims})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "user-42" {
		t.Fatalf("want claims attached (body %q), got %q", "user-42", body)
	}
}

func TestSessionAuth_InvalidTokenRejected(t *testing.T) {
	app := appWithSessionAuth(&fakeVerifier{err: errors.New("bad signature")})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("want 401 for a token the verifier rejects, got %d", resp.StatusCode)
	}
}
