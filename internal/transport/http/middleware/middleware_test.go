package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"veritas/internal/domain"
)

func newTestApp(key string) *fiber.App {
	app := fiber.New()
	app.Use(APIKey(key))
	app.Get("/protected", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAPIKey_NoopWhenUnconfigured(t *testing.T) {
	app := newTestApp("")
	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("want 200 when no API key is configured, got %d", resp.StatusCode)
	}
}

func TestAPIKey_RejectsMissingHeader(t *testing.T) {
	app := newTestApp("secret")
	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("want 401 for a missing key, got %d", resp.StatusCode)
	}
}

func TestAPIKey_AcceptsMatchingHeader(t *testing.T) {
	app := newTestApp("secret")
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("X-API-Key", "secret")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("want 200 for a matching key, got %d", resp.StatusCode)
	}
}

func TestAPIKey_RejectsWrongHeader(t *testing.T) {
	app := newTestApp("secret")
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("X-API-Key", "wrong")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("want 401 for a mismatched key, got %d", resp.StatusCode)
	}
}

func TestErrorHandler_MapsDomainKinds(t *testing.T) {
	cases := []struct {
		kind   domain.ErrorKind
		status int
	}{
		{domain.KindClientError, fiber.StatusBadRequest},
		{domain.KindAuthError, fiber.StatusUnauthorized},
		{domain.KindRateLimited, fiber.StatusTooManyRequests},
		{domain.KindFetchBlocked, fiber.StatusBadGateway},
		{domain.KindFetchTimeout, fiber.StatusGatewayTimeout},
		{domain.KindTooLarge, fiber.StatusRequestEntityTooLarge},
		{domain.KindContentFilter, fiber.StatusUnprocessableEntity},
		{domain.ErrorKind("unknown"), fiber.StatusInternalServerError},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
			app.Get("/boom", func(c *fiber.Ctx) error {
				return domain.WithKind(tc.kind, errors.New("boom"))
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("kind %s: want status %d, got %d", tc.kind, tc.status, resp.StatusCode)
			}
		})
	}
}

func TestErrorHandler_UnwrapsFiberError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "i am a teapot")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusTeapot {
		t.Fatalf("want 418, got %d", resp.StatusCode)
	}
}
