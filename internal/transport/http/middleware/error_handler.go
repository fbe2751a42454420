package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"veritas/internal/domain"
)

// ErrorHandler maps a domain.ErrorKind (spec §7) to an HTTP status and
// returns an {error, code} JSON body; a *fiber.Error keeps its own
// status and gets an {error} body only. Follows
// haowjy-meridian/internal/middleware/error_handler.go's shape.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		kind := domain.KindOf(err)
		status := statusForKind(kind)
		if status == fiber.StatusInternalServerError {
			logger.Error("unhandled request error", "error", err, "path", c.Path())
		}

		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
			"code":  string(kind),
		})
	}
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindClientError, domain.KindSchemaViolation:
		return fiber.StatusBadRequest
	case domain.KindAuthError:
		return fiber.StatusUnauthorized
	case domain.KindRateLimited:
		return fiber.StatusTooManyRequests
	case domain.KindProviderUnavailable, domain.KindFetchBlocked:
		return fiber.StatusBadGateway
	case domain.KindFetchTimeout:
		return fiber.StatusGatewayTimeout
	case domain.KindTooLarge:
		return fiber.StatusRequestEntityTooLarge
	case domain.KindContentFilter:
		return fiber.StatusUnprocessableEntity
	case domain.KindCancelled:
		return 499
	default:
		return fiber.StatusInternalServerError
	}
}
