package httpapi

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"taskTracker/internal/service"
)

// statusOf maps a domain error kind to its HTTP status.
func statusOf(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindTaskNotCompleted:
		return fiber.StatusBadRequest
	case service.KindAuthentication:
		return fiber.StatusUnauthorized
	case service.KindPermissionDenied, service.KindForbidden:
		return fiber.StatusForbidden
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as {"error": message}. Internal errors are logged and
// never expose their cause.
func writeError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	kind := service.KindOf(err)
	if kind == service.KindInternal {
		logger.Error("request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}
	return c.Status(statusOf(kind)).JSON(fiber.Map{"error": service.MessageOf(err)})
}

// errorHandler handles errors that escape a handler, including fiber's own
// routing errors such as 404 and 405.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		return writeError(c, logger, err)
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
