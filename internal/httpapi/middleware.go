package httpapi

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"taskTracker/internal/auth"
)

// requestLogger logs one line per request with method, path, status and latency.
func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		}
		if p, ok := auth.PrincipalFrom(c); ok {
			attrs = append(attrs, slog.Int64("user_id", p.UserID))
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("http request", attrs...)
		} else {
			logger.Info("http request", attrs...)
		}
		return err
	}
}
