package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// StructuredLogger logs each request to the local callback server.
// Query strings are never logged since they carry authorization codes.
func StructuredLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.New().String()

		c.Locals("requestID", requestID)
		c.Set("X-Request-ID", requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		logAttrs := []slog.Attr{
			slog.String("request_id", requestID),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		}

		switch {
		case err != nil:
			logAttrs = append(logAttrs, slog.String("error", err.Error()))
			logger.LogAttrs(c.Context(), slog.LevelError, "callback error", logAttrs...)
		case status >= 400:
			logger.LogAttrs(c.Context(), slog.LevelWarn, "callback rejected", logAttrs...)
		default:
			logger.LogAttrs(c.Context(), slog.LevelDebug, "callback handled", logAttrs...)
		}

		return err
	}
}
