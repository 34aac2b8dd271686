package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Logger writes one access log event per request, after the handler has run.
// Server errors are logged at error level with the handler error attached.
func Logger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		evt := logger.Info()
		if err != nil && status >= fiber.StatusInternalServerError {
			evt = logger.Error().Err(err)
		}

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		evt.
			Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency_ms", float64(time.Since(start).Microseconds())/1000).
			Str("remote_ip", c.IP()).
			Msg("request")

		return err
	}
}
