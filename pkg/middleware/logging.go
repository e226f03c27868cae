package middleware

import (
	"strconv"
	"time"

	"cost-sage/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger writes one access log line per request and records the
// request in the HTTP metrics. It expects the requestid middleware before it.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the app's error handler write the response before we read the status
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		route := c.Route().Path

		metrics.HTTPRequests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route, c.Method()).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("request_id", string(c.Response().Header.Peek(fiber.HeaderXRequestID))),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("ip", c.IP()),
		}
		if identity := IdentityFrom(c); identity != nil {
			fields = append(fields, zap.String("user_id", identity.UserID.String()))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("Request completed", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("Request completed", fields...)
		default:
			logger.Info("Request completed", fields...)
		}
		return nil
	}
}
