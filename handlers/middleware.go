package handlers

import (
	"strconv"
	"time"

	"arkive/logger"
	"arkive/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id, stores a request-scoped logger in the
// user context and logs every request once it completes.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDHeader, reqID)

		ctx := logger.With(c.UserContext(),
			zap.String("request_id", reqID),
			zap.String("http.method", utils.CopyString(c.Method())),
			zap.String("http.path", utils.CopyString(c.Path())),
			zap.String("remote_addr", c.IP()),
		)
		c.SetUserContext(ctx)

		err := c.Next()
		if err != nil {
			// Let the app's error handler write the response before logging the status.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		lvl := zapcore.InfoLevel
		if status >= 500 {
			lvl = zapcore.ErrorLevel
		} else if status >= 400 {
			lvl = zapcore.WarnLevel
		}
		logger.FromContext(ctx).Log(lvl, "request",
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int("bytes", len(c.Response().Body())),
		)
		return nil
	}
}

// Metrics records request counts and durations labelled by route pattern.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		// Label values outlive the request; fiber's strings point into reused buffers.
		method := utils.CopyString(c.Method())
		route := utils.CopyString(c.Route().Path)
		status := strconv.Itoa(c.Response().StatusCode())
		metrics.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		return err
	}
}
