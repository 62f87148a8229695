package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

const (
	localsRequestID = "requestId"
	localsLogger    = "logger"
)

// RequestID assigns each request an id, keeping an inbound one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Locals(localsRequestID, id)
		return c.Next()
	}
}

// RequestLogger logs one line per request and exposes a request scoped logger
// through FromCtx. Errors returned down the chain are rendered here so the
// logged status is the one sent.
func RequestLogger(base Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqLog := base.With(map[string]interface{}{"request_id": RequestIDFromCtx(c)})
		c.Locals(localsLogger, reqLog)

		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := map[string]interface{}{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    time.Since(start).String(),
			"ip":         c.IP(),
			"user_agent": c.Get(fiber.HeaderUserAgent),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			if chainErr != nil {
				reqLog = reqLog.WithError(chainErr)
			}
			reqLog.Error("HTTP request failed", fields)
		default:
			reqLog.Info("HTTP request completed", fields)
		}
		return nil
	}
}

// RequestIDFromCtx returns the request id, or "unknown" outside RequestID.
func RequestIDFromCtx(c *fiber.Ctx) string {
	if id, ok := c.Locals(localsRequestID).(string); ok && id != "" {
		return id
	}
	return "unknown"
}

// FromCtx returns the request scoped logger, or fallback.
func FromCtx(c *fiber.Ctx, fallback Logger) Logger {
	if l, ok := c.Locals(localsLogger).(Logger); ok {
		return l
	}
	return fallback
}
