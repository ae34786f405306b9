package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const receivedAtKey = "received_at"

// Stamp records when the request arrived so every handler sees one consistent time.
// A nil clock means time.Now.
func Stamp(clock func() time.Time) echo.MiddlewareFunc {
	if clock == nil {
		clock = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			at := clock().UTC()
			c.Set(receivedAtKey, at)
			trace.SpanFromContext(c.Request().Context()).SetAttributes(
				attribute.Int64("request.received_at_ms", at.UnixMilli()),
			)
			return next(c)
		}
	}
}

// ReceivedAt returns the time Stamp recorded, or the current time for
// requests that never passed through it.
func ReceivedAt(c echo.Context) time.Time {
	if at, ok := c.Get(receivedAtKey).(time.Time); ok {
		return at
	}
	return time.Now().UTC()
}
