package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CorrelationIDHeader carries the request correlation ID.
const CorrelationIDHeader = "X-Correlation-ID"

const correlationIDContextKey = "correlation_id"

// CorrelationID assigns every request a correlation ID, reusing the
// caller's when one is provided, and echoes it on the response.
func CorrelationID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(CorrelationIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(correlationIDContextKey, id)
			c.Response().Header().Set(CorrelationIDHeader, id)
			return next(c)
		}
	}
}

// GetCorrelationID returns the request's correlation ID, empty when
// the middleware did not run.
func GetCorrelationID(c echo.Context) string {
	if id, ok := c.Get(correlationIDContextKey).(string); ok {
		return id
	}
	return ""
}
