// Package middleware provides HTTP middleware for the inventory-dashboard.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneutral-org/inventory-dashboard/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength caps ids accepted from clients.
const maxRequestIDLength = 128

// RequestID assigns every request an id, reusing a sane client supplied one.
// The id is echoed in the response header, stored under logging.RequestIDKey
// and attached to a request scoped logger in the request context.
func RequestID(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Set(logging.RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		reqLogger := logger.With().Str("requestId", id).Logger()
		c.Request = c.Request.WithContext(logging.ContextWithLogger(c.Request.Context(), reqLogger))

		c.Next()
	}
}
