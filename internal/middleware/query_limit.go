package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// QueryTooLongErrorResponse is the JSON body of a rejected oversized query.
type QueryTooLongErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	MaxBytes   int    `json:"maxBytes"`
	StatusCode int    `json:"statusCode"`
}

// QueryLimit rejects requests whose raw query string exceeds maxBytes. Device
// filters travel in the query, so this bounds what reaches the CEL compiler.
// Request bodies are not read by the API and are rejected outright.
func QueryLimit(maxBytes int, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > 0 {
			logRejectedRequest(logger, c, "request body not accepted", int(c.Request.ContentLength), 0)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, QueryTooLongErrorResponse{
				Error:      "payloadTooLarge",
				Message:    "request bodies are not accepted",
				StatusCode: http.StatusRequestEntityTooLarge,
			})
			return
		}

		if size := len(c.Request.URL.RawQuery); size > maxBytes {
			logRejectedRequest(logger, c, "oversized query rejected", size, maxBytes)
			c.AbortWithStatusJSON(http.StatusRequestURITooLong, QueryTooLongErrorResponse{
				Error:      "queryTooLong",
				Message:    "query string exceeds the maximum allowed size",
				MaxBytes:   maxBytes,
				StatusCode: http.StatusRequestURITooLong,
			})
			return
		}

		c.Next()
	}
}

func logRejectedRequest(logger zerolog.Logger, c *gin.Context, msg string, attemptedSize, maxBytes int) {
	logger.Warn().
		Str("clientIP", c.ClientIP()).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("attemptedSize", attemptedSize).
		Int("maxBytes", maxBytes).
		Str("userAgent", c.Request.UserAgent()).
		Msg(msg)
}
