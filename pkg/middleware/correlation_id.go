package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/valetkeys/valet-backend/pkg/logger"
)

const (
	// CorrelationIDHeader carries the request id between services.
	CorrelationIDHeader = "X-Request-ID"
	// CorrelationIDKey is the gin context key for the request id.
	CorrelationIDKey = "correlation_id"
)

// CorrelationID tags every request with an id so log lines from one
// check-in or retrieval can be stitched together. Client-supplied ids
// are honored when they are well-formed UUIDs, otherwise replaced.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sanitizeRequestID(c.GetHeader(CorrelationIDHeader))
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(CorrelationIDKey, id)
		c.Request = c.Request.WithContext(
			logger.ContextWithCorrelationID(c.Request.Context(), id))
		c.Writer.Header().Set(CorrelationIDHeader, id)

		c.Next()
	}
}

func sanitizeRequestID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if _, err := uuid.Parse(raw); err != nil {
		return ""
	}
	return raw
}

// GetCorrelationID returns the request id set by CorrelationID.
func GetCorrelationID(c *gin.Context) string {
	if v, ok := c.Get(CorrelationIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return logger.CorrelationIDFromContext(c.Request.Context())
}
