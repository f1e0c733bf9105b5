package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/valetkeys/valet-backend/pkg/config"
	"github.com/valetkeys/valet-backend/pkg/logger"
	"github.com/valetkeys/valet-backend/pkg/ratelimit"
)

// RateLimit enforces per-client request budgets using the Redis token bucket.
// Requests fail open when Redis is unreachable.
func RateLimit(limiter *ratelimit.Limiter, cfg config.RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		endpointKey := fmt.Sprintf("%s:%s", c.Request.Method, c.FullPath())
		identity := c.ClientIP()

		result, err := limiter.Allow(c.Request.Context(), endpointKey, identity)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request",
				zap.String("endpoint", endpointKey),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Window", result.Window.String())

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    http.StatusTooManyRequests,
					"message": "rate limit exceeded, retry later",
				},
			})
			return
		}

		c.Next()
	}
}
