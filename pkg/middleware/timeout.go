package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
)

// RequestTimeout bounds every request to the configured budget. All core
// operations are short conditional writes, so a request that exceeds the
// budget is stuck on storage and should be abandoned, not queued behind.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"success": false,
				"error": gin.H{
					"code":    http.StatusGatewayTimeout,
					"message": "request timed out",
				},
			})
		}),
	)
}
