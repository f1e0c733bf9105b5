package common

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/valetkeys/valet-backend/pkg/logger"
	"go.uber.org/zap"
)

// HandleServiceError handles service errors with consistent patterns.
// Returns true if an error was handled (and response was sent), false otherwise.
//
// Usage:
//
//	result, err := h.service.DoSomething(ctx, req)
//	if common.HandleServiceError(c, err, "failed to do something") {
//	    return
//	}
func HandleServiceError(c *gin.Context, err error, fallbackMessage string) bool {
	if err == nil {
		return false
	}

	// Typed business errors carry their own status and error code
	if appErr, ok := err.(*AppError); ok {
		AppErrorResponse(c, appErr)
		return true
	}

	logger.ErrorContext(c.Request.Context(), fallbackMessage,
		zap.Error(err),
	)

	ErrorResponse(c, http.StatusInternalServerError, fallbackMessage)
	return true
}

// ParseIDParam parses a positive integer identifier from a URL parameter.
// Sends a 400 response and returns false when the value is missing or malformed.
func ParseIDParam(c *gin.Context, paramName, displayName string) (int64, bool) {
	raw := c.Param(paramName)
	if raw == "" {
		ErrorResponse(c, http.StatusBadRequest, displayName+" is required")
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "invalid "+displayName)
		return 0, false
	}

	return id, true
}
