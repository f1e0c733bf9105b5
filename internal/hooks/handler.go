package hooks

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/valetkeys/valet-backend/pkg/common"
)

// Handler handles HTTP requests for the hook board
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new hooks handler
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// Board returns the whole board with occupancy stats.
func (h *Handler) Board(c *gin.Context) {
	board, stats, err := h.service.Board(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to load hook board") {
		return
	}

	common.SuccessResponse(c, gin.H{
		"hooks": board,
		"stats": stats,
	})
}

// NextAvailable reports the lowest-numbered free hook.
func (h *Handler) NextAvailable(c *gin.Context) {
	number, err := h.service.NextAvailable(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to find available hook") {
		return
	}

	common.SuccessResponse(c, gin.H{"number": number})
}

// GetStats returns occupancy counters.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to get hook stats") {
		return
	}

	common.SuccessResponse(c, stats)
}

// GetHook returns a single hook's state.
func (h *Handler) GetHook(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid hook number")
		return
	}

	hook, svcErr := h.service.GetHook(c.Request.Context(), number)
	if common.HandleServiceError(c, svcErr, "failed to get hook") {
		return
	}

	common.SuccessResponse(c, hook)
}

// RegisterRoutes wires hook endpoints into the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/hooks")
	{
		api.GET("", h.Board)
		api.GET("/next-available", h.NextAvailable)
		api.GET("/stats", h.GetStats)
		api.GET("/:number", h.GetHook)
	}
}
