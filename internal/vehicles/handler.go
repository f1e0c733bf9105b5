package vehicles

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/pkg/pagination"
)

// Handler handles HTTP requests for vehicles
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new vehicles handler
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// CheckIn parks a car and assigns a hook.
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	vehicle, err := h.service.CheckIn(c.Request.Context(), req)
	if common.HandleServiceError(c, err, "failed to check in vehicle") {
		return
	}

	common.CreatedResponse(c, vehicle)
}

// GetByID returns one vehicle record.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := common.ParseIDParam(c, "id", "vehicle id")
	if !ok {
		return
	}

	vehicle, err := h.service.GetByID(c.Request.Context(), id)
	if common.HandleServiceError(c, err, "failed to get vehicle") {
		return
	}

	common.SuccessResponse(c, vehicle)
}

// Update patches vehicle attributes recorded at check-in.
func (h *Handler) Update(c *gin.Context) {
	id, ok := common.ParseIDParam(c, "id", "vehicle id")
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	vehicle, err := h.service.Update(c.Request.Context(), id, req)
	if common.HandleServiceError(c, err, "failed to update vehicle") {
		return
	}

	common.SuccessResponse(c, vehicle)
}

// GetByCard returns the card's active vehicle.
func (h *Handler) GetByCard(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("cardId"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid card id")
		return
	}

	vehicle, svcErr := h.service.GetByCard(c.Request.Context(), cardID)
	if common.HandleServiceError(c, svcErr, "failed to find vehicle") {
		return
	}

	common.SuccessResponse(c, vehicle)
}

// Quote returns the walk-up fee for a parked vehicle.
func (h *Handler) Quote(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("cardId"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid card id")
		return
	}

	quote, svcErr := h.service.CurrentFeeQuote(c.Request.Context(), cardID)
	if common.HandleServiceError(c, svcErr, "failed to quote fee") {
		return
	}

	common.SuccessResponse(c, quote)
}

// ListActive lists vehicles currently at the venue.
func (h *Handler) ListActive(c *gin.Context) {
	params := pagination.ParseParams(c)

	list, total, err := h.service.ListActive(c.Request.Context(), params.Limit, params.Offset)
	if common.HandleServiceError(c, err, "failed to list vehicles") {
		return
	}

	common.SuccessResponseWithMeta(c, list, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// History lists all check-ins, newest first.
func (h *Handler) History(c *gin.Context) {
	params := pagination.ParseParams(c)

	list, total, err := h.service.History(c.Request.Context(), params.Limit, params.Offset)
	if common.HandleServiceError(c, err, "failed to load vehicle history") {
		return
	}

	common.SuccessResponseWithMeta(c, list, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// RegisterRoutes wires vehicle endpoints into the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/vehicles")
	{
		api.POST("/checkin", h.CheckIn)
		api.GET("", h.ListActive)
		api.GET("/history", h.History)
		api.GET("/card/:cardId", h.GetByCard)
		api.GET("/card/:cardId/quote", h.Quote)
		api.GET("/:id", h.GetByID)
		api.PUT("/:id", h.Update)
	}
}
