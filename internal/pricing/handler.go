package pricing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/pkg/pagination"
)

// Handler handles HTTP requests for pricing and payments
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new pricing handler
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// CalculateFee quotes the retrieval fee for a parked vehicle.
func (h *Handler) CalculateFee(c *gin.Context) {
	var req CalculateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.service.CalculateFee(c.Request.Context(), req)
	if common.HandleServiceError(c, err, "failed to calculate fee") {
		return
	}

	common.SuccessResponse(c, quote)
}

// GetTariff returns the current pricing settings.
func (h *Handler) GetTariff(c *gin.Context) {
	tariff, err := h.service.GetTariff(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to load pricing settings") {
		return
	}

	common.SuccessResponse(c, tariff)
}

// UpdateTariff applies partial updates to the pricing settings.
func (h *Handler) UpdateTariff(c *gin.Context) {
	var req UpdateTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	tariff, err := h.service.UpdateTariff(c.Request.Context(), req)
	if common.HandleServiceError(c, err, "failed to update pricing settings") {
		return
	}

	common.SuccessResponse(c, tariff)
}

// PaymentHistory lists settled retrievals, most recent first.
func (h *Handler) PaymentHistory(c *gin.Context) {
	params := pagination.ParseParams(c)

	records, total, err := h.service.PaymentHistory(c.Request.Context(), params.Limit, params.Offset)
	if common.HandleServiceError(c, err, "failed to load payment history") {
		return
	}

	common.SuccessResponseWithMeta(c, records, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// RegisterRoutes wires pricing endpoints into the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/payment")
	{
		api.POST("/calculate-fee", h.CalculateFee)
		api.GET("/pricing", h.GetTariff)
		api.POST("/pricing", h.UpdateTariff)
		api.GET("/history", h.PaymentHistory)
	}
}
