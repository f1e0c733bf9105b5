package station

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/pkg/pagination"
)

// Handler handles HTTP requests for the station terminal
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new station handler
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// Overview returns the live dashboard snapshot.
func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to build overview") {
		return
	}

	common.SuccessResponse(c, overview)
}

// DailyReport aggregates one operating day (?date=YYYY-MM-DD, default today).
func (h *Handler) DailyReport(c *gin.Context) {
	report, err := h.service.DailyReport(c.Request.Context(), c.Query("date"))
	if common.HandleServiceError(c, err, "failed to build daily report") {
		return
	}

	common.SuccessResponse(c, report)
}

// CashPayments shows the station cash drawer for today.
func (h *Handler) CashPayments(c *gin.Context) {
	payments, err := h.service.CashPayments(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to load cash payments") {
		return
	}

	common.SuccessResponse(c, payments)
}

// Closeout finalizes an operating day.
func (h *Handler) Closeout(c *gin.Context) {
	var req CloseoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	closeout, err := h.service.CloseoutDay(c.Request.Context(), req)
	if common.HandleServiceError(c, err, "failed to close out day") {
		return
	}

	common.CreatedResponse(c, closeout)
}

// CloseoutHistory lists finalized days.
func (h *Handler) CloseoutHistory(c *gin.Context) {
	params := pagination.ParseParams(c)

	list, total, err := h.service.CloseoutHistory(c.Request.Context(), params.Limit, params.Offset)
	if common.HandleServiceError(c, err, "failed to load closeout history") {
		return
	}

	common.SuccessResponseWithMeta(c, list, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// RegisterRoutes wires station endpoints into the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/station")
	{
		api.GET("/overview", h.Overview)
		api.GET("/daily-report", h.DailyReport)
		api.GET("/cash-payments", h.CashPayments)
		api.POST("/closeout-day", h.Closeout)
		api.GET("/closeout-history", h.CloseoutHistory)
	}
}
