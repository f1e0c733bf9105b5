package retrieval

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/valetkeys/valet-backend/pkg/common"
)

// Handler handles HTTP requests for retrievals
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new retrieval handler
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// Enqueue creates a retrieval request.
func (h *Handler) Enqueue(c *gin.Context) {
	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.service.Enqueue(c.Request.Context(), req)
	if common.HandleServiceError(c, err, "failed to create retrieval request") {
		return
	}

	common.CreatedResponse(c, request)
}

// Queue returns in-flight requests in service order.
func (h *Handler) Queue(c *gin.Context) {
	entries, err := h.service.Queue(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to load queue") {
		return
	}

	common.SuccessResponse(c, entries)
}

// PendingHandovers returns staged cars waiting for their guests.
func (h *Handler) PendingHandovers(c *gin.Context) {
	entries, err := h.service.PendingHandovers(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to load pending handovers") {
		return
	}

	common.SuccessResponse(c, entries)
}

// GetByID returns one request.
func (h *Handler) GetByID(c *gin.Context) {
	requestID, ok := common.ParseIDParam(c, "id", "request id")
	if !ok {
		return
	}

	request, err := h.service.GetByID(c.Request.Context(), requestID)
	if common.HandleServiceError(c, err, "failed to get request") {
		return
	}

	common.SuccessResponse(c, request)
}

// Accept claims a request for a runner.
func (h *Handler) Accept(c *gin.Context) {
	requestID, ok := common.ParseIDParam(c, "id", "request id")
	if !ok {
		return
	}

	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.service.Accept(c.Request.Context(), requestID, req.DriverID)
	if common.HandleServiceError(c, err, "failed to accept request") {
		return
	}

	common.SuccessResponse(c, request)
}

// StartPickup records that the runner is walking to the car.
func (h *Handler) StartPickup(c *gin.Context) {
	requestID, ok := common.ParseIDParam(c, "id", "request id")
	if !ok {
		return
	}

	request, err := h.service.StartPickup(c.Request.Context(), requestID)
	if common.HandleServiceError(c, err, "failed to start pickup") {
		return
	}

	common.SuccessResponse(c, request)
}

// CarReady stages the car at the pickup lane.
func (h *Handler) CarReady(c *gin.Context) {
	requestID, ok := common.ParseIDParam(c, "id", "request id")
	if !ok {
		return
	}

	request, err := h.service.MarkCarReady(c.Request.Context(), requestID)
	if common.HandleServiceError(c, err, "failed to mark car ready") {
		return
	}

	common.SuccessResponse(c, request)
}

// HandoverKeys finalizes a staged request.
func (h *Handler) HandoverKeys(c *gin.Context) {
	requestID, ok := common.ParseIDParam(c, "id", "request id")
	if !ok {
		return
	}

	request, err := h.service.CompleteHandover(c.Request.Context(), requestID)
	if common.HandleServiceError(c, err, "failed to complete handover") {
		return
	}

	common.SuccessResponse(c, request)
}

// CompleteByCard finalizes the active request for a claim card.
func (h *Handler) CompleteByCard(c *gin.Context) {
	var req CompleteByCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid card id")
		return
	}

	request, svcErr := h.service.CompleteByCard(c.Request.Context(), cardID)
	if common.HandleServiceError(c, svcErr, "failed to complete retrieval") {
		return
	}

	common.SuccessResponse(c, request)
}

// Cancel voids a request still in pending or assigned.
func (h *Handler) Cancel(c *gin.Context) {
	requestID, ok := common.ParseIDParam(c, "id", "request id")
	if !ok {
		return
	}

	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	request, err := h.service.Cancel(c.Request.Context(), requestID, req.Reason)
	if common.HandleServiceError(c, err, "failed to cancel request") {
		return
	}

	common.SuccessResponse(c, request)
}

// SetPaymentMethod selects how the guest will settle.
func (h *Handler) SetPaymentMethod(c *gin.Context) {
	requestID, ok := common.ParseIDParam(c, "id", "request id")
	if !ok {
		return
	}

	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SetPaymentMethod(c.Request.Context(), requestID, req.Method); common.HandleServiceError(c, err, "failed to set payment method") {
		return
	}

	common.SuccessResponse(c, gin.H{"request_id": requestID, "payment_method": req.Method})
}

// CollectCash records a cash settlement with an optional tip.
func (h *Handler) CollectCash(c *gin.Context) {
	requestID, ok := common.ParseIDParam(c, "id", "request id")
	if !ok {
		return
	}

	var req CollectCashRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.service.CollectCash(c.Request.Context(), requestID, req.Tip); common.HandleServiceError(c, err, "failed to collect cash") {
		return
	}

	common.SuccessResponse(c, gin.H{"request_id": requestID, "tip": req.Tip})
}

// RegisterRoutes wires retrieval endpoints into the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/retrieval")
	{
		api.POST("/request", h.Enqueue)
		api.GET("/queue", h.Queue)
		api.GET("/pending-handovers", h.PendingHandovers)
		api.POST("/complete", h.CompleteByCard)
		api.GET("/:id", h.GetByID)
		api.GET("/:id/status", h.GetByID)
		api.POST("/:id/accept", h.Accept)
		api.POST("/:id/start", h.StartPickup)
		api.POST("/:id/car-ready", h.CarReady)
		api.POST("/:id/handover-keys", h.HandoverKeys)
		api.POST("/:id/cancel", h.Cancel)
		api.POST("/:id/payment-method", h.SetPaymentMethod)
		api.POST("/:id/collect-cash", h.CollectCash)
	}
}
