package drivers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valetkeys/valet-backend/pkg/common"
)

// Handler handles HTTP requests for drivers
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new drivers handler
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// Register creates a new driver.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	driver, err := h.service.Register(c.Request.Context(), req)
	if common.HandleServiceError(c, err, "failed to register driver") {
		return
	}

	common.CreatedResponse(c, driver)
}

// GetByID returns one driver.
func (h *Handler) GetByID(c *gin.Context) {
	driverID, ok := common.ParseIDParam(c, "id", "driver id")
	if !ok {
		return
	}

	driver, err := h.service.GetByID(c.Request.Context(), driverID)
	if common.HandleServiceError(c, err, "failed to get driver") {
		return
	}

	common.SuccessResponse(c, driver)
}

// List returns drivers, optionally filtered by ?status=.
func (h *Handler) List(c *gin.Context) {
	var status *DriverStatus
	if raw := c.Query("status"); raw != "" {
		s := DriverStatus(raw)
		status = &s
	}

	list, err := h.service.List(c.Request.Context(), status)
	if common.HandleServiceError(c, err, "failed to list drivers") {
		return
	}

	common.SuccessResponse(c, list)
}

// SetStatus updates a driver's availability.
func (h *Handler) SetStatus(c *gin.Context) {
	driverID, ok := common.ParseIDParam(c, "id", "driver id")
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	driver, err := h.service.SetStatus(c.Request.Context(), driverID, DriverStatus(req.Status))
	if common.HandleServiceError(c, err, "failed to set driver status") {
		return
	}

	common.SuccessResponse(c, driver)
}

// RegisterRoutes wires driver endpoints into the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/drivers")
	{
		api.POST("", h.Register)
		api.GET("", h.List)
		api.GET("/:id", h.GetByID)
		api.POST("/:id/status", h.SetStatus)
	}
}
