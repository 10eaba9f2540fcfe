package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turnify/turnify-api/internal/middleware"
	"github.com/turnify/turnify-api/internal/service"
	"github.com/turnify/turnify-api/pkg/response"
)

// AvailabilityHandler handles availability lookups.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Get godoc
// @Summary Get bookable slots for an offering on a date
// @Tags Availability
// @Produce json
// @Param offering_id query string true "Offering ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param employee_id query string false "Employee ID or 'any'"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	start := time.Now()
	req := service.AvailabilityRequest{
		OfferingID: c.Query("offering_id"),
		Date:       c.Query("date"),
		EmployeeID: c.DefaultQuery("employee_id", service.AnyEmployee),
	}
	result, cacheHit, err := h.service.GetDayAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, result, nil, meta)
}
