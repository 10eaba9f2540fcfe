package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turnify/turnify-api/internal/models"
	"github.com/turnify/turnify-api/internal/service"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
	"github.com/turnify/turnify-api/pkg/response"
)

// WorkingHoursHandler handles weekly schedule endpoints for businesses and employees.
type WorkingHoursHandler struct {
	service *service.WorkingHoursService
}

// NewWorkingHoursHandler constructs a working hours handler.
func NewWorkingHoursHandler(svc *service.WorkingHoursService) *WorkingHoursHandler {
	return &WorkingHoursHandler{service: svc}
}

// GetBusinessSchedule godoc
// @Summary Get a business's weekly working hours
// @Tags WorkingHours
// @Produce json
// @Param id path string true "Business ID"
// @Success 200 {object} response.Envelope
// @Router /businesses/{id}/working-hours [get]
func (h *WorkingHoursHandler) GetBusinessSchedule(c *gin.Context) {
	h.getSchedule(c, models.ScheduleOwnerBusiness)
}

// ReplaceBusinessSchedule godoc
// @Summary Replace a business's weekly working hours
// @Tags WorkingHours
// @Accept json
// @Produce json
// @Param id path string true "Business ID"
// @Param payload body service.ReplaceWorkingHoursRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /businesses/{id}/working-hours [put]
func (h *WorkingHoursHandler) ReplaceBusinessSchedule(c *gin.Context) {
	h.replaceSchedule(c, models.ScheduleOwnerBusiness)
}

// GetEmployeeSchedule godoc
// @Summary Get an employee's weekly working hours
// @Tags WorkingHours
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/working-hours [get]
func (h *WorkingHoursHandler) GetEmployeeSchedule(c *gin.Context) {
	h.getSchedule(c, models.ScheduleOwnerEmployee)
}

// ReplaceEmployeeSchedule godoc
// @Summary Replace an employee's weekly working hours
// @Tags WorkingHours
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body service.ReplaceWorkingHoursRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/working-hours [put]
func (h *WorkingHoursHandler) ReplaceEmployeeSchedule(c *gin.Context) {
	h.replaceSchedule(c, models.ScheduleOwnerEmployee)
}

func (h *WorkingHoursHandler) getSchedule(c *gin.Context, owner models.ScheduleOwner) {
	windows, err := h.service.GetSchedule(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}

func (h *WorkingHoursHandler) replaceSchedule(c *gin.Context, owner models.ScheduleOwner) {
	var req service.ReplaceWorkingHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	windows, err := h.service.ReplaceSchedule(c.Request.Context(), owner, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}
