package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turnify/turnify-api/internal/service"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
	"github.com/turnify/turnify-api/pkg/response"
)

// BusinessHandler handles business profile endpoints.
type BusinessHandler struct {
	service *service.BusinessService
	export  *service.ExportService
}

// NewBusinessHandler constructs a business handler.
func NewBusinessHandler(svc *service.BusinessService, export *service.ExportService) *BusinessHandler {
	return &BusinessHandler{service: svc, export: export}
}

// List godoc
// @Summary List businesses
// @Tags Businesses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /businesses [get]
func (h *BusinessHandler) List(c *gin.Context) {
	businesses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, businesses, nil)
}

// Get godoc
// @Summary Get business by id
// @Tags Businesses
// @Produce json
// @Param id path string true "Business ID"
// @Success 200 {object} response.Envelope
// @Router /businesses/{id} [get]
func (h *BusinessHandler) Get(c *gin.Context) {
	business, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, business, nil)
}

// Create godoc
// @Summary Register a business
// @Tags Businesses
// @Accept json
// @Produce json
// @Param payload body service.CreateBusinessRequest true "Business payload"
// @Success 201 {object} response.Envelope
// @Router /businesses [post]
func (h *BusinessHandler) Create(c *gin.Context) {
	var req service.CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	business, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, business)
}

// Update godoc
// @Summary Update business profile
// @Tags Businesses
// @Accept json
// @Produce json
// @Param id path string true "Business ID"
// @Param payload body service.UpdateBusinessRequest true "Business payload"
// @Success 200 {object} response.Envelope
// @Router /businesses/{id} [put]
func (h *BusinessHandler) Update(c *gin.Context) {
	var req service.UpdateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	business, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, business, nil)
}

// ExportSchedule godoc
// @Summary Export the business's appointment day sheet
// @Tags Businesses
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Business ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /businesses/{id}/schedule/export [get]
func (h *BusinessHandler) ExportSchedule(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.export.DaySheet(c.Request.Context(), c.Param("id"), c.Query("date"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
