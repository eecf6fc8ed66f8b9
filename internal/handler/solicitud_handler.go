package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/middleware"
	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/service"
	"github.com/cefib-pe/cefib-admin-api/pkg/response"
)

// SolicitudHandler serves the lead form and its back office follow-up.
type SolicitudHandler struct {
	solicitudes *service.SolicitudService
}

// NewSolicitudHandler constructs a new SolicitudHandler.
func NewSolicitudHandler(solicitudes *service.SolicitudService) *SolicitudHandler {
	return &SolicitudHandler{solicitudes: solicitudes}
}

// List godoc
// @Summary List information requests
// @Tags Solicitudes
// @Produce json
// @Param search query string false "Search by name, email or company"
// @Param estado query string false "NUEVA, CONTACTADA, CONVERTIDA or DESCARTADA"
// @Param cursoId query string false "Course ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /solicitudes [get]
func (h *SolicitudHandler) List(c *gin.Context) {
	filter := models.SolicitudFilter{
		ListQuery: listQuery(c),
		CursoID:   strings.TrimSpace(c.Query("cursoId")),
	}
	if estado := enumQuery(c, "estado"); estado != "" {
		value := models.SolicitudEstado(estado)
		filter.Estado = &value
	}
	items, pagination, err := h.solicitudes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get information request
// @Tags Solicitudes
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /solicitudes/{id} [get]
func (h *SolicitudHandler) Get(c *gin.Context) {
	item, err := h.solicitudes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Submit information request
// @Description Public lead form. No authentication required.
// @Tags Solicitudes
// @Accept json
// @Produce json
// @Param payload body service.CreateSolicitudRequest true "Lead payload"
// @Success 201 {object} response.Envelope
// @Router /solicitudes [post]
func (h *SolicitudHandler) Create(c *gin.Context) {
	var req service.CreateSolicitudRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.solicitudes.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update follow-up of an information request
// @Tags Solicitudes
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.UpdateSolicitudRequest true "Follow-up payload"
// @Success 200 {object} response.Envelope
// @Router /solicitudes/{id} [put]
func (h *SolicitudHandler) Update(c *gin.Context) {
	var req service.UpdateSolicitudRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.solicitudes.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete information request
// @Tags Solicitudes
// @Param id path string true "Request ID"
// @Success 204
// @Router /solicitudes/{id} [delete]
func (h *SolicitudHandler) Delete(c *gin.Context) {
	if err := h.solicitudes.Delete(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
