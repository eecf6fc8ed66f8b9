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

// DocenteHandler wires instructor services to HTTP routes.
type DocenteHandler struct {
	docentes *service.DocenteService
}

// NewDocenteHandler constructs a new DocenteHandler.
func NewDocenteHandler(docentes *service.DocenteService) *DocenteHandler {
	return &DocenteHandler{docentes: docentes}
}

// List godoc
// @Summary List instructors
// @Tags Docentes
// @Produce json
// @Param search query string false "Search by name, email or specialty"
// @Param activo query bool false "Filter by active status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (nombres,apellidos,email,createdAt)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /docentes [get]
func (h *DocenteHandler) List(c *gin.Context) {
	filter := models.DocenteFilter{ListQuery: listQuery(c)}
	switch strings.ToLower(c.Query("activo")) {
	case "true":
		val := true
		filter.Activo = &val
	case "false":
		val := false
		filter.Activo = &val
	}

	docentes, pagination, err := h.docentes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docentes, pagination)
}

// Get godoc
// @Summary Get instructor
// @Tags Docentes
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /docentes/{id} [get]
func (h *DocenteHandler) Get(c *gin.Context) {
	docente, err := h.docentes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docente, nil)
}

// Create godoc
// @Summary Create instructor
// @Tags Docentes
// @Accept json
// @Produce json
// @Param payload body service.DocenteRequest true "Instructor payload"
// @Success 201 {object} response.Envelope
// @Router /docentes [post]
func (h *DocenteHandler) Create(c *gin.Context) {
	var req service.DocenteRequest
	if !bindJSON(c, &req) {
		return
	}
	docente, err := h.docentes.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, docente)
}

// Update godoc
// @Summary Update instructor
// @Tags Docentes
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param payload body service.DocenteRequest true "Instructor payload"
// @Success 200 {object} response.Envelope
// @Router /docentes/{id} [put]
func (h *DocenteHandler) Update(c *gin.Context) {
	var req service.DocenteRequest
	if !bindJSON(c, &req) {
		return
	}
	docente, err := h.docentes.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docente, nil)
}

// Delete godoc
// @Summary Delete instructor
// @Description Courses taught by the instructor keep existing without one
// @Tags Docentes
// @Param id path string true "Instructor ID"
// @Success 204
// @Router /docentes/{id} [delete]
func (h *DocenteHandler) Delete(c *gin.Context) {
	if err := h.docentes.Delete(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
