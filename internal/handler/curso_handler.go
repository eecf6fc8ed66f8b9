package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/middleware"
	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/service"
	"github.com/cefib-pe/cefib-admin-api/pkg/response"
)

type cursoService interface {
	List(ctx context.Context, filter models.CursoFilter) ([]models.Curso, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Curso, error)
	Create(ctx context.Context, actor models.Actor, req service.CursoRequest) (*models.Curso, error)
	Update(ctx context.Context, actor models.Actor, id string, req service.CursoRequest) (*models.Curso, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

// CursoHandler exposes course management endpoints.
type CursoHandler struct {
	cursos cursoService
}

// NewCursoHandler constructs a CursoHandler.
func NewCursoHandler(cursos cursoService) *CursoHandler {
	return &CursoHandler{cursos: cursos}
}

// List godoc
// @Summary List courses
// @Tags Cursos
// @Produce json
// @Param search query string false "Search by title, slug or category"
// @Param estado query string false "BORRADOR, PUBLICADO, FINALIZADO or CANCELADO"
// @Param modalidad query string false "PRESENCIAL, VIRTUAL or HIBRIDO"
// @Param categoria query string false "Category"
// @Param docenteId query string false "Instructor ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (titulo,fechaInicio,precio,createdAt)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /cursos [get]
func (h *CursoHandler) List(c *gin.Context) {
	filter := models.CursoFilter{
		ListQuery: listQuery(c),
		Categoria: strings.TrimSpace(c.Query("categoria")),
		DocenteID: strings.TrimSpace(c.Query("docenteId")),
	}
	if estado := enumQuery(c, "estado"); estado != "" {
		value := models.CursoEstado(estado)
		filter.Estado = &value
	}
	if modalidad := enumQuery(c, "modalidad"); modalidad != "" {
		value := models.Modalidad(modalidad)
		filter.Modalidad = &value
	}

	cursos, pagination, err := h.cursos.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cursos, pagination)
}

// Get godoc
// @Summary Get course
// @Tags Cursos
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cursos/{id} [get]
func (h *CursoHandler) Get(c *gin.Context) {
	curso, err := h.cursos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curso, nil)
}

// Create godoc
// @Summary Create course
// @Tags Cursos
// @Accept json
// @Produce json
// @Param payload body service.CursoRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /cursos [post]
func (h *CursoHandler) Create(c *gin.Context) {
	var req service.CursoRequest
	if !bindJSON(c, &req) {
		return
	}
	curso, err := h.cursos.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, curso)
}

// Update godoc
// @Summary Update course
// @Tags Cursos
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CursoRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cursos/{id} [put]
func (h *CursoHandler) Update(c *gin.Context) {
	var req service.CursoRequest
	if !bindJSON(c, &req) {
		return
	}
	curso, err := h.cursos.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curso, nil)
}

// Delete godoc
// @Summary Delete course
// @Description Removes the course together with its enrollments
// @Tags Cursos
// @Param id path string true "Course ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /cursos/{id} [delete]
func (h *CursoHandler) Delete(c *gin.Context) {
	if err := h.cursos.Delete(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
