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

type inscripcionService interface {
	List(ctx context.Context, filter models.InscripcionFilter) ([]models.InscripcionDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.InscripcionDetail, error)
	Create(ctx context.Context, actor models.Actor, req service.CreateInscripcionRequest) (*models.Inscripcion, error)
	Update(ctx context.Context, actor models.Actor, id string, req service.UpdateInscripcionRequest) (*models.Inscripcion, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

// InscripcionHandler exposes enrollment endpoints.
type InscripcionHandler struct {
	inscripciones inscripcionService
}

// NewInscripcionHandler constructs an InscripcionHandler.
func NewInscripcionHandler(inscripciones inscripcionService) *InscripcionHandler {
	return &InscripcionHandler{inscripciones: inscripciones}
}

// List godoc
// @Summary List enrollments
// @Tags Inscripciones
// @Produce json
// @Param cursoId query string false "Course ID"
// @Param participanteId query string false "Participant ID"
// @Param estado query string false "PENDIENTE, CONFIRMADA or CANCELADA"
// @Param estadoPago query string false "PENDIENTE, PAGADO or EXONERADO"
// @Param search query string false "Search by participant or course"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inscripciones [get]
func (h *InscripcionHandler) List(c *gin.Context) {
	filter := models.InscripcionFilter{
		ListQuery:      listQuery(c),
		CursoID:        strings.TrimSpace(c.Query("cursoId")),
		ParticipanteID: strings.TrimSpace(c.Query("participanteId")),
	}
	if estado := enumQuery(c, "estado"); estado != "" {
		value := models.InscripcionEstado(estado)
		filter.Estado = &value
	}
	if pago := enumQuery(c, "estadoPago"); pago != "" {
		value := models.EstadoPago(pago)
		filter.EstadoPago = &value
	}

	items, pagination, err := h.inscripciones.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get enrollment
// @Tags Inscripciones
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /inscripciones/{id} [get]
func (h *InscripcionHandler) Get(c *gin.Context) {
	item, err := h.inscripciones.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Enroll a participant
// @Description Takes one seat of the course. Fails with 409 when the course is full.
// @Tags Inscripciones
// @Accept json
// @Produce json
// @Param payload body service.CreateInscripcionRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inscripciones [post]
func (h *InscripcionHandler) Create(c *gin.Context) {
	var req service.CreateInscripcionRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.inscripciones.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update enrollment status or payment
// @Tags Inscripciones
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateInscripcionRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /inscripciones/{id} [put]
func (h *InscripcionHandler) Update(c *gin.Context) {
	var req service.UpdateInscripcionRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.inscripciones.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete enrollment
// @Description Releases the seat in the same transaction
// @Tags Inscripciones
// @Param id path string true "Enrollment ID"
// @Success 204
// @Router /inscripciones/{id} [delete]
func (h *InscripcionHandler) Delete(c *gin.Context) {
	if err := h.inscripciones.Delete(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
