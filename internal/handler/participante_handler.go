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

// ParticipanteHandler wires participant services to HTTP routes.
type ParticipanteHandler struct {
	participantes *service.ParticipanteService
}

// NewParticipanteHandler constructs a new ParticipanteHandler.
func NewParticipanteHandler(participantes *service.ParticipanteService) *ParticipanteHandler {
	return &ParticipanteHandler{participantes: participantes}
}

// List godoc
// @Summary List participants
// @Tags Participantes
// @Produce json
// @Param search query string false "Search by name, email or document number"
// @Param empresa query string false "Filter by company"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (nombres,apellidos,numeroDocumento,createdAt)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /participantes [get]
func (h *ParticipanteHandler) List(c *gin.Context) {
	filter := models.ParticipanteFilter{
		ListQuery: listQuery(c),
		Empresa:   strings.TrimSpace(c.Query("empresa")),
	}
	participantes, pagination, err := h.participantes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participantes, pagination)
}

// Get godoc
// @Summary Get participant
// @Tags Participantes
// @Produce json
// @Param id path string true "Participant ID"
// @Success 200 {object} response.Envelope
// @Router /participantes/{id} [get]
func (h *ParticipanteHandler) Get(c *gin.Context) {
	participante, err := h.participantes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participante, nil)
}

// Create godoc
// @Summary Create participant
// @Tags Participantes
// @Accept json
// @Produce json
// @Param payload body service.ParticipanteRequest true "Participant payload"
// @Success 201 {object} response.Envelope
// @Router /participantes [post]
func (h *ParticipanteHandler) Create(c *gin.Context) {
	var req service.ParticipanteRequest
	if !bindJSON(c, &req) {
		return
	}
	participante, err := h.participantes.Create(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, participante)
}

// Update godoc
// @Summary Update participant
// @Tags Participantes
// @Accept json
// @Produce json
// @Param id path string true "Participant ID"
// @Param payload body service.ParticipanteRequest true "Participant payload"
// @Success 200 {object} response.Envelope
// @Router /participantes/{id} [put]
func (h *ParticipanteHandler) Update(c *gin.Context) {
	var req service.ParticipanteRequest
	if !bindJSON(c, &req) {
		return
	}
	participante, err := h.participantes.Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participante, nil)
}

// Delete godoc
// @Summary Delete participant
// @Description Frees the seats the participant held and removes their enrollments
// @Tags Participantes
// @Param id path string true "Participant ID"
// @Success 204
// @Router /participantes/{id} [delete]
func (h *ParticipanteHandler) Delete(c *gin.Context) {
	if err := h.participantes.Delete(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
