package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/pkg/response"
)

const auditStatsDays = 7

type auditReader interface {
	Recent(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
	Stats(ctx context.Context, days int) (*models.AuditStats, error)
}

type auditLogsResponse struct {
	Logs  []models.AuditLog  `json:"logs"`
	Stats *models.AuditStats `json:"stats"`
}

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	audit auditReader
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(audit auditReader) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary Recent audit records
// @Description Latest audit records, newest first, plus activity stats for the last 7 days
// @Tags Admin
// @Produce json
// @Param action query string false "Filter by action, e.g. LOGIN_FAILED"
// @Param limit query int false "Maximum records (100 max)"
// @Success 200 {object} response.Envelope
// @Router /admin/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	filter := models.AuditFilter{Limit: 100}
	if action := enumQuery(c, "action"); action != "" {
		value := models.AuditAction(action)
		filter.Action = &value
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}

	logs, err := h.audit.Recent(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.audit.Stats(c.Request.Context(), auditStatsDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, auditLogsResponse{Logs: logs, Stats: stats}, nil)
}
