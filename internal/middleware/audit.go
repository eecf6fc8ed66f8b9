package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/pkg/middleware/requestid"
)

// RequestMeta extracts the client address, user agent and request id.
func RequestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		RequestID: requestid.Value(c),
	}
}

// CurrentActor describes the authenticated caller for audited mutations. The
// zero Actor with request metadata is returned for anonymous callers.
func CurrentActor(c *gin.Context) models.Actor {
	actor := models.Actor{Meta: RequestMeta(c)}
	if claims, ok := Claims(c); ok {
		actor.UserID = claims.UserID
		actor.Email = claims.Email
		actor.Role = claims.Role
	}
	return actor
}

func recordDenied(c *gin.Context, audit auditRecorder, reason string, role *models.UserRole, required []models.UserRole) {
	if audit == nil {
		return
	}
	details := models.AccessDetails{
		Method:   c.Request.Method,
		Path:     c.FullPath(),
		Required: required,
		Reason:   reason,
	}
	if details.Path == "" {
		details.Path = c.Request.URL.Path
	}
	entry := models.AuditEntry{
		Action:       models.AuditUnauthorizedAccess,
		Entity:       models.EntityAuth,
		Details:      details,
		Meta:         RequestMeta(c),
		Success:      false,
		ErrorMessage: reason,
	}
	if role != nil {
		details.Role = *role
		entry.Details = details
	}
	if claims, ok := Claims(c); ok {
		entry.UserID = claims.UserID
	}
	audit.Record(c.Request.Context(), entry)
}
