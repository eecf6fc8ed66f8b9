package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. It expects an
// earlier middleware to have stored the caller's claims.
func RequireRoles(audit auditRecorder, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			recordDenied(c, audit, "missing_token", nil, roles)
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			role := claims.Role
			recordDenied(c, audit, "role_not_allowed", &role, roles)
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
