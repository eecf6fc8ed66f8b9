package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/logger"
	"github.com/cefib-pe/cefib-admin-api/pkg/response"
)

// Cookie names shared with the auth handler.
const (
	AccessCookie  = "auth-token"
	RefreshCookie = "refresh-token"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditEntry)
}

// Guard authenticates requests and enforces roles. Every rejection is
// written to the audit trail as UNAUTHORIZED_ACCESS.
type Guard struct {
	tokens tokenValidator
	audit  auditRecorder
}

// NewGuard constructs a Guard. audit may be nil.
func NewGuard(tokens tokenValidator, audit auditRecorder) *Guard {
	return &Guard{tokens: tokens, audit: audit}
}

// Authenticate requires a valid access token, read from the auth-token cookie
// or, failing that, an Authorization: Bearer header.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.authenticate(c) {
			c.Next()
		}
	}
}

func (g *Guard) authenticate(c *gin.Context) bool {
	token := extractToken(c)
	if token == "" {
		recordDenied(c, g.audit, "missing_token", nil, nil)
		response.Error(c, appErrors.ErrUnauthorized)
		return false
	}
	claims, err := g.tokens.ValidateToken(token)
	if err != nil {
		recordDenied(c, g.audit, "invalid_token", nil, nil)
		response.Error(c, err)
		return false
	}
	setClaims(c, claims)
	return true
}

// Optional attaches claims when a valid token is present and never blocks.
func (g *Guard) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if claims, err := g.tokens.ValidateToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// Require authenticates and then checks the caller's role is one of roles.
func (g *Guard) Require(roles ...models.UserRole) gin.HandlerFunc {
	authorize := RequireRoles(g.audit, roles...)
	return func(c *gin.Context) {
		if !g.authenticate(c) {
			return
		}
		authorize(c)
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setClaims(c *gin.Context, claims *models.JWTClaims) {
	c.Set(ContextUserKey, claims)
	c.Set(logger.UserIDKey, claims.UserID)
}

// Claims returns the authenticated caller, if any.
func Claims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}
