package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/pkg/response"
)

// CSRFHeader carries the token handed out at login.
const CSRFHeader = "X-CSRF-Token"

type csrfValidator interface {
	ValidateCSRF(ctx context.Context, refreshToken, header string) error
}

// CSRF requires state-changing requests to echo the CSRF token bound to the
// caller's refresh token. Safe methods pass through.
func CSRF(validator csrfValidator, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		refresh, _ := c.Cookie(RefreshCookie)
		if err := validator.ValidateCSRF(c.Request.Context(), refresh, c.GetHeader(CSRFHeader)); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}
