package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTokens map[string]*models.JWTClaims

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token inválido o expirado")
}

type captureAudit struct{ entries []models.AuditEntry }

func (c *captureAudit) Record(_ context.Context, entry models.AuditEntry) {
	c.entries = append(c.entries, entry)
}

var guardTokens = stubTokens{
	"super": {UserID: "u-1", Role: models.RoleSuperAdmin},
	"admin": {UserID: "u-2", Role: models.RoleAdmin},
}

func newGuardRouter(audit *captureAudit, handlerCalls *int) *gin.Engine {
	guard := NewGuard(guardTokens, audit)
	r := gin.New()
	handler := func(c *gin.Context) {
		*handlerCalls++
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(logger.UserIDKey)})
	}
	r.GET("/any", guard.Authenticate(), handler)
	r.DELETE("/super", guard.Require(models.RoleSuperAdmin), handler)
	r.GET("/optional", guard.Optional(), func(c *gin.Context) {
		_, ok := Claims(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	return r
}

func TestGuardMissingTokenIs401AndAudited(t *testing.T) {
	audit := &captureAudit{}
	calls := 0
	r := newGuardRouter(audit, &calls)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/super", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, calls)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditUnauthorizedAccess, audit.entries[0].Action)
	details := audit.entries[0].Details.(models.AccessDetails)
	assert.Equal(t, "missing_token", details.Reason)
	assert.Equal(t, "/super", details.Path)
}

func TestGuardCookieTakesPrecedenceOverBearer(t *testing.T) {
	calls := 0
	r := newGuardRouter(&captureAudit{}, &calls)

	req := httptest.NewRequest(http.MethodGet, "/any", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "admin"})
	req.Header.Set("Authorization", "Bearer super")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u-2"}`, w.Body.String())
}

func TestGuardBearerFallback(t *testing.T) {
	calls := 0
	r := newGuardRouter(&captureAudit{}, &calls)

	req := httptest.NewRequest(http.MethodGet, "/any", nil)
	req.Header.Set("Authorization", "bearer super")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

func TestGuardInvalidToken(t *testing.T) {
	audit := &captureAudit{}
	calls := 0
	r := newGuardRouter(audit, &calls)

	req := httptest.NewRequest(http.MethodGet, "/any", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_token", audit.entries[0].Details.(models.AccessDetails).Reason)
}

func TestGuardWrongRoleIs403(t *testing.T) {
	audit := &captureAudit{}
	calls := 0
	r := newGuardRouter(audit, &calls)

	req := httptest.NewRequest(http.MethodDelete, "/super", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "admin"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, calls)
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, "u-2", entry.UserID)
	details := entry.Details.(models.AccessDetails)
	assert.Equal(t, models.RoleAdmin, details.Role)
	assert.Equal(t, []models.UserRole{models.RoleSuperAdmin}, details.Required)

	req = httptest.NewRequest(http.MethodDelete, "/super", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "super"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

func TestGuardOptional(t *testing.T) {
	calls := 0
	r := newGuardRouter(&captureAudit{}, &calls)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/optional", nil))
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer admin")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"authenticated":true}`, w.Body.String())
}

type stubCSRF struct{}

func (stubCSRF) ValidateCSRF(_ context.Context, refresh, header string) error {
	if refresh == "r1" && header == "c1" {
		return nil
	}
	return appErrors.Clone(appErrors.ErrCSRF, "")
}

func TestCSRF(t *testing.T) {
	r := gin.New()
	r.Use(CSRF(stubCSRF{}, true))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "CSRF_INVALID")

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "r1"})
	req.Header.Set(CSRFHeader, "c1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCSRFDisabled(t *testing.T) {
	r := gin.New()
	r.Use(CSRF(nil, false))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResponseMetaCarriesCacheHit(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/x", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ResponseMeta(c))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Contains(t, w.Body.String(), `"cacheHit":true`)
	assert.Contains(t, w.Body.String(), `"processingTimeMs"`)
}

func TestCurrentActorAnonymous(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Request.Header.Set("User-Agent", "ua")
	actor := CurrentActor(c)
	assert.Empty(t, actor.UserID)
	assert.Equal(t, "ua", actor.Meta.UserAgent)
}
