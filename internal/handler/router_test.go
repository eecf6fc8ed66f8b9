package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefib-pe/cefib-admin-api/internal/middleware"
	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/service"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
)

type fakeCursoService struct {
	calls   int
	created []service.CursoRequest
	deleted []string
	err     error
}

func (f *fakeCursoService) List(context.Context, models.CursoFilter) ([]models.Curso, *models.Pagination, error) {
	f.calls++
	return []models.Curso{{ID: "c-1", Titulo: "Excel"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, f.err
}

func (f *fakeCursoService) Get(context.Context, string) (*models.Curso, error) {
	f.calls++
	return &models.Curso{ID: "c-1"}, f.err
}

func (f *fakeCursoService) Create(_ context.Context, _ models.Actor, req service.CursoRequest) (*models.Curso, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	return &models.Curso{ID: "c-2", Titulo: req.Titulo}, nil
}

func (f *fakeCursoService) Update(context.Context, models.Actor, string, service.CursoRequest) (*models.Curso, error) {
	f.calls++
	return &models.Curso{ID: "c-1"}, f.err
}

func (f *fakeCursoService) Delete(_ context.Context, _ models.Actor, id string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type rejectingCSRF struct{}

func (rejectingCSRF) ValidateCSRF(context.Context, string, string) error {
	return appErrors.ErrCSRF
}

var routerTokens = stubTokens{
	"super": {UserID: "u-1", Role: models.RoleSuperAdmin},
	"admin": {UserID: "u-2", Role: models.RoleAdmin},
}

func newTestRouter(cursos *fakeCursoService, audit *captureAudit, csrf gin.HandlerFunc, db pinger) *gin.Engine {
	r := gin.New()
	guard := middleware.NewGuard(routerTokens, audit)
	RegisterRoutes(r, guard, csrf, Handlers{
		Cursos:  NewCursoHandler(cursos),
		Metrics: NewMetricsHandler(nil, db),
	}, RouteOptions{APIPrefix: "/api"})
	return r
}

func doRequest(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if method == http.MethodPost || method == http.MethodPut {
		req = httptest.NewRequest(method, path, strings.NewReader(`{"titulo":"Excel avanzado","modalidad":"VIRTUAL","categoria":"Ofimática"}`))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: token})
	}
	r.ServeHTTP(rec, req)
	return rec
}

func TestCursoRoutesRoleGating(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"anonymous list", http.MethodGet, "/api/cursos", "", http.StatusUnauthorized},
		{"anonymous create", http.MethodPost, "/api/cursos", "", http.StatusUnauthorized},
		{"anonymous delete", http.MethodDelete, "/api/cursos/c-1", "", http.StatusUnauthorized},
		{"invalid token", http.MethodPut, "/api/cursos/c-1", "forged", http.StatusUnauthorized},
		{"admin delete", http.MethodDelete, "/api/cursos/c-1", "admin", http.StatusForbidden},
		{"admin users", http.MethodGet, "/api/usuarios", "admin", http.StatusForbidden},
		{"admin create user", http.MethodPost, "/api/usuarios", "admin", http.StatusForbidden},
		{"admin delete docente", http.MethodDelete, "/api/docentes/d-1", "admin", http.StatusForbidden},
		{"anonymous dashboard", http.MethodGet, "/api/admin/dashboard", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cursos := &fakeCursoService{}
			audit := &captureAudit{}
			r := newTestRouter(cursos, audit, nil, nil)

			rec := doRequest(r, tc.method, tc.path, tc.token)

			assert.Equal(t, tc.status, rec.Code)
			assert.Zero(t, cursos.calls)
			require.Len(t, audit.entries, 1)
			assert.Equal(t, models.AuditUnauthorizedAccess, audit.entries[0].Action)
			assert.False(t, audit.entries[0].Success)
		})
	}
}

func TestCursoRoutesAllowedRoles(t *testing.T) {
	cursos := &fakeCursoService{}
	r := newTestRouter(cursos, &captureAudit{}, nil, nil)

	rec := doRequest(r, http.MethodGet, "/api/cursos?page=2&limit=5", "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)

	rec = doRequest(r, http.MethodPost, "/api/cursos", "admin")
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, cursos.created, 1)
	assert.Equal(t, "Excel avanzado", cursos.created[0].Titulo)

	rec = doRequest(r, http.MethodDelete, "/api/cursos/c-1", "super")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"c-1"}, cursos.deleted)
}

func TestCursoDuplicateSlugSurfacesField(t *testing.T) {
	cursos := &fakeCursoService{err: appErrors.Duplicate("slug", "el slug ya está en uso")}
	r := newTestRouter(cursos, &captureAudit{}, nil, nil)

	rec := doRequest(r, http.MethodPost, "/api/cursos", "admin")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DUPLICATE_VALUE", env.Error.Code)
	assert.Equal(t, "slug", env.Error.Field)
	assert.Empty(t, cursos.created)
}

func TestCSRFBlocksMutationsButNotReads(t *testing.T) {
	cursos := &fakeCursoService{}
	r := newTestRouter(cursos, &captureAudit{}, middleware.CSRF(rejectingCSRF{}, true), nil)

	rec := doRequest(r, http.MethodPost, "/api/cursos", "admin")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "CSRF_INVALID", decodeEnvelope(t, rec).Error.Code)
	assert.Empty(t, cursos.created)

	rec = doRequest(r, http.MethodGet, "/api/cursos", "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndReady(t *testing.T) {
	r := newTestRouter(&fakeCursoService{}, &captureAudit{}, nil, fakePinger{})
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/ready", "").Code)

	down := newTestRouter(&fakeCursoService{}, &captureAudit{}, nil, fakePinger{err: errors.New("connection refused")})
	rec := doRequest(down, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestMetricsRouteDisabledByDefault(t *testing.T) {
	r := newTestRouter(&fakeCursoService{}, &captureAudit{}, nil, nil)
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/metrics", "").Code)
}
