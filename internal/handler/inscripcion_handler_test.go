package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/service"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
)

type fakeInscripciones struct {
	filter    models.InscripcionFilter
	createErr error
	actor     models.Actor
}

func (f *fakeInscripciones) List(_ context.Context, filter models.InscripcionFilter) ([]models.InscripcionDetail, *models.Pagination, error) {
	f.filter = filter
	return []models.InscripcionDetail{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeInscripciones) Get(context.Context, string) (*models.InscripcionDetail, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "inscripción no encontrada")
}

func (f *fakeInscripciones) Create(_ context.Context, actor models.Actor, req service.CreateInscripcionRequest) (*models.Inscripcion, error) {
	f.actor = actor
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Inscripcion{ID: "i-1", CursoID: req.CursoID, ParticipanteID: req.ParticipanteID}, nil
}

func (f *fakeInscripciones) Update(context.Context, models.Actor, string, service.UpdateInscripcionRequest) (*models.Inscripcion, error) {
	return &models.Inscripcion{ID: "i-1"}, nil
}

func (f *fakeInscripciones) Delete(context.Context, models.Actor, string) error {
	return nil
}

func TestInscripcionListParsesFilters(t *testing.T) {
	svc := &fakeInscripciones{}
	handler := NewInscripcionHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/inscripciones?cursoId=c-1&estado=confirmada&estadoPago=PAGADO&limit=50&sort=createdAt&order=asc", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c-1", svc.filter.CursoID)
	require.NotNil(t, svc.filter.Estado)
	assert.Equal(t, models.InscripcionConfirmada, *svc.filter.Estado)
	require.NotNil(t, svc.filter.EstadoPago)
	assert.Equal(t, models.PagoPagado, *svc.filter.EstadoPago)
	assert.Equal(t, 50, svc.filter.PageSize)
	assert.Equal(t, "asc", svc.filter.SortOrder)
}

func TestInscripcionCreateFullCourseIs409(t *testing.T) {
	svc := &fakeInscripciones{createErr: appErrors.Clone(appErrors.ErrConflict, "el curso no tiene cupos disponibles")}
	handler := NewInscripcionHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/inscripciones", strings.NewReader(`{"cursoId":"c-1","participanteId":"p-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("User-Agent", "tests")

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "cupos")
	assert.Equal(t, "tests", svc.actor.Meta.UserAgent)
}

func TestInscripcionGetNotFound(t *testing.T) {
	handler := NewInscripcionHandler(&fakeInscripciones{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/inscripciones/x", nil)
	c.Params = gin.Params{{Key: "id", Value: "x"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
