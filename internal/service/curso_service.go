package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/slug"
	"github.com/cefib-pe/cefib-admin-api/pkg/validation"
)

type cursoRepository interface {
	List(ctx context.Context, filter models.CursoFilter) ([]models.Curso, int, error)
	FindByID(ctx context.Context, id string) (*models.Curso, error)
	FindBySlug(ctx context.Context, slug string) (*models.Curso, error)
	ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, curso *models.Curso) error
	Update(ctx context.Context, curso *models.Curso) error
	Delete(ctx context.Context, id string) error
}

type docenteLookup interface {
	FindByID(ctx context.Context, id string) (*models.Docente, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, string) {}

// CursoRequest is the payload for creating or replacing a course. An empty
// slug is derived from the title.
type CursoRequest struct {
	Titulo        string             `json:"titulo" validate:"required,min=3,max=200"`
	Slug          string             `json:"slug" validate:"omitempty,slug,max=220"`
	Descripcion   string             `json:"descripcion" validate:"max=5000"`
	Modalidad     models.Modalidad   `json:"modalidad" validate:"required,oneof=PRESENCIAL VIRTUAL HIBRIDO"`
	Categoria     string             `json:"categoria" validate:"required,max=100"`
	DuracionHoras int                `json:"duracionHoras" validate:"gte=0,lte=2000"`
	Precio        float64            `json:"precio" validate:"gte=0"`
	FechaInicio   *time.Time         `json:"fechaInicio"`
	FechaFin      *time.Time         `json:"fechaFin"`
	CupoMaximo    int                `json:"cupoMaximo" validate:"gte=0,lte=10000"`
	Estado        models.CursoEstado `json:"estado" validate:"omitempty,oneof=BORRADOR PUBLICADO FINALIZADO CANCELADO"`
	DocenteID     *string            `json:"docenteId" validate:"omitempty,uuid"`
	ImagenURL     *string            `json:"imagenUrl" validate:"omitempty,url,max=500"`
}

// CursoService manages the course catalog.
type CursoService struct {
	repo      cursoRepository
	docentes  docenteLookup
	cache     cacheInvalidator
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCursoService constructs a CursoService.
func NewCursoService(repo cursoRepository, docentes docenteLookup, cache cacheInvalidator, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *CursoService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &CursoService{repo: repo, docentes: docentes, cache: cache, audit: audit, validator: validate, logger: logger}
}

// List returns courses plus pagination data.
func (s *CursoService) List(ctx context.Context, filter models.CursoFilter) ([]models.Curso, *models.Pagination, error) {
	normalizePaging(&filter.ListQuery)
	cursos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "no se pudo listar los cursos")
	}
	return cursos, pagination(filter.ListQuery, total), nil
}

// Get returns a course by id.
func (s *CursoService) Get(ctx context.Context, id string) (*models.Curso, error) {
	curso, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "curso no encontrado", "no se pudo cargar el curso")
	}
	return curso, nil
}

// Create registers a new course.
func (s *CursoService) Create(ctx context.Context, actor models.Actor, req CursoRequest) (curso *models.Curso, err error) {
	defer func() {
		s.audit.Record(ctx, mutationEntry(actor, models.AuditCreate, models.EntityCurso, cursoID(curso), models.EntityDetails{After: curso}, err))
	}()

	curso = &models.Curso{Estado: models.CursoBorrador}
	if err := s.apply(ctx, curso, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, curso); err != nil {
		return nil, writeError(err, "curso no encontrado", "no se pudo crear el curso")
	}
	s.invalidate(ctx)
	return curso, nil
}

// Update replaces the editable fields of a course.
func (s *CursoService) Update(ctx context.Context, actor models.Actor, id string, req CursoRequest) (curso *models.Curso, err error) {
	var before models.Curso
	defer func() {
		details := models.EntityDetails{After: curso}
		if curso != nil {
			details.Fields = changedFields(before, curso)
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditUpdate, models.EntityCurso, id, details, err))
	}()

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "curso no encontrado", "no se pudo cargar el curso")
	}
	before = *existing
	if err := s.apply(ctx, existing, req, id); err != nil {
		return nil, err
	}
	if existing.CupoMaximo > 0 && existing.CupoMaximo < existing.CupoActual {
		return nil, fieldInvalid("cupoMaximo", "el cupo máximo no puede ser menor que los inscritos actuales")
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, writeError(err, "curso no encontrado", "no se pudo actualizar el curso")
	}
	s.invalidate(ctx)
	return existing, nil
}

// Delete removes a course and, through the database, its enrollments.
func (s *CursoService) Delete(ctx context.Context, actor models.Actor, id string) (err error) {
	var before *models.Curso
	defer func() {
		s.audit.Record(ctx, mutationEntry(actor, models.AuditDelete, models.EntityCurso, id, models.EntityDetails{Before: before}, err))
	}()

	before, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "curso no encontrado", "no se pudo cargar el curso")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "curso no encontrado", "no se pudo eliminar el curso")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CursoService) apply(ctx context.Context, curso *models.Curso, req CursoRequest, excludeID string) error {
	if err := s.validator.Struct(req); err != nil {
		return invalidPayload(err, "datos del curso inválidos")
	}
	if req.FechaInicio != nil && req.FechaFin != nil && req.FechaFin.Before(*req.FechaInicio) {
		return fieldInvalid("fechaFin", "la fecha de fin debe ser posterior a la fecha de inicio")
	}

	value := strings.TrimSpace(req.Slug)
	if value == "" {
		value = slug.Make(req.Titulo)
	}
	if value == "" {
		return fieldInvalid("slug", "no se pudo generar un slug a partir del título")
	}
	exists, err := s.repo.ExistsBySlug(ctx, value, excludeID)
	if err != nil {
		return internalError(err, "no se pudo validar el slug")
	}
	if exists {
		return appErrors.Duplicate("slug", duplicateMessage("slug"))
	}

	docenteID := normalizeOptional(req.DocenteID)
	if docenteID != nil && s.docentes != nil {
		if _, err := s.docentes.FindByID(ctx, *docenteID); err != nil {
			appErr := lookupError(err, "", "no se pudo validar el docente")
			if appErr.Status >= 500 {
				return appErr
			}
			return fieldInvalid("docenteId", "el docente no existe")
		}
	}

	curso.Titulo = strings.TrimSpace(req.Titulo)
	curso.Slug = value
	curso.Descripcion = strings.TrimSpace(req.Descripcion)
	curso.Modalidad = req.Modalidad
	curso.Categoria = strings.TrimSpace(req.Categoria)
	curso.DuracionHoras = req.DuracionHoras
	curso.Precio = req.Precio
	curso.FechaInicio = req.FechaInicio
	curso.FechaFin = req.FechaFin
	curso.CupoMaximo = req.CupoMaximo
	if req.Estado != "" {
		curso.Estado = req.Estado
	}
	curso.DocenteID = docenteID
	curso.ImagenURL = normalizeOptional(req.ImagenURL)
	return nil
}

func (s *CursoService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, CacheKeyCatalog+"*")
	s.cache.Invalidate(ctx, CacheKeyDashboard)
}

func cursoID(c *models.Curso) string {
	if c == nil {
		return ""
	}
	return c.ID
}
