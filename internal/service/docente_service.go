package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/validation"
)

type docenteRepository interface {
	List(ctx context.Context, filter models.DocenteFilter) ([]models.Docente, int, error)
	FindByID(ctx context.Context, id string) (*models.Docente, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, docente *models.Docente) error
	Update(ctx context.Context, docente *models.Docente) error
	Delete(ctx context.Context, id string) error
}

// DocenteRequest is the payload for creating or replacing an instructor.
type DocenteRequest struct {
	Nombres      string  `json:"nombres" validate:"required,min=2,max=100"`
	Apellidos    string  `json:"apellidos" validate:"required,min=2,max=100"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	Telefono     *string `json:"telefono" validate:"omitempty,max=30"`
	Especialidad *string `json:"especialidad" validate:"omitempty,max=200"`
	Biografia    *string `json:"biografia" validate:"omitempty,max=5000"`
	FotoURL      *string `json:"fotoUrl" validate:"omitempty,url,max=500"`
	Activo       *bool   `json:"activo"`
}

// DocenteService orchestrates instructor operations.
type DocenteService struct {
	repo      docenteRepository
	cache     cacheInvalidator
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDocenteService constructs a DocenteService.
func NewDocenteService(repo docenteRepository, cache cacheInvalidator, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *DocenteService {
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
	return &DocenteService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger}
}

// List returns instructors plus pagination data.
func (s *DocenteService) List(ctx context.Context, filter models.DocenteFilter) ([]models.Docente, *models.Pagination, error) {
	normalizePaging(&filter.ListQuery)
	docentes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "no se pudo listar los docentes")
	}
	return docentes, pagination(filter.ListQuery, total), nil
}

// Get returns an instructor by id.
func (s *DocenteService) Get(ctx context.Context, id string) (*models.Docente, error) {
	docente, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "docente no encontrado", "no se pudo cargar el docente")
	}
	return docente, nil
}

// Create registers a new instructor.
func (s *DocenteService) Create(ctx context.Context, actor models.Actor, req DocenteRequest) (docente *models.Docente, err error) {
	defer func() {
		var id string
		if docente != nil {
			id = docente.ID
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditCreate, models.EntityDocente, id, models.EntityDetails{After: docente}, err))
	}()

	docente = &models.Docente{Activo: true}
	if err := s.apply(ctx, docente, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, docente); err != nil {
		return nil, writeError(err, "docente no encontrado", "no se pudo crear el docente")
	}
	s.cache.Invalidate(ctx, CacheKeyDashboard)
	return docente, nil
}

// Update replaces an instructor's fields.
func (s *DocenteService) Update(ctx context.Context, actor models.Actor, id string, req DocenteRequest) (docente *models.Docente, err error) {
	var before models.Docente
	defer func() {
		details := models.EntityDetails{After: docente}
		if docente != nil {
			details.Fields = changedFields(before, docente)
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditUpdate, models.EntityDocente, id, details, err))
	}()

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "docente no encontrado", "no se pudo cargar el docente")
	}
	before = *existing
	if err := s.apply(ctx, existing, req, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, writeError(err, "docente no encontrado", "no se pudo actualizar el docente")
	}
	// Course pages embed the instructor.
	s.cache.Invalidate(ctx, CacheKeyCatalog+"*")
	s.cache.Invalidate(ctx, CacheKeyDashboard)
	return existing, nil
}

// Delete removes an instructor. Courses they taught keep existing without one.
func (s *DocenteService) Delete(ctx context.Context, actor models.Actor, id string) (err error) {
	var before *models.Docente
	defer func() {
		s.audit.Record(ctx, mutationEntry(actor, models.AuditDelete, models.EntityDocente, id, models.EntityDetails{Before: before}, err))
	}()

	before, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "docente no encontrado", "no se pudo cargar el docente")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "docente no encontrado", "no se pudo eliminar el docente")
	}
	s.cache.Invalidate(ctx, CacheKeyCatalog+"*")
	s.cache.Invalidate(ctx, CacheKeyDashboard)
	return nil
}

func (s *DocenteService) apply(ctx context.Context, docente *models.Docente, req DocenteRequest, excludeID string) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return invalidPayload(err, "datos del docente inválidos")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, excludeID)
	if err != nil {
		return internalError(err, "no se pudo validar el email")
	}
	if exists {
		return appErrors.Duplicate("email", duplicateMessage("email"))
	}

	docente.Nombres = strings.TrimSpace(req.Nombres)
	docente.Apellidos = strings.TrimSpace(req.Apellidos)
	docente.Email = req.Email
	docente.Telefono = normalizeOptional(req.Telefono)
	docente.Especialidad = normalizeOptional(req.Especialidad)
	docente.Biografia = normalizeOptional(req.Biografia)
	docente.FotoURL = normalizeOptional(req.FotoURL)
	if req.Activo != nil {
		docente.Activo = *req.Activo
	}
	return nil
}
