package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/pkg/validation"
)

type solicitudRepository interface {
	List(ctx context.Context, filter models.SolicitudFilter) ([]models.Solicitud, int, error)
	FindByID(ctx context.Context, id string) (*models.Solicitud, error)
	Create(ctx context.Context, s *models.Solicitud) error
	Update(ctx context.Context, s *models.Solicitud) error
	Delete(ctx context.Context, id string) error
}

type cursoLookup interface {
	FindByID(ctx context.Context, id string) (*models.Curso, error)
}

// CreateSolicitudRequest is the public lead form.
type CreateSolicitudRequest struct {
	Nombre   string  `json:"nombre" validate:"required,min=2,max=150"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Telefono *string `json:"telefono" validate:"omitempty,max=30"`
	Empresa  *string `json:"empresa" validate:"omitempty,max=200"`
	CursoID  *string `json:"cursoId" validate:"omitempty,uuid"`
	Mensaje  *string `json:"mensaje" validate:"omitempty,max=2000"`
}

// UpdateSolicitudRequest moves a lead through follow-up.
type UpdateSolicitudRequest struct {
	Estado models.SolicitudEstado `json:"estado" validate:"required,oneof=NUEVA CONTACTADA CONVERTIDA DESCARTADA"`
	Notas  *string                `json:"notas" validate:"omitempty,max=2000"`
}

// SolicitudService manages inbound information requests.
type SolicitudService struct {
	repo      solicitudRepository
	cursos    cursoLookup
	cache     cacheInvalidator
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSolicitudService constructs a SolicitudService.
func NewSolicitudService(repo solicitudRepository, cursos cursoLookup, cache cacheInvalidator, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *SolicitudService {
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
	return &SolicitudService{repo: repo, cursos: cursos, cache: cache, audit: audit, validator: validate, logger: logger}
}

// List returns leads plus pagination data.
func (s *SolicitudService) List(ctx context.Context, filter models.SolicitudFilter) ([]models.Solicitud, *models.Pagination, error) {
	normalizePaging(&filter.ListQuery)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "no se pudo listar las solicitudes")
	}
	return items, pagination(filter.ListQuery, total), nil
}

// Get returns a lead by id.
func (s *SolicitudService) Get(ctx context.Context, id string) (*models.Solicitud, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "solicitud no encontrada", "no se pudo cargar la solicitud")
	}
	return item, nil
}

// Create stores a lead submitted from the public site. actor carries only
// the request metadata when the caller is anonymous.
func (s *SolicitudService) Create(ctx context.Context, actor models.Actor, req CreateSolicitudRequest) (item *models.Solicitud, err error) {
	defer func() {
		var id string
		if item != nil {
			id = item.ID
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditCreate, models.EntitySolicitud, id, models.EntityDetails{After: item}, err))
	}()

	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "datos de la solicitud inválidos")
	}
	cursoID := normalizeOptional(req.CursoID)
	if cursoID != nil && s.cursos != nil {
		if _, err := s.cursos.FindByID(ctx, *cursoID); err != nil {
			appErr := lookupError(err, "", "no se pudo validar el curso")
			if appErr.Status >= 500 {
				return nil, appErr
			}
			return nil, fieldInvalid("cursoId", "el curso no existe")
		}
	}

	item = &models.Solicitud{
		Nombre:   strings.TrimSpace(req.Nombre),
		Email:    req.Email,
		Telefono: normalizeOptional(req.Telefono),
		Empresa:  normalizeOptional(req.Empresa),
		CursoID:  cursoID,
		Mensaje:  normalizeOptional(req.Mensaje),
		Estado:   models.SolicitudNueva,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, writeError(err, "solicitud no encontrada", "no se pudo registrar la solicitud")
	}
	s.cache.Invalidate(ctx, CacheKeyDashboard)
	return item, nil
}

// Update changes the follow-up status and notes of a lead.
func (s *SolicitudService) Update(ctx context.Context, actor models.Actor, id string, req UpdateSolicitudRequest) (item *models.Solicitud, err error) {
	var before models.Solicitud
	defer func() {
		details := models.EntityDetails{After: item}
		if item != nil {
			details.Fields = changedFields(before, item)
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditUpdate, models.EntitySolicitud, id, details, err))
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "datos de la solicitud inválidos")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "solicitud no encontrada", "no se pudo cargar la solicitud")
	}
	before = *existing
	existing.Estado = req.Estado
	existing.Notas = normalizeOptional(req.Notas)
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, lookupError(err, "solicitud no encontrada", "no se pudo actualizar la solicitud")
	}
	s.cache.Invalidate(ctx, CacheKeyDashboard)
	return existing, nil
}

// Delete removes a lead.
func (s *SolicitudService) Delete(ctx context.Context, actor models.Actor, id string) (err error) {
	var before *models.Solicitud
	defer func() {
		s.audit.Record(ctx, mutationEntry(actor, models.AuditDelete, models.EntitySolicitud, id, models.EntityDetails{Before: before}, err))
	}()

	before, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "solicitud no encontrada", "no se pudo cargar la solicitud")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "solicitud no encontrada", "no se pudo eliminar la solicitud")
	}
	s.cache.Invalidate(ctx, CacheKeyDashboard)
	return nil
}
