package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/repository"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/validation"
)

type inscripcionRepository interface {
	List(ctx context.Context, filter models.InscripcionFilter) ([]models.InscripcionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.InscripcionDetail, error)
	Create(ctx context.Context, item *models.Inscripcion) error
	Update(ctx context.Context, item *models.Inscripcion) error
	Delete(ctx context.Context, id string) error
}

type participanteLookup interface {
	FindByID(ctx context.Context, id string) (*models.Participante, error)
}

// CreateInscripcionRequest enrolls a participant in a course.
type CreateInscripcionRequest struct {
	CursoID        string                   `json:"cursoId" validate:"required,uuid"`
	ParticipanteID string                   `json:"participanteId" validate:"required,uuid"`
	Estado         models.InscripcionEstado `json:"estado" validate:"omitempty,oneof=PENDIENTE CONFIRMADA CANCELADA"`
	EstadoPago     models.EstadoPago        `json:"estadoPago" validate:"omitempty,oneof=PENDIENTE PAGADO EXONERADO"`
	MontoPagado    float64                  `json:"montoPagado" validate:"gte=0"`
	Notas          *string                  `json:"notas" validate:"omitempty,max=2000"`
}

// UpdateInscripcionRequest changes status and payment of an enrollment.
type UpdateInscripcionRequest struct {
	Estado      models.InscripcionEstado `json:"estado" validate:"required,oneof=PENDIENTE CONFIRMADA CANCELADA"`
	EstadoPago  models.EstadoPago        `json:"estadoPago" validate:"required,oneof=PENDIENTE PAGADO EXONERADO"`
	MontoPagado float64                  `json:"montoPagado" validate:"gte=0"`
	Notas       *string                  `json:"notas" validate:"omitempty,max=2000"`
}

// InscripcionService manages enrollments and the seat count they consume.
type InscripcionService struct {
	repo          inscripcionRepository
	participantes participanteLookup
	cache         cacheInvalidator
	audit         auditRecorder
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewInscripcionService constructs an InscripcionService.
func NewInscripcionService(repo inscripcionRepository, participantes participanteLookup, cache cacheInvalidator, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *InscripcionService {
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
	return &InscripcionService{repo: repo, participantes: participantes, cache: cache, audit: audit, validator: validate, logger: logger}
}

// List returns enrollments plus pagination data.
func (s *InscripcionService) List(ctx context.Context, filter models.InscripcionFilter) ([]models.InscripcionDetail, *models.Pagination, error) {
	normalizePaging(&filter.ListQuery)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "no se pudo listar las inscripciones")
	}
	return items, pagination(filter.ListQuery, total), nil
}

// Get returns an enrollment by id.
func (s *InscripcionService) Get(ctx context.Context, id string) (*models.InscripcionDetail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "inscripción no encontrada", "no se pudo cargar la inscripción")
	}
	return item, nil
}

// Create enrolls a participant, taking one seat of the course.
func (s *InscripcionService) Create(ctx context.Context, actor models.Actor, req CreateInscripcionRequest) (item *models.Inscripcion, err error) {
	defer func() {
		var id string
		if item != nil {
			id = item.ID
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditCreate, models.EntityInscripcion, id, models.EntityDetails{After: item}, err))
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "datos de la inscripción inválidos")
	}
	if s.participantes != nil {
		if _, err := s.participantes.FindByID(ctx, req.ParticipanteID); err != nil {
			appErr := lookupError(err, "", "no se pudo validar el participante")
			if appErr.Status >= 500 {
				return nil, appErr
			}
			return nil, fieldInvalid("participanteId", "el participante no existe")
		}
	}

	item = &models.Inscripcion{
		CursoID:        req.CursoID,
		ParticipanteID: req.ParticipanteID,
		Estado:         req.Estado,
		EstadoPago:     req.EstadoPago,
		MontoPagado:    req.MontoPagado,
		Notas:          normalizeOptional(req.Notas),
	}
	if item.Estado == "" {
		item.Estado = models.InscripcionPendiente
	}
	if item.EstadoPago == "" {
		item.EstadoPago = models.PagoPendiente
	}

	if err := s.repo.Create(ctx, item); err != nil {
		switch {
		case errors.Is(err, repository.ErrCursoNotFound):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "curso no encontrado")
		case errors.Is(err, repository.ErrCursoLleno):
			return nil, appErrors.Clone(appErrors.ErrConflict, "el curso no tiene cupos disponibles")
		}
		return nil, writeError(err, "inscripción no encontrada", "no se pudo crear la inscripción")
	}
	s.invalidate(ctx)
	return item, nil
}

// Update changes status, payment and notes of an enrollment.
func (s *InscripcionService) Update(ctx context.Context, actor models.Actor, id string, req UpdateInscripcionRequest) (item *models.Inscripcion, err error) {
	var before models.Inscripcion
	defer func() {
		details := models.EntityDetails{After: item}
		if item != nil {
			details.Fields = changedFields(before, item)
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditUpdate, models.EntityInscripcion, id, details, err))
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "datos de la inscripción inválidos")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "inscripción no encontrada", "no se pudo cargar la inscripción")
	}
	before = existing.Inscripcion
	updated := existing.Inscripcion
	updated.Estado = req.Estado
	updated.EstadoPago = req.EstadoPago
	updated.MontoPagado = req.MontoPagado
	updated.Notas = normalizeOptional(req.Notas)
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, lookupError(err, "inscripción no encontrada", "no se pudo actualizar la inscripción")
	}
	s.cache.Invalidate(ctx, CacheKeyDashboard)
	return &updated, nil
}

// Delete removes an enrollment and releases its seat.
func (s *InscripcionService) Delete(ctx context.Context, actor models.Actor, id string) (err error) {
	var before *models.InscripcionDetail
	defer func() {
		s.audit.Record(ctx, mutationEntry(actor, models.AuditDelete, models.EntityInscripcion, id, models.EntityDetails{Before: before}, err))
	}()

	before, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "inscripción no encontrada", "no se pudo cargar la inscripción")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "inscripción no encontrada", "no se pudo eliminar la inscripción")
	}
	s.invalidate(ctx)
	return nil
}

func (s *InscripcionService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, CacheKeyCatalog+"*")
	s.cache.Invalidate(ctx, CacheKeyDashboard)
}
