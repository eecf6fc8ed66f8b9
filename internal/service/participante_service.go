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

type participanteRepository interface {
	List(ctx context.Context, filter models.ParticipanteFilter) ([]models.Participante, int, error)
	FindByID(ctx context.Context, id string) (*models.Participante, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	ExistsByDocumento(ctx context.Context, numero, excludeID string) (bool, error)
	Create(ctx context.Context, p *models.Participante) error
	Update(ctx context.Context, p *models.Participante) error
	Delete(ctx context.Context, id string) error
}

// ParticipanteRequest is the payload for creating or replacing a participant.
type ParticipanteRequest struct {
	Nombres         string               `json:"nombres" validate:"required,min=2,max=100"`
	Apellidos       string               `json:"apellidos" validate:"required,min=2,max=100"`
	TipoDocumento   models.TipoDocumento `json:"tipoDocumento" validate:"required,oneof=DNI CE PASAPORTE"`
	NumeroDocumento string               `json:"numeroDocumento" validate:"required,alphanum,min=6,max=20"`
	Email           string               `json:"email" validate:"required,email,max=255"`
	Telefono        *string              `json:"telefono" validate:"omitempty,max=30"`
	Empresa         *string              `json:"empresa" validate:"omitempty,max=200"`
	Cargo           *string              `json:"cargo" validate:"omitempty,max=100"`
}

// ParticipanteService orchestrates participant operations.
type ParticipanteService struct {
	repo      participanteRepository
	cache     cacheInvalidator
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewParticipanteService constructs a ParticipanteService.
func NewParticipanteService(repo participanteRepository, cache cacheInvalidator, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ParticipanteService {
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
	return &ParticipanteService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger}
}

// List returns participants plus pagination data.
func (s *ParticipanteService) List(ctx context.Context, filter models.ParticipanteFilter) ([]models.Participante, *models.Pagination, error) {
	normalizePaging(&filter.ListQuery)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "no se pudo listar los participantes")
	}
	return items, pagination(filter.ListQuery, total), nil
}

// Get returns a participant by id.
func (s *ParticipanteService) Get(ctx context.Context, id string) (*models.Participante, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "participante no encontrado", "no se pudo cargar el participante")
	}
	return p, nil
}

// Create registers a new participant.
func (s *ParticipanteService) Create(ctx context.Context, actor models.Actor, req ParticipanteRequest) (p *models.Participante, err error) {
	defer func() {
		var id string
		if p != nil {
			id = p.ID
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditCreate, models.EntityParticipante, id, models.EntityDetails{After: p}, err))
	}()

	p = &models.Participante{}
	if err := s.apply(ctx, p, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, writeError(err, "participante no encontrado", "no se pudo crear el participante")
	}
	s.cache.Invalidate(ctx, CacheKeyDashboard)
	return p, nil
}

// Update replaces a participant's fields.
func (s *ParticipanteService) Update(ctx context.Context, actor models.Actor, id string, req ParticipanteRequest) (p *models.Participante, err error) {
	var before models.Participante
	defer func() {
		details := models.EntityDetails{After: p}
		if p != nil {
			details.Fields = changedFields(before, p)
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditUpdate, models.EntityParticipante, id, details, err))
	}()

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "participante no encontrado", "no se pudo cargar el participante")
	}
	before = *existing
	if err := s.apply(ctx, existing, req, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, writeError(err, "participante no encontrado", "no se pudo actualizar el participante")
	}
	return existing, nil
}

// Delete removes a participant together with their enrollments, releasing
// the seats they held.
func (s *ParticipanteService) Delete(ctx context.Context, actor models.Actor, id string) (err error) {
	var before *models.Participante
	defer func() {
		s.audit.Record(ctx, mutationEntry(actor, models.AuditDelete, models.EntityParticipante, id, models.EntityDetails{Before: before}, err))
	}()

	before, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "participante no encontrado", "no se pudo cargar el participante")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "participante no encontrado", "no se pudo eliminar el participante")
	}
	s.cache.Invalidate(ctx, CacheKeyCatalog+"*")
	s.cache.Invalidate(ctx, CacheKeyDashboard)
	return nil
}

func (s *ParticipanteService) apply(ctx context.Context, p *models.Participante, req ParticipanteRequest, excludeID string) error {
	req.Email = normalizeEmail(req.Email)
	req.NumeroDocumento = strings.ToUpper(strings.TrimSpace(req.NumeroDocumento))
	if err := s.validator.Struct(req); err != nil {
		return invalidPayload(err, "datos del participante inválidos")
	}
	if req.TipoDocumento == models.DocumentoDNI && len(req.NumeroDocumento) != 8 {
		return fieldInvalid("numeroDocumento", "el DNI debe tener 8 dígitos")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, excludeID)
	if err != nil {
		return internalError(err, "no se pudo validar el email")
	}
	if exists {
		return appErrors.Duplicate("email", duplicateMessage("email"))
	}
	exists, err = s.repo.ExistsByDocumento(ctx, req.NumeroDocumento, excludeID)
	if err != nil {
		return internalError(err, "no se pudo validar el documento")
	}
	if exists {
		return appErrors.Duplicate("numeroDocumento", duplicateMessage("numeroDocumento"))
	}

	p.Nombres = strings.TrimSpace(req.Nombres)
	p.Apellidos = strings.TrimSpace(req.Apellidos)
	p.TipoDocumento = req.TipoDocumento
	p.NumeroDocumento = req.NumeroDocumento
	p.Email = req.Email
	p.Telefono = normalizeOptional(req.Telefono)
	p.Empresa = normalizeOptional(req.Empresa)
	p.Cargo = normalizeOptional(req.Cargo)
	return nil
}
