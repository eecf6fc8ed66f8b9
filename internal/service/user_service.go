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

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type sessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

// UserService manages back office accounts.
type UserService struct {
	repo      userRepository
	hasher    *PasswordHasher
	sessions  sessionRevoker
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, hasher *PasswordHasher, sessions sessionRevoker, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = NewPasswordHasher(0)
	}
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	return &UserService{repo: repo, hasher: hasher, sessions: sessions, audit: audit, validator: validate, logger: logger}
}

// List returns users plus pagination data.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	q := models.ListQuery{Search: filter.Search, Page: filter.Page, PageSize: filter.PageSize, SortBy: filter.SortBy, SortOrder: filter.SortOrder}
	normalizePaging(&q)
	filter.Search, filter.Page, filter.PageSize = q.Search, q.Page, q.PageSize

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "no se pudo listar los usuarios")
	}
	return users, pagination(q, total), nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "usuario no encontrado", "no se pudo cargar el usuario")
	}
	return user, nil
}

// Create registers a new back office user.
func (s *UserService) Create(ctx context.Context, actor models.Actor, req models.CreateUserRequest) (user *models.User, err error) {
	defer func() {
		var id string
		if user != nil {
			id = user.ID
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditCreate, models.EntityUser, id, models.EntityDetails{After: user}, err))
	}()

	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "datos del usuario inválidos")
	}
	if err := s.ensureUniqueEmail(ctx, req.Email, ""); err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, hashError(err, "password")
	}

	user = &models.User{
		Email:        req.Email,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, writeError(err, "usuario no encontrado", "no se pudo crear el usuario")
	}
	return user, nil
}

// Update applies the provided fields. A SUPER_ADMIN cannot demote themself.
func (s *UserService) Update(ctx context.Context, actor models.Actor, id string, req models.UpdateUserRequest) (user *models.User, err error) {
	var before models.User
	defer func() {
		details := models.EntityDetails{After: user}
		if user != nil {
			details.Fields = changedFields(before, user)
			if req.Password != nil {
				details.Fields = append(details.Fields, "password")
			}
		}
		s.audit.Record(ctx, mutationEntry(actor, models.AuditUpdate, models.EntityUser, id, details, err))
	}()

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "datos del usuario inválidos")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "usuario no encontrado", "no se pudo cargar el usuario")
	}
	before = *existing

	if req.Role != nil && *req.Role != existing.Role && id == actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "no puede cambiar su propio rol")
	}
	if req.Email != nil && *req.Email != existing.Email {
		if err := s.ensureUniqueEmail(ctx, *req.Email, id); err != nil {
			return nil, err
		}
		existing.Email = *req.Email
	}
	if req.Name != nil {
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		existing.Role = *req.Role
	}
	if req.Password != nil {
		hashed, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, hashError(err, "password")
		}
		existing.PasswordHash = hashed
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, writeError(err, "usuario no encontrado", "no se pudo actualizar el usuario")
	}
	if req.Password != nil && s.sessions != nil {
		if _, err := s.sessions.RevokeAllForUser(ctx, id); err != nil {
			s.logger.Warn("failed to revoke sessions after password reset", zap.String("user_id", id), zap.Error(err))
		}
	}
	return existing, nil
}

// Delete removes a user. A SUPER_ADMIN cannot delete themself.
func (s *UserService) Delete(ctx context.Context, actor models.Actor, id string) (err error) {
	var before *models.User
	defer func() {
		s.audit.Record(ctx, mutationEntry(actor, models.AuditDelete, models.EntityUser, id, models.EntityDetails{Before: before}, err))
	}()

	if id == actor.UserID {
		return appErrors.Clone(appErrors.ErrConflict, "no puede eliminar su propia cuenta")
	}
	before, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "usuario no encontrado", "no se pudo cargar el usuario")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "usuario no encontrado", "no se pudo eliminar el usuario")
	}
	return nil
}

func (s *UserService) ensureUniqueEmail(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return internalError(err, "no se pudo validar el email")
	}
	if exists {
		return appErrors.Duplicate("email", duplicateMessage("email"))
	}
	return nil
}
