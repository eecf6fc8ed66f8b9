package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/ratelimit"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/validation"
)

// Login failure reasons stored in audit details.
const (
	reasonUnknownEmail  = "unknown_email"
	reasonWrongPassword = "wrong_password"
	reasonInternal      = "internal_error"
	reasonLimiterDown   = "limiter_unavailable"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type tokenIssuer interface {
	AccessTTL() time.Duration
	IssueAccessToken(user *models.User) (string, error)
	VerifyAccessToken(token string) (*models.JWTClaims, error)
	IssueRefreshToken(ctx context.Context, userID string) (*models.RefreshToken, error)
	VerifyRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

type loginLimiter interface {
	Name() string
	Check(ctx context.Context, key string) (ratelimit.Result, error)
	Reset(ctx context.Context, key string) error
}

// AuthLimiters groups the two login limiters. IP is consulted first.
type AuthLimiters struct {
	IP    loginLimiter
	Email loginLimiter
}

// AuthService handles the login, refresh, logout and password flows.
type AuthService struct {
	users     authUserRepository
	tokens    tokenIssuer
	hasher    *PasswordHasher
	limiters  AuthLimiters
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(users authUserRepository, tokens tokenIssuer, hasher *PasswordHasher, limiters AuthLimiters, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = noopAuditRecorder{}
	}
	if hasher == nil {
		hasher = NewPasswordHasher(0)
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		limiters:  limiters,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Login authenticates credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, meta models.RequestMeta) (*models.LoginResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "datos de inicio de sesión inválidos")
	}
	email := req.Email

	ipResult, err := s.consume(ctx, s.limiters.IP, meta.IP, email, meta)
	if err != nil {
		return nil, err
	}
	emailResult, err := s.consume(ctx, s.limiters.Email, email, email, meta)
	if err != nil {
		return nil, err
	}
	remaining := minInt(ipResult.Remaining, emailResult.Remaining)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.hasher.Burn(req.Password)
			return nil, s.loginFailed(ctx, "", email, reasonUnknownEmail, remaining, meta)
		}
		s.logger.Error("failed to load user for login", zap.Error(err))
		s.recordLoginFailure(ctx, "", email, reasonInternal, nil, meta)
		return nil, internalError(err, "no se pudo iniciar sesión")
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Warn("password hash comparison failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	if !ok {
		return nil, s.loginFailed(ctx, user.ID, email, reasonWrongPassword, remaining, meta)
	}

	s.resetLimiter(ctx, s.limiters.IP, meta.IP)
	s.resetLimiter(ctx, s.limiters.Email, email)

	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		s.recordLoginFailure(ctx, user.ID, email, reasonInternal, nil, meta)
		return nil, internalError(err, "no se pudo generar el token de acceso")
	}
	refresh, err := s.tokens.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		s.recordLoginFailure(ctx, user.ID, email, reasonInternal, nil, meta)
		return nil, internalError(err, "no se pudo crear la sesión")
	}

	s.metrics.RecordLogin(LoginOutcomeSuccess)
	s.audit.Record(ctx, models.AuditEntry{
		Action:   models.AuditLoginSuccess,
		UserID:   user.ID,
		Entity:   models.EntityAuth,
		EntityID: user.ID,
		Details:  models.LoginDetails{Email: email},
		Meta:     meta,
		Success:  true,
	})

	return &models.LoginResult{
		User:         models.NewUserInfo(user),
		AccessToken:  access,
		RefreshToken: refresh.Token,
		CSRFToken:    refresh.CSRFToken,
		AccessTTL:    s.tokens.AccessTTL(),
	}, nil
}

// consume records one attempt against limiter and converts a rejection into
// a 429, auditing it.
func (s *AuthService) consume(ctx context.Context, limiter loginLimiter, key, email string, meta models.RequestMeta) (ratelimit.Result, error) {
	res, err := limiter.Check(ctx, key)
	if err != nil {
		s.logger.Error("rate limiter unavailable", zap.String("limiter", limiter.Name()), zap.Error(err))
		s.recordLoginFailure(ctx, "", email, reasonLimiterDown, nil, meta)
		return res, internalError(err, "no se pudo iniciar sesión")
	}
	if res.Allowed {
		return res, nil
	}
	retry := res.RetryAfterSeconds()
	s.metrics.RecordLogin(LoginOutcomeRateLimited)
	s.metrics.RecordRateLimited(limiter.Name())
	s.audit.Record(ctx, models.AuditEntry{
		Action:       models.AuditLoginRateLimited,
		Entity:       models.EntityAuth,
		Details:      models.LoginDetails{Email: email, Scope: limiter.Name(), RetryAfter: retry},
		Meta:         meta,
		Success:      false,
		ErrorMessage: "demasiados intentos",
	})
	return res, appErrors.RateLimited(retry)
}

func (s *AuthService) loginFailed(ctx context.Context, userID, email, reason string, remaining int, meta models.RequestMeta) error {
	s.recordLoginFailure(ctx, userID, email, reason, &remaining, meta)
	return appErrors.WithRemaining(appErrors.ErrInvalidCredentials, remaining)
}

func (s *AuthService) recordLoginFailure(ctx context.Context, userID, email, reason string, remaining *int, meta models.RequestMeta) {
	s.metrics.RecordLogin(LoginOutcomeFailed)
	s.audit.Record(ctx, models.AuditEntry{
		Action:       models.AuditLoginFailed,
		UserID:       userID,
		Entity:       models.EntityAuth,
		EntityID:     userID,
		Details:      models.LoginDetails{Email: email, Reason: reason, RemainingAttempts: remaining},
		Meta:         meta,
		Success:      false,
		ErrorMessage: appErrors.ErrInvalidCredentials.Message,
	})
}

func (s *AuthService) resetLimiter(ctx context.Context, limiter loginLimiter, key string) {
	if err := limiter.Reset(ctx, key); err != nil {
		s.logger.Warn("failed to reset login limiter", zap.String("limiter", limiter.Name()), zap.Error(err))
	}
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta models.RequestMeta) (*models.RefreshResult, error) {
	rt, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status >= 500 {
			s.logger.Error("failed to verify refresh token", zap.Error(err))
			appErr = internalError(err, "no se pudo renovar la sesión")
		}
		s.refreshFailed(ctx, "", "invalid_token", meta)
		return nil, appErr
	}

	user, err := s.users.FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.refreshFailed(ctx, rt.UserID, "user_not_found", meta)
			return nil, appErrors.Clone(appErrors.ErrNotFound, "usuario no encontrado")
		}
		s.logger.Error("failed to load user for refresh", zap.String("user_id", rt.UserID), zap.Error(err))
		s.refreshFailed(ctx, rt.UserID, reasonInternal, meta)
		return nil, internalError(err, "no se pudo renovar la sesión")
	}

	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		s.refreshFailed(ctx, user.ID, reasonInternal, meta)
		return nil, internalError(err, "no se pudo generar el token de acceso")
	}

	s.metrics.RecordRefresh("success")
	s.audit.Record(ctx, models.AuditEntry{
		Action:   models.AuditTokenRefresh,
		UserID:   user.ID,
		Entity:   models.EntityAuth,
		EntityID: user.ID,
		Meta:     meta,
		Success:  true,
	})
	return &models.RefreshResult{AccessToken: access, AccessTTL: s.tokens.AccessTTL()}, nil
}

func (s *AuthService) refreshFailed(ctx context.Context, userID, reason string, meta models.RequestMeta) {
	s.metrics.RecordRefresh("failed")
	s.audit.Record(ctx, models.AuditEntry{
		Action:       models.AuditTokenRefresh,
		UserID:       userID,
		Entity:       models.EntityAuth,
		EntityID:     userID,
		Details:      models.SessionDetails{Reason: reason},
		Meta:         meta,
		Success:      false,
		ErrorMessage: ErrRefreshInvalid.Message,
	})
}

// Logout revokes the refresh token if one is presented. It always succeeds so
// repeated logouts are harmless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, claims *models.JWTClaims, meta models.RequestMeta) {
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		s.logger.Warn("failed to revoke refresh token", zap.Error(err))
	}
	entry := models.AuditEntry{
		Action:  models.AuditLogout,
		Entity:  models.EntityAuth,
		Meta:    meta,
		Success: true,
	}
	if claims != nil {
		entry.UserID = claims.UserID
		entry.EntityID = claims.UserID
	}
	if refreshToken == "" {
		entry.Details = models.SessionDetails{Reason: "no_refresh_token"}
	}
	s.audit.Record(ctx, entry)
}

// ValidateToken verifies an access token.
func (s *AuthService) ValidateToken(token string) (*models.JWTClaims, error) {
	return s.tokens.VerifyAccessToken(token)
}

// ValidateCSRF checks header against the CSRF token bound to refreshToken.
func (s *AuthService) ValidateCSRF(ctx context.Context, refreshToken, header string) error {
	if refreshToken == "" || header == "" {
		return appErrors.Clone(appErrors.ErrCSRF, "")
	}
	rt, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Status >= 500 {
			return internalError(err, "no se pudo validar la sesión")
		}
		return appErrors.Clone(appErrors.ErrCSRF, "")
	}
	if subtle.ConstantTimeCompare([]byte(rt.CSRFToken), []byte(header)) != 1 {
		return appErrors.Clone(appErrors.ErrCSRF, "")
	}
	return nil
}

// Me returns the public profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "usuario no encontrado", "no se pudo cargar el usuario")
	}
	info := models.NewUserInfo(user)
	return &info, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every refresh token of the user.
func (s *AuthService) ChangePassword(ctx context.Context, actor models.Actor, req models.ChangePasswordRequest) (err error) {
	defer func() {
		entry := models.AuditEntry{
			Action:   models.AuditPasswordChange,
			UserID:   actor.UserID,
			Entity:   models.EntityUser,
			EntityID: actor.UserID,
			Meta:     actor.Meta,
			Success:  err == nil,
		}
		if err != nil {
			appErr := appErrors.FromError(err)
			entry.ErrorMessage = appErr.Message
			entry.Details = models.PasswordDetails{Reason: appErr.Code}
		}
		s.audit.Record(ctx, entry)
	}()

	if err := s.validator.Struct(req); err != nil {
		return invalidPayload(err, "datos de cambio de contraseña inválidos")
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return lookupError(err, "usuario no encontrado", "no se pudo cargar el usuario")
	}
	ok, verr := s.hasher.Verify(req.CurrentPassword, user.PasswordHash)
	if verr != nil {
		s.logger.Warn("password hash comparison failed", zap.String("user_id", user.ID), zap.Error(verr))
	}
	if !ok {
		return fieldInvalid("currentPassword", "la contraseña actual es incorrecta")
	}
	hashed, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return hashError(err, "newPassword")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed, s.now()); err != nil {
		return lookupError(err, "usuario no encontrado", "no se pudo actualizar la contraseña")
	}
	if _, err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
