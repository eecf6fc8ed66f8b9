package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/jobs"
)

type refreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ErrRefreshInvalid is returned when a refresh token is unknown or expired.
var ErrRefreshInvalid = appErrors.New("REFRESH_INVALID", http.StatusUnauthorized, "sesión expirada, inicie sesión nuevamente")

// TokenConfig configures token issuance.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService mints access JWTs and manages stored refresh tokens.
type TokenService struct {
	repo   refreshTokenRepository
	cfg    TokenConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(repo refreshTokenRepository, cfg TokenConfig, logger *zap.Logger) *TokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "cefib-admin-api"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

// AccessTTL is the lifetime of issued access tokens.
func (s *TokenService) AccessTTL() time.Duration { return s.cfg.AccessTTL }

// IssueAccessToken signs an HS256 access token for user.
func (s *TokenService) IssueAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := models.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}

// VerifyAccessToken parses and validates an access token.
func (s *TokenService) VerifyAccessToken(tokenString string) (*models.JWTClaims, error) {
	if tokenString == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token requerido")
	}
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.cfg.Issuer))
	if err != nil || !token.Valid {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "token inválido o expirado")
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token inválido o expirado")
	}
	return claims, nil
}

// IssueRefreshToken persists a new refresh token with its CSRF companion.
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID string) (*models.RefreshToken, error) {
	value, err := randomToken()
	if err != nil {
		return nil, err
	}
	csrf, err := randomToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	rt := &models.RefreshToken{
		Token:     value,
		UserID:    userID,
		CSRFToken: csrf,
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return rt, nil
}

// VerifyRefreshToken returns the stored token. Expired rows are deleted and
// reported as ErrRefreshInvalid, the same as unknown ones.
func (s *TokenService) VerifyRefreshToken(ctx context.Context, value string) (*models.RefreshToken, error) {
	if value == "" {
		return nil, appErrors.Clone(ErrRefreshInvalid, "")
	}
	rt, err := s.repo.FindByToken(ctx, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(ErrRefreshInvalid, "")
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if rt.Expired(s.now()) {
		if _, err := s.repo.DeleteByToken(ctx, value); err != nil {
			s.logger.Warn("failed to delete expired refresh token", zap.String("user_id", rt.UserID), zap.Error(err))
		}
		return nil, appErrors.Clone(ErrRefreshInvalid, "")
	}
	return rt, nil
}

// Revoke deletes one refresh token. Unknown tokens are not an error.
func (s *TokenService) Revoke(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	_, err := s.repo.DeleteByToken(ctx, value)
	return err
}

// RevokeAllForUser deletes every refresh token belonging to userID.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteByUser(ctx, userID)
}

// PurgeTask returns a scheduler task that deletes expired refresh tokens.
func (s *TokenService) PurgeTask(interval time.Duration) jobs.Task {
	return jobs.Task{
		Name:     "refresh-token-purge",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := s.repo.DeleteExpired(ctx, s.now())
			if err != nil {
				return err
			}
			if n > 0 {
				s.logger.Debug("purged expired refresh tokens", zap.Int64("count", n))
			}
			return nil
		},
	}
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
