package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
)

func newTestTokenService(clock *testClock) (*TokenService, *memRefreshTokens) {
	store := newMemRefreshTokens()
	svc := NewTokenService(store, TokenConfig{Secret: "s3cret", Issuer: "cefib"}, zap.NewNop())
	svc.now = clock.Now
	return svc, store
}

func TestTokenServiceDefaults(t *testing.T) {
	svc := NewTokenService(newMemRefreshTokens(), TokenConfig{Secret: "x"}, nil)
	assert.Equal(t, 15*time.Minute, svc.AccessTTL())
	assert.Equal(t, time.Hour, svc.cfg.RefreshTTL)
}

func TestTokenServiceRejectsOtherSigningMethods(t *testing.T) {
	clock := &testClock{t: time.Now()}
	svc, _ := newTestTokenService(clock)

	claims := models.JWTClaims{UserID: "u", Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "cefib",
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Minute)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(signed)
	assert.Error(t, err)

	_, err = svc.VerifyAccessToken("")
	assert.Error(t, err)
}

func TestTokenServiceRejectsWrongSecret(t *testing.T) {
	clock := &testClock{t: time.Now()}
	svc, _ := newTestTokenService(clock)
	other := NewTokenService(newMemRefreshTokens(), TokenConfig{Secret: "otro", Issuer: "cefib"}, nil)

	token, err := other.IssueAccessToken(&models.User{ID: "u", Email: "a@b.pe", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestTokenServiceRefreshLifecycle(t *testing.T) {
	clock := &testClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc, store := newTestTokenService(clock)
	ctx := context.Background()

	rt, err := svc.IssueRefreshToken(ctx, "u-1")
	require.NoError(t, err)
	assert.NotEqual(t, rt.Token, rt.CSRFToken)
	assert.Equal(t, clock.t.Add(time.Hour), rt.ExpiresAt)

	got, err := svc.VerifyRefreshToken(ctx, rt.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)

	_, err = svc.VerifyRefreshToken(ctx, "desconocido")
	assert.Equal(t, ErrRefreshInvalid.Code, appErrors.FromError(err).Code)

	_, err = svc.IssueRefreshToken(ctx, "u-1")
	require.NoError(t, err)
	n, err := svc.RevokeAllForUser(ctx, "u-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 0, store.count())
}

func TestTokenServiceVerifyStoreError(t *testing.T) {
	clock := &testClock{t: time.Now()}
	svc, store := newTestTokenService(clock)
	store.err = errors.New("db down")

	_, err := svc.VerifyRefreshToken(context.Background(), "abc")
	require.Error(t, err)
	var appErr *appErrors.Error
	assert.False(t, errors.As(err, &appErr))
}

func TestTokenServicePurgeTask(t *testing.T) {
	clock := &testClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc, store := newTestTokenService(clock)
	ctx := context.Background()

	_, err := svc.IssueRefreshToken(ctx, "u-1")
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	_, err = svc.IssueRefreshToken(ctx, "u-2")
	require.NoError(t, err)
	clock.Advance(45 * time.Minute)

	task := svc.PurgeTask(time.Minute)
	assert.Equal(t, "refresh-token-purge", task.Name)
	require.NoError(t, task.Run(ctx))
	assert.Equal(t, 1, store.count())
}
