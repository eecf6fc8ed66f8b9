package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/ratelimit"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/validation"
)

const testPassword = "Secreto123"

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type authFixture struct {
	svc    *AuthService
	users  *memUsers
	tokens *TokenService
	store  *memRefreshTokens
	audit  *recordedAudit
	clock  *testClock
	meta   models.RequestMeta
}

type failingLimiter struct{}

func (failingLimiter) Name() string { return "ip" }
func (failingLimiter) Check(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis down")
}
func (failingLimiter) Reset(context.Context, string) error { return nil }

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	hasher := NewPasswordHasher(bcrypt.MinCost)
	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	clock := &testClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	users := newMemUsers(&models.User{ID: "u-1", Email: "admin@cefib.pe", PasswordHash: hash, Name: "Admin", Role: models.RoleSuperAdmin})
	store := newMemRefreshTokens()
	tokens := NewTokenService(store, TokenConfig{Secret: "test-secret", Issuer: "test", AccessTTL: 15 * time.Minute, RefreshTTL: time.Hour}, zap.NewNop())
	tokens.now = clock.Now

	mem := ratelimit.NewMemoryStore()
	limiters := AuthLimiters{
		IP:    ratelimit.New("ip", ratelimit.Policy{Max: 5, Window: time.Minute, Block: 15 * time.Minute}, mem).WithClock(clock.Now),
		Email: ratelimit.New("email", ratelimit.Policy{Max: 3, Window: time.Minute, Block: 30 * time.Minute}, mem).WithClock(clock.Now),
	}
	audit := &recordedAudit{}
	svc := NewAuthService(users, tokens, hasher, limiters, audit, NewMetricsService(), validation.New(), zap.NewNop())
	svc.now = clock.Now

	return &authFixture{
		svc:    svc,
		users:  users,
		tokens: tokens,
		store:  store,
		audit:  audit,
		clock:  clock,
		meta:   models.RequestMeta{IP: "10.0.0.1", UserAgent: "test"},
	}
}

func (f *authFixture) login(password string) (*models.LoginResult, error) {
	return f.svc.Login(context.Background(), models.LoginRequest{Email: "Admin@Cefib.pe ", Password: password}, f.meta)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.login(testPassword)
	require.NoError(t, err)
	assert.Equal(t, "u-1", res.User.ID)
	assert.Equal(t, models.RoleSuperAdmin, res.User.Role)
	assert.Len(t, res.RefreshToken, 64)
	assert.Len(t, res.CSRFToken, 64)
	assert.Equal(t, 15*time.Minute, res.AccessTTL)
	assert.Equal(t, 1, f.store.count())

	claims, err := f.svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "admin@cefib.pe", claims.Email)

	assert.Equal(t, []models.AuditAction{models.AuditLoginSuccess}, f.audit.actions())
	assert.True(t, f.audit.last().Success)
}

func TestAuthServiceLoginWrongPasswordReportsRemaining(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.login("incorrecta")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	require.NotNil(t, appErr.RemainingAttempts)
	assert.Equal(t, 2, *appErr.RemainingAttempts)

	entry := f.audit.last()
	assert.Equal(t, models.AuditLoginFailed, entry.Action)
	assert.False(t, entry.Success)
	assert.Equal(t, "u-1", entry.UserID)
	details, ok := entry.Details.(models.LoginDetails)
	require.True(t, ok)
	assert.Equal(t, reasonWrongPassword, details.Reason)
}

func TestAuthServiceLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "nadie@cefib.pe", Password: "x"}, f.meta)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Message, appErr.Message)
	assert.Empty(t, f.audit.last().UserID)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "no-es-email"}, f.meta)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.NotEmpty(t, appErr.Details)
	assert.Empty(t, f.audit.actions())
}

func TestAuthServiceEmailBlockOutlivesCorrectPassword(t *testing.T) {
	f := newAuthFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.login("incorrecta")
		require.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
		f.clock.Advance(time.Second)
	}

	_, err := f.login(testPassword)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, 1800, appErr.RetryAfter)
	assert.Equal(t, models.AuditLoginRateLimited, f.audit.last().Action)
	assert.Equal(t, 0, f.store.count())

	f.clock.Advance(time.Minute)
	_, err = f.login(testPassword)
	retry := appErrors.FromError(err).RetryAfter
	assert.Less(t, retry, 1800)
	assert.Greater(t, retry, 0)

	f.clock.Advance(30 * time.Minute)
	_, err = f.login(testPassword)
	require.NoError(t, err)
}

func TestAuthServiceIPBlockSkipsEmailLimiter(t *testing.T) {
	f := newAuthFixture(t)
	emails := []string{"a@x.pe", "b@x.pe", "c@x.pe", "d@x.pe", "e@x.pe"}
	for _, email := range emails {
		_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: email, Password: "x"}, f.meta)
		require.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
	}

	_, err := f.login(testPassword)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, 900, appErr.RetryAfter)
	details, ok := f.audit.last().Details.(models.LoginDetails)
	require.True(t, ok)
	assert.Equal(t, "ip", details.Scope)

	// Another client is unaffected.
	other := f.meta
	other.IP = "10.0.0.2"
	_, err = f.svc.Login(context.Background(), models.LoginRequest{Email: "admin@cefib.pe", Password: testPassword}, other)
	require.NoError(t, err)
}

func TestAuthServiceSuccessResetsCounters(t *testing.T) {
	f := newAuthFixture(t)
	for i := 0; i < 2; i++ {
		_, _ = f.login("incorrecta")
	}
	_, err := f.login(testPassword)
	require.NoError(t, err)

	_, err = f.login("incorrecta")
	require.NotNil(t, appErrors.FromError(err).RemainingAttempts)
	assert.Equal(t, 2, *appErrors.FromError(err).RemainingAttempts)
}

func TestAuthServiceLimiterFailureIsInternal(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.limiters.IP = failingLimiter{}

	_, err := f.login(testPassword)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)

	require.Equal(t, []models.AuditAction{models.AuditLoginFailed}, f.audit.actions())
	details, ok := f.audit.last().Details.(models.LoginDetails)
	require.True(t, ok)
	assert.Equal(t, reasonLimiterDown, details.Reason)
	assert.Equal(t, "admin@cefib.pe", details.Email)
}

type unsignableTokens struct{ *TokenService }

func (unsignableTokens) IssueAccessToken(*models.User) (string, error) {
	return "", errors.New("signing key unavailable")
}

func TestAuthServiceRefreshInternalFailuresAreAudited(t *testing.T) {
	cases := []struct {
		name    string
		breakFn func(f *authFixture)
	}{
		{"user lookup fails", func(f *authFixture) { f.users.err = errors.New("db down") }},
		{"access token signing fails", func(f *authFixture) { f.svc.tokens = unsignableTokens{f.tokens} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture(t)
			res, err := f.login(testPassword)
			require.NoError(t, err)
			tc.breakFn(f)

			_, err = f.svc.Refresh(context.Background(), res.RefreshToken, f.meta)
			assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)

			require.Equal(t, []models.AuditAction{models.AuditLoginSuccess, models.AuditTokenRefresh}, f.audit.actions())
			entry := f.audit.last()
			assert.False(t, entry.Success)
			assert.Equal(t, "u-1", entry.UserID)
			details, ok := entry.Details.(models.SessionDetails)
			require.True(t, ok)
			assert.Equal(t, reasonInternal, details.Reason)
		})
	}
}

func TestAuthServiceRefresh(t *testing.T) {
	f := newAuthFixture(t)
	res, err := f.login(testPassword)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		out, err := f.svc.Refresh(context.Background(), res.RefreshToken, f.meta)
		require.NoError(t, err)
		assert.NotEmpty(t, out.AccessToken)
	}
	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, models.AuditTokenRefresh, f.audit.last().Action)
	assert.True(t, f.audit.last().Success)
}

func TestAuthServiceRefreshExpiredDeletesRow(t *testing.T) {
	f := newAuthFixture(t)
	res, err := f.login(testPassword)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Refresh(context.Background(), res.RefreshToken, f.meta)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, 0, f.store.count())
	assert.False(t, f.audit.last().Success)
}

func TestAuthServiceRefreshUnknownUser(t *testing.T) {
	f := newAuthFixture(t)
	res, err := f.login(testPassword)
	require.NoError(t, err)
	require.NoError(t, f.users.Delete(context.Background(), "u-1"))

	_, err = f.svc.Refresh(context.Background(), res.RefreshToken, f.meta)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestAuthServiceLogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	res, err := f.login(testPassword)
	require.NoError(t, err)
	claims, err := f.svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)

	f.svc.Logout(context.Background(), res.RefreshToken, claims, f.meta)
	f.svc.Logout(context.Background(), res.RefreshToken, claims, f.meta)
	f.svc.Logout(context.Background(), "", nil, f.meta)

	assert.Equal(t, 0, f.store.count())
	_, err = f.svc.Refresh(context.Background(), res.RefreshToken, f.meta)
	assert.Error(t, err)
}

func TestAuthServiceValidateCSRF(t *testing.T) {
	f := newAuthFixture(t)
	res, err := f.login(testPassword)
	require.NoError(t, err)

	assert.NoError(t, f.svc.ValidateCSRF(context.Background(), res.RefreshToken, res.CSRFToken))
	err = f.svc.ValidateCSRF(context.Background(), res.RefreshToken, "otro")
	assert.Equal(t, appErrors.ErrCSRF.Code, appErrors.FromError(err).Code)
	err = f.svc.ValidateCSRF(context.Background(), "", res.CSRFToken)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	f := newAuthFixture(t)
	res, err := f.login(testPassword)
	require.NoError(t, err)

	_, err = f.svc.ValidateToken(res.AccessToken + "x")
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)

	f.clock.Advance(16 * time.Minute)
	_, err = f.svc.ValidateToken(res.AccessToken)
	assert.Error(t, err)
}

func TestAuthServiceMe(t *testing.T) {
	f := newAuthFixture(t)
	info, err := f.svc.Me(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "admin@cefib.pe", info.Email)

	_, err = f.svc.Me(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestAuthServiceChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	res, err := f.login(testPassword)
	require.NoError(t, err)
	actor := models.Actor{UserID: "u-1", Meta: f.meta}

	err = f.svc.ChangePassword(context.Background(), actor, models.ChangePasswordRequest{CurrentPassword: "mal", NewPassword: "NuevaClave456"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "currentPassword", appErr.Field)
	assert.False(t, f.audit.last().Success)

	err = f.svc.ChangePassword(context.Background(), actor, models.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "NuevaClave456"})
	require.NoError(t, err)
	assert.Equal(t, models.AuditPasswordChange, f.audit.last().Action)
	assert.True(t, f.audit.last().Success)
	assert.Equal(t, 0, f.store.count())

	_, err = f.svc.Refresh(context.Background(), res.RefreshToken, f.meta)
	assert.Error(t, err)
	_, err = f.login("NuevaClave456")
	require.NoError(t, err)
}

func TestAuthServiceChangePasswordRejectsSamePassword(t *testing.T) {
	f := newAuthFixture(t)
	err := f.svc.ChangePassword(context.Background(), models.Actor{UserID: "u-1"}, models.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: testPassword})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}
