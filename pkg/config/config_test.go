package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ENV", EnvDevelopment)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Cookies.RefreshMaxAge)
	assert.Equal(t, 12, cfg.JWT.BcryptCost)
	assert.False(t, cfg.Cookies.Secure)
	assert.Equal(t, LimiterConfig{MaxAttempts: 5, Window: time.Minute, Block: 15 * time.Minute}, cfg.RateLimit.IP)
	assert.Equal(t, LimiterConfig{MaxAttempts: 3, Window: time.Minute, Block: 30 * time.Minute}, cfg.RateLimit.Email)
	assert.Equal(t, RateLimitBackendMemory, cfg.RateLimit.Backend)
	assert.True(t, cfg.Features.Docs)
	assert.NoError(t, cfg.Validate())
}

func TestLoadProductionSecureCookies(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "a-long-production-secret")
	t.Setenv("ALLOWED_ORIGINS", "https://cefib.pe, https://admin.cefib.pe ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Cookies.Secure)
	assert.False(t, cfg.Features.Docs)
	assert.Equal(t, []string{"https://cefib.pe", "https://admin.cefib.pe"}, cfg.CORS.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsDevSecretInProduction(t *testing.T) {
	cfg := &Config{
		Env:       EnvProduction,
		JWT:       JWTConfig{Secret: DevJWTSecret},
		RateLimit: RateLimitConfig{Backend: RateLimitBackendMemory, IP: LimiterConfig{MaxAttempts: 5}, Email: LimiterConfig{MaxAttempts: 3}},
	}
	assert.Error(t, cfg.Validate())

	cfg.JWT.Secret = "rotated"
	cfg.RateLimit.Backend = RateLimitBackendRedis
	assert.Error(t, cfg.Validate())

	cfg.Redis.Enabled = true
	assert.NoError(t, cfg.Validate())
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Minute))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
