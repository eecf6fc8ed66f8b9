package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DevJWTSecret is only acceptable outside production.
	DevJWTSecret = "dev_secret"

	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cookies   CookieConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Features  FeatureConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig covers access token signing and refresh token lifetime.
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

// CookieConfig controls the auth cookies and CSRF enforcement.
type CookieConfig struct {
	Secure          bool
	RefreshMaxAge   time.Duration
	CSRFEnforcement bool
}

// LimiterConfig is one fixed-window limiter.
type LimiterConfig struct {
	MaxAttempts int
	Window      time.Duration
	Block       time.Duration
}

// RateLimitConfig holds the login limiters and their backing store.
type RateLimitConfig struct {
	Backend       string
	IP            LimiterConfig
	Email         LimiterConfig
	SweepInterval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes the Redis-backed read caches.
type CacheConfig struct {
	CatalogTTL   time.Duration
	DashboardTTL time.Duration
}

// FeatureConfig toggles operational endpoints.
type FeatureConfig struct {
	Metrics bool
	Docs    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:          v.GetString("JWT_SECRET"),
		Issuer:          v.GetString("JWT_ISSUER"),
		AccessTokenTTL:  parseDuration(v.GetString("ACCESS_TOKEN_TTL"), 15*time.Minute),
		RefreshTokenTTL: parseDuration(v.GetString("REFRESH_TOKEN_TTL"), time.Hour),
		BcryptCost:      v.GetInt("BCRYPT_COST"),
	}

	secure := cfg.Env == EnvProduction
	if v.IsSet("COOKIE_SECURE") {
		secure = v.GetBool("COOKIE_SECURE")
	}
	cfg.Cookies = CookieConfig{
		Secure:          secure,
		RefreshMaxAge:   parseDuration(v.GetString("REFRESH_COOKIE_MAX_AGE"), 7*24*time.Hour),
		CSRFEnforcement: v.GetBool("CSRF_ENFORCE"),
	}

	cfg.RateLimit = RateLimitConfig{
		Backend: strings.ToLower(v.GetString("RATE_LIMIT_BACKEND")),
		IP: LimiterConfig{
			MaxAttempts: v.GetInt("RATE_LIMIT_IP_MAX"),
			Window:      parseDuration(v.GetString("RATE_LIMIT_IP_WINDOW"), time.Minute),
			Block:       parseDuration(v.GetString("RATE_LIMIT_IP_BLOCK"), 15*time.Minute),
		},
		Email: LimiterConfig{
			MaxAttempts: v.GetInt("RATE_LIMIT_EMAIL_MAX"),
			Window:      parseDuration(v.GetString("RATE_LIMIT_EMAIL_WINDOW"), time.Minute),
			Block:       parseDuration(v.GetString("RATE_LIMIT_EMAIL_BLOCK"), 30*time.Minute),
		},
		SweepInterval: parseDuration(v.GetString("RATE_LIMIT_SWEEP_INTERVAL"), 5*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		CatalogTTL:   parseDuration(v.GetString("CATALOG_CACHE_TTL"), 5*time.Minute),
		DashboardTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 2*time.Minute),
	}

	docs := cfg.Env != EnvProduction
	if v.IsSet("ENABLE_DOCS") {
		docs = v.GetBool("ENABLE_DOCS")
	}
	cfg.Features = FeatureConfig{
		Metrics: v.GetBool("ENABLE_METRICS"),
		Docs:    docs,
	}

	return cfg, nil
}

// Validate rejects configurations that are unsafe to serve.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Env == EnvProduction && c.JWT.Secret == DevJWTSecret {
		return errors.New("JWT_SECRET must be overridden in production")
	}
	switch c.RateLimit.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if !c.Redis.Enabled {
			return errors.New("RATE_LIMIT_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimit.Backend)
	}
	if c.RateLimit.IP.MaxAttempts < 1 || c.RateLimit.Email.MaxAttempts < 1 {
		return errors.New("rate limit attempts must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "cefib_admin")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("JWT_ISSUER", "cefib-admin")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "1h")
	v.SetDefault("BCRYPT_COST", 12)

	v.SetDefault("REFRESH_COOKIE_MAX_AGE", "168h")
	v.SetDefault("CSRF_ENFORCE", false)

	v.SetDefault("RATE_LIMIT_BACKEND", RateLimitBackendMemory)
	v.SetDefault("RATE_LIMIT_IP_MAX", 5)
	v.SetDefault("RATE_LIMIT_IP_WINDOW", "60s")
	v.SetDefault("RATE_LIMIT_IP_BLOCK", "15m")
	v.SetDefault("RATE_LIMIT_EMAIL_MAX", 3)
	v.SetDefault("RATE_LIMIT_EMAIL_WINDOW", "60s")
	v.SetDefault("RATE_LIMIT_EMAIL_BLOCK", "30m")
	v.SetDefault("RATE_LIMIT_SWEEP_INTERVAL", "5m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOG_CACHE_TTL", "5m")
	v.SetDefault("DASHBOARD_CACHE_TTL", "2m")
	v.SetDefault("ENABLE_METRICS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
