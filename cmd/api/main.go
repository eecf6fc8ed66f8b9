package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/cefib-pe/cefib-admin-api/api/swagger"
	"github.com/cefib-pe/cefib-admin-api/internal/handler"
	"github.com/cefib-pe/cefib-admin-api/internal/middleware"
	"github.com/cefib-pe/cefib-admin-api/internal/ratelimit"
	"github.com/cefib-pe/cefib-admin-api/internal/repository"
	"github.com/cefib-pe/cefib-admin-api/internal/service"
	"github.com/cefib-pe/cefib-admin-api/pkg/cache"
	"github.com/cefib-pe/cefib-admin-api/pkg/config"
	"github.com/cefib-pe/cefib-admin-api/pkg/database"
	"github.com/cefib-pe/cefib-admin-api/pkg/jobs"
	"github.com/cefib-pe/cefib-admin-api/pkg/logger"
	corsmiddleware "github.com/cefib-pe/cefib-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cefib-pe/cefib-admin-api/pkg/middleware/requestid"
	"github.com/cefib-pe/cefib-admin-api/pkg/validation"
)

// @title CEFIB Admin API
// @version 1.0.0
// @description Back office API for the CEFIB training catalog: courses, instructors, participants, enrollments and leads.
// @BasePath /api
// @schemes http https

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("redis connection failed", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	scheduler := jobs.NewScheduler(logr)
	r := buildRouter(cfg, db, redisClient, scheduler, logr)
	scheduler.Start(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "rateLimitBackend", cfg.RateLimit.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	case err := <-errCh:
		logr.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	scheduler.Stop()
	logr.Info("server stopped")
}

func buildRouter(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, scheduler *jobs.Scheduler, logr *zap.Logger) *gin.Engine {
	validate := validation.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cursoRepo := repository.NewCursoRepository(db)
	docenteRepo := repository.NewDocenteRepository(db)
	participanteRepo := repository.NewParticipanteRepository(db)
	inscripcionRepo := repository.NewInscripcionRepository(db)
	solicitudRepo := repository.NewSolicitudRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Cache.CatalogTTL, logr, redisClient != nil)
	auditSvc := service.NewAuditService(auditRepo, metricsSvc, logr)
	hasher := service.NewPasswordHasher(cfg.JWT.BcryptCost)
	tokenSvc := service.NewTokenService(tokenRepo, service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTTL: cfg.JWT.RefreshTokenTTL,
	}, logr)
	scheduler.Add(tokenSvc.PurgeTask(cfg.RateLimit.SweepInterval))

	authSvc := service.NewAuthService(userRepo, tokenSvc, hasher, loginLimiters(cfg, redisClient, scheduler, logr), auditSvc, metricsSvc, validate, logr)
	cursoSvc := service.NewCursoService(cursoRepo, docenteRepo, cacheSvc, auditSvc, validate, logr)
	docenteSvc := service.NewDocenteService(docenteRepo, cacheSvc, auditSvc, validate, logr)
	participanteSvc := service.NewParticipanteService(participanteRepo, cacheSvc, auditSvc, validate, logr)
	inscripcionSvc := service.NewInscripcionService(inscripcionRepo, participanteRepo, cacheSvc, auditSvc, validate, logr)
	solicitudSvc := service.NewSolicitudService(solicitudRepo, cursoRepo, cacheSvc, auditSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, hasher, tokenSvc, auditSvc, validate, logr)
	catalogSvc := service.NewCatalogService(cursoRepo, cacheSvc, cfg.Cache.CatalogTTL, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, cfg.Cache.DashboardTTL, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	guard := middleware.NewGuard(authSvc, auditSvc)
	handler.RegisterRoutes(r, guard, middleware.CSRF(authSvc, cfg.Cookies.CSRFEnforcement), handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc, handler.CookieSettings{Secure: cfg.Cookies.Secure, RefreshMaxAge: cfg.Cookies.RefreshMaxAge}),
		Cursos:        handler.NewCursoHandler(cursoSvc),
		Docentes:      handler.NewDocenteHandler(docenteSvc),
		Participantes: handler.NewParticipanteHandler(participanteSvc),
		Inscripciones: handler.NewInscripcionHandler(inscripcionSvc),
		Solicitudes:   handler.NewSolicitudHandler(solicitudSvc),
		Usuarios:      handler.NewUserHandler(userSvc),
		Catalog:       handler.NewCatalogHandler(catalogSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Audit:         handler.NewAuditHandler(auditSvc),
		Metrics:       handler.NewMetricsHandler(metricsSvc, db),
	}, handler.RouteOptions{APIPrefix: cfg.APIPrefix, EnableMetrics: cfg.Features.Metrics})

	if cfg.Features.Docs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}

// loginLimiters builds the IP and email limiters on the configured store. The
// memory store needs a periodic sweep; Redis keys expire on their own.
func loginLimiters(cfg *config.Config, redisClient *redis.Client, scheduler *jobs.Scheduler, logr *zap.Logger) service.AuthLimiters {
	store, memory := limiterStore(cfg, redisClient, logr)
	if memory != nil {
		scheduler.Add(ratelimit.SweepTask(memory, cfg.RateLimit.SweepInterval, logr))
	}

	ip := cfg.RateLimit.IP
	email := cfg.RateLimit.Email
	return service.AuthLimiters{
		IP:    ratelimit.New("ip", ratelimit.Policy{Max: ip.MaxAttempts, Window: ip.Window, Block: ip.Block}, store),
		Email: ratelimit.New("email", ratelimit.Policy{Max: email.MaxAttempts, Window: email.Window, Block: email.Block}, store),
	}
}

// limiterStore picks the rate-limit store and also returns the memory store,
// if one was chosen, so its sweep can be scheduled. Config.Validate rejects the
// redis backend without REDIS_ENABLED; any fallback is logged at Warn.
func limiterStore(cfg *config.Config, redisClient *redis.Client, logr *zap.Logger) (ratelimit.Store, *ratelimit.MemoryStore) {
	if cfg.RateLimit.Backend == config.RateLimitBackendRedis {
		if redisClient == nil {
			logr.Warn("redis rate limit backend requested without a redis client, falling back to per-instance memory limits",
				zap.String("backend", cfg.RateLimit.Backend))
			memory := ratelimit.NewMemoryStore()
			return memory, memory
		}
		logr.Info("login rate limits shared through redis")
		return ratelimit.NewRedisStore(redisClient, "cefib:ratelimit"), nil
	}
	logr.Warn("login rate limits are kept in process memory; counters are per instance and reset on restart")
	memory := ratelimit.NewMemoryStore()
	return memory, memory
}
