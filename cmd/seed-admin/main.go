// Command seed-admin creates the first SUPER_ADMIN account. Running it again
// for an existing email leaves the account untouched.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/repository"
	"github.com/cefib-pe/cefib-admin-api/internal/service"
	"github.com/cefib-pe/cefib-admin-api/pkg/config"
	"github.com/cefib-pe/cefib-admin-api/pkg/database"
	"github.com/cefib-pe/cefib-admin-api/pkg/logger"
)

func main() {
	email := flag.String("email", "admin@cefib.pe", "administrator email")
	name := flag.String("name", "Administrador CEFIB", "display name")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "initial password (min 8 chars), defaults to $SEED_ADMIN_PASSWORD")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal("--password or SEED_ADMIN_PASSWORD is required (min 8 chars)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	normalized := strings.ToLower(strings.TrimSpace(*email))

	existing, err := users.FindByEmail(ctx, normalized)
	switch {
	case err == nil:
		logr.Info("administrator already exists, nothing to do", zap.String("email", existing.Email), zap.String("role", string(existing.Role)))
		return
	case !errors.Is(err, sql.ErrNoRows):
		logr.Fatal("lookup failed", zap.Error(err))
	}

	hash, err := service.NewPasswordHasher(cfg.JWT.BcryptCost).Hash(*password)
	if err != nil {
		logr.Fatal("hash password", zap.Error(err))
	}

	user := &models.User{
		Email:        normalized,
		Name:         strings.TrimSpace(*name),
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
	}
	if err := users.Create(ctx, user); err != nil {
		if _, dup := repository.IsDuplicate(err); dup {
			logr.Info("administrator created concurrently, nothing to do", zap.String("email", normalized))
			return
		}
		logr.Fatal("create administrator", zap.Error(err))
	}
	logr.Info("administrator created", zap.String("id", user.ID), zap.String("email", user.Email))
}
