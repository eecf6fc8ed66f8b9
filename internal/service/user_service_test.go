package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/validation"
)

var superActor = models.Actor{UserID: "u-super", Role: models.RoleSuperAdmin}

func newUserFixture() (*UserService, *memUsers, *memRefreshTokens, *recordedAudit) {
	users := newMemUsers(
		&models.User{ID: "u-super", Email: "root@cefib.pe", Name: "Root", Role: models.RoleSuperAdmin},
		&models.User{ID: "u-admin", Email: "admin@cefib.pe", Name: "Admin", Role: models.RoleAdmin},
	)
	tokens := newMemRefreshTokens()
	audit := &recordedAudit{}
	sessions := NewTokenService(tokens, TokenConfig{Secret: "test-secret"}, zap.NewNop())
	svc := NewUserService(users, NewPasswordHasher(bcrypt.MinCost), sessions, audit, validation.New(), zap.NewNop())
	return svc, users, tokens, audit
}

func TestUserServiceCreateHashesAndLowercases(t *testing.T) {
	svc, users, _, audit := newUserFixture()

	user, err := svc.Create(context.Background(), superActor, models.CreateUserRequest{
		Email: "Nuevo@CEFIB.pe", Password: "ClaveSegura1", Name: "Nuevo", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "nuevo@cefib.pe", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.users[user.ID].PasswordHash), []byte("ClaveSegura1")))

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), user.PasswordHash)
	assert.True(t, audit.last().Success)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newUserFixture()
	_, err := svc.Create(context.Background(), superActor, models.CreateUserRequest{
		Email: "ADMIN@cefib.pe", Password: "ClaveSegura1", Name: "Otro", Role: models.RoleAdmin,
	})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "email", appErr.Field)
}

func TestUserServiceCannotDemoteSelf(t *testing.T) {
	svc, users, _, audit := newUserFixture()
	role := models.RoleAdmin

	_, err := svc.Update(context.Background(), superActor, "u-super", models.UpdateUserRequest{Role: &role})
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
	assert.Equal(t, models.RoleSuperAdmin, users.users["u-super"].Role)
	assert.False(t, audit.last().Success)

	name := "Root Renombrado"
	same := models.RoleSuperAdmin
	_, err = svc.Update(context.Background(), superActor, "u-super", models.UpdateUserRequest{Name: &name, Role: &same})
	require.NoError(t, err)
}

func TestUserServicePasswordResetRevokesSessions(t *testing.T) {
	svc, _, tokens, audit := newUserFixture()
	require.NoError(t, tokens.Create(context.Background(), &models.RefreshToken{Token: "t1", UserID: "u-admin"}))
	password := "OtraClave123"

	_, err := svc.Update(context.Background(), superActor, "u-admin", models.UpdateUserRequest{Password: &password})
	require.NoError(t, err)
	assert.Equal(t, 0, tokens.count())
	assert.Contains(t, audit.last().Details.(models.EntityDetails).Fields, "password")
}

func TestUserServiceCannotDeleteSelf(t *testing.T) {
	svc, users, _, _ := newUserFixture()

	err := svc.Delete(context.Background(), superActor, "u-super")
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
	assert.Len(t, users.users, 2)

	require.NoError(t, svc.Delete(context.Background(), superActor, "u-admin"))
	assert.Len(t, users.users, 1)
}

func TestUserServiceListFiltersRole(t *testing.T) {
	svc, _, _, _ := newUserFixture()
	role := models.RoleAdmin
	users, pag, err := svc.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 20, pag.PageSize)
}

func TestUserServiceRejectsPasswordOverBcryptBytes(t *testing.T) {
	svc, users, _, audit := newUserFixture()
	long := strings.Repeat("ñ", 40)

	_, err := svc.Create(context.Background(), superActor, models.CreateUserRequest{
		Email: "largo@cefib.pe", Password: long, Name: "Largo", Role: models.RoleAdmin,
	})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "password", appErr.Details[0].Field)
	assert.Len(t, users.users, 2)
	assert.False(t, audit.last().Success)

	_, err = svc.Update(context.Background(), superActor, "u-admin", models.UpdateUserRequest{Password: &long})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestHashErrorMapsTooLongToField(t *testing.T) {
	_, err := NewPasswordHasher(bcrypt.MinCost).Hash(strings.Repeat("ñ", 40))
	require.Error(t, err)

	appErr := hashError(err, "newPassword")
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "newPassword", appErr.Field)
}
