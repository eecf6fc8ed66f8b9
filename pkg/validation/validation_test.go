package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email     string `json:"email" validate:"required,email"`
	Slug      string `json:"slug" validate:"omitempty,slug"`
	Modalidad string `json:"modalidad" validate:"required,oneof=PRESENCIAL VIRTUAL"`
}

func TestErrorCollectsFieldDetails(t *testing.T) {
	v := New()
	err := v.Struct(sample{Email: "no-es-email", Slug: "Con Espacios", Modalidad: "OTRA"})
	require.Error(t, err)

	appErr := Error(err, "datos del curso inválidos")
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "datos del curso inválidos", appErr.Message)
	require.Len(t, appErr.Details, 3)

	fields := map[string]string{}
	for _, d := range appErr.Details {
		fields[d.Field] = d.Message
	}
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields["slug"], "minúsculas")
	assert.Contains(t, fields["modalidad"], "PRESENCIAL VIRTUAL")
}

func TestNewIsShared(t *testing.T) {
	assert.Same(t, New(), New())
	assert.NoError(t, New().Struct(sample{Email: "admin@cefib.pe", Slug: "gestion-publica-2025", Modalidad: "VIRTUAL"}))
}

type passwordPayload struct {
	Password string `json:"password" validate:"required,min=8,bcryptmax"`
}

func TestBcryptMaxCountsBytes(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(passwordPayload{Password: strings.Repeat("a", 72)}))
	assert.NoError(t, v.Struct(passwordPayload{Password: strings.Repeat("ñ", 36)}))

	err := v.Struct(passwordPayload{Password: strings.Repeat("ñ", 40)})
	require.Error(t, err)
	appErr := Error(err, "datos inválidos")
	assert.Equal(t, 400, appErr.Status)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "password", appErr.Details[0].Field)
	assert.Contains(t, appErr.Details[0].Message, "demasiado larga")
}
