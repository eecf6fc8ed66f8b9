package service

import (
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/repository"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	return optionalString(*value)
}

func normalizePaging(q *models.ListQuery) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
}

func pagination(q models.ListQuery, total int) *models.Pagination {
	return &models.Pagination{Page: q.Page, PageSize: q.PageSize, TotalCount: total}
}

func internalError(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// lookupError maps a repository read error, turning sql.ErrNoRows into a 404
// carrying notFound.
func lookupError(err error, notFound, internal string) *appErrors.Error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return internalError(err, internal)
}

// writeError maps a repository write error. Unique violations become
// DUPLICATE_VALUE errors naming the offending field.
func writeError(err error, notFound, internal string) *appErrors.Error {
	if dup, ok := repository.IsDuplicate(err); ok {
		return appErrors.Duplicate(dup.Field, duplicateMessage(dup.Field))
	}
	return lookupError(err, notFound, internal)
}

func invalidPayload(err error, message string) *appErrors.Error {
	return validation.Error(err, message)
}

// hashError maps a password hashing failure. Input over bcrypt's byte limit
// is the caller's fault, anything else is internal.
func hashError(err error, field string) *appErrors.Error {
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return fieldInvalid(field, "la contraseña es demasiado larga")
	}
	return internalError(err, "no se pudo procesar la contraseña")
}

func fieldInvalid(field, message string) *appErrors.Error {
	e := appErrors.Clone(appErrors.ErrValidation, message)
	e.Field = field
	e.Details = []appErrors.FieldError{{Field: field, Message: message}}
	return e
}

func duplicateMessage(field string) string {
	switch field {
	case "email":
		return "el email ya está registrado"
	case "slug":
		return "el slug ya está en uso"
	case "numeroDocumento":
		return "el número de documento ya está registrado"
	case "participanteId":
		return "el participante ya está inscrito en este curso"
	default:
		return appErrors.ErrDuplicate.Message
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
