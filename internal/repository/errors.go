package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// DuplicateError reports a unique constraint violation along with the payload
// field the constraint protects.
type DuplicateError struct {
	Constraint string
	Field      string
	Err        error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s (%s)", e.Field, e.Constraint)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// constraintFields maps the unique indexes in scripts/schema.sql to JSON field names.
var constraintFields = map[string]string{
	"users_email_key":                      "email",
	"cursos_slug_key":                      "slug",
	"docentes_email_key":                   "email",
	"participantes_email_key":              "email",
	"participantes_numero_documento_key":   "numeroDocumento",
	"inscripciones_curso_participante_key": "participanteId",
	"refresh_tokens_token_key":             "token",
}

// asDuplicate converts a Postgres unique violation into a *DuplicateError and
// returns any other error unchanged.
func asDuplicate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return err
	}
	field, ok := constraintFields[pqErr.Constraint]
	if !ok {
		field = pqErr.Column
	}
	return &DuplicateError{Constraint: pqErr.Constraint, Field: field, Err: err}
}

// IsDuplicate reports whether err wraps a unique violation and returns it.
func IsDuplicate(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
