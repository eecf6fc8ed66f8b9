package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError carries a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code              string       `json:"code"`
	Message           string       `json:"message"`
	Status            int          `json:"status"`
	Field             string       `json:"field,omitempty"`
	Details           []FieldError `json:"details,omitempty"`
	RetryAfter        int          `json:"retryAfter,omitempty"`
	RemainingAttempts *int         `json:"remainingAttempts,omitempty"`
	Err               error        `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "credenciales inválidas")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "recurso no encontrado")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "no tiene permisos para esta acción")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "no autenticado")
	ErrCSRF               = New("CSRF_INVALID", http.StatusForbidden, "token CSRF inválido")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflicto con el estado actual")
	ErrDuplicate          = New("DUPLICATE_VALUE", http.StatusBadRequest, "el valor ya está registrado")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "datos inválidos")
	ErrRateLimited        = New("RATE_LIMITED", http.StatusTooManyRequests, "demasiados intentos, intente más tarde")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "error interno del servidor")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	if err.Details != nil {
		clone.Details = append([]FieldError(nil), err.Details...)
	}
	return &clone
}

// Duplicate builds a DUPLICATE_VALUE error pointing at the offending field.
func Duplicate(field, message string) *Error {
	e := Clone(ErrDuplicate, message)
	e.Field = field
	return e
}

// RateLimited builds a 429 error reporting how long the caller must wait.
func RateLimited(retryAfter int) *Error {
	e := Clone(ErrRateLimited, fmt.Sprintf("demasiados intentos, intente nuevamente en %d segundos", retryAfter))
	e.RetryAfter = retryAfter
	return e
}

// WithRemaining returns a copy of err reporting the attempts left before a block.
func WithRemaining(err *Error, remaining int) *Error {
	e := Clone(err, "")
	e.RemainingAttempts = &remaining
	return e
}
