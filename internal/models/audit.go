package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AuditAction tags the kind of security-relevant event being recorded.
type AuditAction string

const (
	AuditLoginSuccess       AuditAction = "LOGIN_SUCCESS"
	AuditLoginFailed        AuditAction = "LOGIN_FAILED"
	AuditLoginRateLimited   AuditAction = "LOGIN_RATE_LIMITED"
	AuditLogout             AuditAction = "LOGOUT"
	AuditTokenRefresh       AuditAction = "TOKEN_REFRESH"
	AuditPasswordChange     AuditAction = "PASSWORD_CHANGE"
	AuditUnauthorizedAccess AuditAction = "UNAUTHORIZED_ACCESS"
	AuditCreate             AuditAction = "CREATE"
	AuditUpdate             AuditAction = "UPDATE"
	AuditDelete             AuditAction = "DELETE"
)

// Audited entity names.
const (
	EntityAuth         = "auth"
	EntityUser         = "usuario"
	EntityCurso        = "curso"
	EntityDocente      = "docente"
	EntityParticipante = "participante"
	EntityInscripcion  = "inscripcion"
	EntitySolicitud    = "solicitud"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID           string          `db:"id" json:"id"`
	Action       AuditAction     `db:"action" json:"action"`
	UserID       *string         `db:"user_id" json:"userId,omitempty"`
	UserEmail    *string         `db:"user_email" json:"userEmail,omitempty"`
	Entity       string          `db:"entity" json:"entity"`
	EntityID     *string         `db:"entity_id" json:"entityId,omitempty"`
	Details      JSONB           `db:"details" json:"details,omitempty"`
	IPAddress    string          `db:"ip_address" json:"ipAddress"`
	UserAgent    string          `db:"user_agent" json:"userAgent"`
	Success      bool            `db:"success" json:"success"`
	ErrorMessage *string         `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

// AuditEntry is the write-side description of one audit event.
type AuditEntry struct {
	Action       AuditAction
	UserID       string
	Entity       string
	EntityID     string
	Details      AuditDetails
	Meta         RequestMeta
	Success      bool
	ErrorMessage string
}

// AuditDetails is one of the typed payloads stored in audit_logs.details.
type AuditDetails interface {
	AuditKind() string
}

// LoginDetails describes a login attempt.
type LoginDetails struct {
	Email             string `json:"email"`
	Reason            string `json:"reason,omitempty"`
	Scope             string `json:"scope,omitempty"`
	RemainingAttempts *int   `json:"remainingAttempts,omitempty"`
	RetryAfter        int    `json:"retryAfter,omitempty"`
}

func (LoginDetails) AuditKind() string { return "login" }

// SessionDetails describes logout and refresh events.
type SessionDetails struct {
	Reason string `json:"reason,omitempty"`
}

func (SessionDetails) AuditKind() string { return "session" }

// EntityDetails describes a create, update or delete of a back office record.
type EntityDetails struct {
	Before interface{} `json:"before,omitempty"`
	After  interface{} `json:"after,omitempty"`
	Fields []string    `json:"fields,omitempty"`
}

func (EntityDetails) AuditKind() string { return "entity" }

// AccessDetails describes a rejected request.
type AccessDetails struct {
	Method   string     `json:"method"`
	Path     string     `json:"path"`
	Role     UserRole   `json:"role,omitempty"`
	Required []UserRole `json:"required,omitempty"`
	Reason   string     `json:"reason"`
}

func (AccessDetails) AuditKind() string { return "access" }

// PasswordDetails describes a password change attempt.
type PasswordDetails struct {
	Reason string `json:"reason,omitempty"`
}

func (PasswordDetails) AuditKind() string { return "password" }

type auditEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// EncodeAuditDetails serialises details as {"type": kind, "data": payload}.
// A nil payload encodes to nil so the column stays NULL.
func EncodeAuditDetails(d AuditDetails) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	raw, err := json.Marshal(auditEnvelope{Type: d.AuditKind(), Data: d})
	if err != nil {
		return nil, fmt.Errorf("encode audit details: %w", err)
	}
	return raw, nil
}

// AuditFilter narrows the audit log listing.
type AuditFilter struct {
	Action *AuditAction
	Limit  int
}

// AuditActionCount aggregates one action over the stats window.
type AuditActionCount struct {
	Action AuditAction `db:"action" json:"action"`
	Total  int         `db:"total" json:"total"`
	Failed int         `db:"failed" json:"failed"`
}

// AuditStats summarises audit activity over a trailing window.
type AuditStats struct {
	Days       int                `json:"days"`
	Since      time.Time          `json:"since"`
	Total      int                `json:"total"`
	Successful int                `json:"successful"`
	Failed     int                `json:"failed"`
	ByAction   []AuditActionCount `json:"byAction"`
}
