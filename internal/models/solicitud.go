package models

import "time"

// SolicitudEstado tracks the follow-up of an inbound lead.
type SolicitudEstado string

const (
	SolicitudNueva      SolicitudEstado = "NUEVA"
	SolicitudContactada SolicitudEstado = "CONTACTADA"
	SolicitudConvertida SolicitudEstado = "CONVERTIDA"
	SolicitudDescartada SolicitudEstado = "DESCARTADA"
)

// Solicitud is an information request left through the public site.
type Solicitud struct {
	ID        string          `db:"id" json:"id"`
	Nombre    string          `db:"nombre" json:"nombre"`
	Email     string          `db:"email" json:"email"`
	Telefono  *string         `db:"telefono" json:"telefono,omitempty"`
	Empresa   *string         `db:"empresa" json:"empresa,omitempty"`
	CursoID   *string         `db:"curso_id" json:"cursoId,omitempty"`
	Mensaje   *string         `db:"mensaje" json:"mensaje,omitempty"`
	Estado    SolicitudEstado `db:"estado" json:"estado"`
	Notas     *string         `db:"notas" json:"notas,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// SolicitudFilter provides filters for listing leads.
type SolicitudFilter struct {
	ListQuery
	Estado  *SolicitudEstado
	CursoID string
}
