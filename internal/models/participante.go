package models

import "time"

// TipoDocumento enumerates accepted identity documents.
type TipoDocumento string

const (
	DocumentoDNI       TipoDocumento = "DNI"
	DocumentoCE        TipoDocumento = "CE"
	DocumentoPasaporte TipoDocumento = "PASAPORTE"
)

// Participante is a person who enrolls in courses.
type Participante struct {
	ID              string        `db:"id" json:"id"`
	Nombres         string        `db:"nombres" json:"nombres"`
	Apellidos       string        `db:"apellidos" json:"apellidos"`
	TipoDocumento   TipoDocumento `db:"tipo_documento" json:"tipoDocumento"`
	NumeroDocumento string        `db:"numero_documento" json:"numeroDocumento"`
	Email           string        `db:"email" json:"email"`
	Telefono        *string       `db:"telefono" json:"telefono,omitempty"`
	Empresa         *string       `db:"empresa" json:"empresa,omitempty"`
	Cargo           *string       `db:"cargo" json:"cargo,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updatedAt"`
}

// ParticipanteFilter captures filtering options for listing participants.
type ParticipanteFilter struct {
	ListQuery
	Empresa string
}
