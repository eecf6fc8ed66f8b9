package models

import "time"

// Docente represents an instructor record.
type Docente struct {
	ID           string    `db:"id" json:"id"`
	Nombres      string    `db:"nombres" json:"nombres"`
	Apellidos    string    `db:"apellidos" json:"apellidos"`
	Email        string    `db:"email" json:"email"`
	Telefono     *string   `db:"telefono" json:"telefono,omitempty"`
	Especialidad *string   `db:"especialidad" json:"especialidad,omitempty"`
	Biografia    *string   `db:"biografia" json:"biografia,omitempty"`
	FotoURL      *string   `db:"foto_url" json:"fotoUrl,omitempty"`
	Activo       bool      `db:"activo" json:"activo"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// DocenteFilter captures filtering options for listing instructors.
type DocenteFilter struct {
	ListQuery
	Activo *bool
}
