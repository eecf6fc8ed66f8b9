package models

import "time"

// InscripcionEstado represents the lifecycle of an enrollment.
type InscripcionEstado string

const (
	InscripcionPendiente  InscripcionEstado = "PENDIENTE"
	InscripcionConfirmada InscripcionEstado = "CONFIRMADA"
	InscripcionCancelada  InscripcionEstado = "CANCELADA"
)

// EstadoPago tracks payment for an enrollment.
type EstadoPago string

const (
	PagoPendiente EstadoPago = "PENDIENTE"
	PagoPagado    EstadoPago = "PAGADO"
	PagoExonerado EstadoPago = "EXONERADO"
)

// Inscripcion captures a participant's registration to a course.
type Inscripcion struct {
	ID             string            `db:"id" json:"id"`
	CursoID        string            `db:"curso_id" json:"cursoId"`
	ParticipanteID string            `db:"participante_id" json:"participanteId"`
	Estado         InscripcionEstado `db:"estado" json:"estado"`
	EstadoPago     EstadoPago        `db:"estado_pago" json:"estadoPago"`
	MontoPagado    float64           `db:"monto_pagado" json:"montoPagado"`
	Notas          *string           `db:"notas" json:"notas,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updatedAt"`
}

// InscripcionDetail enriches Inscripcion with course and participant info.
type InscripcionDetail struct {
	Inscripcion
	CursoTitulo        string `db:"curso_titulo" json:"cursoTitulo"`
	ParticipanteNombre string `db:"participante_nombre" json:"participanteNombre"`
	ParticipanteEmail  string `db:"participante_email" json:"participanteEmail"`
}

// InscripcionFilter provides filters for listing enrollments.
type InscripcionFilter struct {
	ListQuery
	CursoID        string
	ParticipanteID string
	Estado         *InscripcionEstado
	EstadoPago     *EstadoPago
}
