package models

import "time"

// DashboardSummary aggregates back office counters.
type DashboardSummary struct {
	Cursos                   int       `db:"cursos" json:"cursos"`
	CursosPublicados         int       `db:"cursos_publicados" json:"cursosPublicados"`
	Docentes                 int       `db:"docentes" json:"docentes"`
	Participantes            int       `db:"participantes" json:"participantes"`
	Inscripciones            int       `db:"inscripciones" json:"inscripciones"`
	InscripcionesConfirmadas int       `db:"inscripciones_confirmadas" json:"inscripcionesConfirmadas"`
	Solicitudes              int       `db:"solicitudes" json:"solicitudes"`
	SolicitudesNuevas        int       `db:"solicitudes_nuevas" json:"solicitudesNuevas"`
	GeneratedAt              time.Time `db:"-" json:"generatedAt"`
}
