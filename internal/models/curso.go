package models

import "time"

// CursoEstado is the publication lifecycle of a course.
type CursoEstado string

const (
	CursoBorrador   CursoEstado = "BORRADOR"
	CursoPublicado  CursoEstado = "PUBLICADO"
	CursoFinalizado CursoEstado = "FINALIZADO"
	CursoCancelado  CursoEstado = "CANCELADO"
)

// Modalidad describes how a course is delivered.
type Modalidad string

const (
	ModalidadPresencial Modalidad = "PRESENCIAL"
	ModalidadVirtual    Modalidad = "VIRTUAL"
	ModalidadHibrido    Modalidad = "HIBRIDO"
)

// Curso is a training course offered in the catalog.
type Curso struct {
	ID            string      `db:"id" json:"id"`
	Titulo        string      `db:"titulo" json:"titulo"`
	Slug          string      `db:"slug" json:"slug"`
	Descripcion   string      `db:"descripcion" json:"descripcion"`
	Modalidad     Modalidad   `db:"modalidad" json:"modalidad"`
	Categoria     string      `db:"categoria" json:"categoria"`
	DuracionHoras int         `db:"duracion_horas" json:"duracionHoras"`
	Precio        float64     `db:"precio" json:"precio"`
	FechaInicio   *time.Time  `db:"fecha_inicio" json:"fechaInicio,omitempty"`
	FechaFin      *time.Time  `db:"fecha_fin" json:"fechaFin,omitempty"`
	CupoMaximo    int         `db:"cupo_maximo" json:"cupoMaximo"`
	CupoActual    int         `db:"cupo_actual" json:"cupoActual"`
	Estado        CursoEstado `db:"estado" json:"estado"`
	DocenteID     *string     `db:"docente_id" json:"docenteId,omitempty"`
	ImagenURL     *string     `db:"imagen_url" json:"imagenUrl,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updatedAt"`
}

// Lleno reports whether the course has no free seats. A zero cap means unlimited.
func (c *Curso) Lleno() bool {
	return c.CupoMaximo > 0 && c.CupoActual >= c.CupoMaximo
}

// CursoFilter captures filtering options for listing courses.
type CursoFilter struct {
	ListQuery
	Estado    *CursoEstado
	Modalidad *Modalidad
	Categoria string
	DocenteID string
}
