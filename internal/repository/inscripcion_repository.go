package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
)

var (
	// ErrCursoNotFound is returned when an enrollment targets a missing course.
	ErrCursoNotFound = errors.New("curso not found")
	// ErrCursoLleno is returned when the course has no seats left.
	ErrCursoLleno = errors.New("curso has no seats left")
)

const inscripcionDetailQuery = `SELECT i.id, i.curso_id, i.participante_id, i.estado, i.estado_pago, i.monto_pagado, i.notas,
i.created_at, i.updated_at,
c.titulo AS curso_titulo,
p.nombres || ' ' || p.apellidos AS participante_nombre,
p.email AS participante_email
FROM inscripciones i
JOIN cursos c ON c.id = i.curso_id
JOIN participantes p ON p.id = i.participante_id`

// InscripcionRepository manages enrollments and keeps cursos.cupo_actual in step.
type InscripcionRepository struct {
	db *sqlx.DB
}

// NewInscripcionRepository constructs an InscripcionRepository.
func NewInscripcionRepository(db *sqlx.DB) *InscripcionRepository {
	return &InscripcionRepository{db: db}
}

// List returns enrollments joined with course and participant names.
func (r *InscripcionRepository) List(ctx context.Context, filter models.InscripcionFilter) ([]models.InscripcionDetail, int, error) {
	var cond conditions
	if filter.CursoID != "" {
		cond.add("i.curso_id = ?", filter.CursoID)
	}
	if filter.ParticipanteID != "" {
		cond.add("i.participante_id = ?", filter.ParticipanteID)
	}
	if filter.Estado != nil {
		cond.add("i.estado = ?", *filter.Estado)
	}
	if filter.EstadoPago != nil {
		cond.add("i.estado_pago = ?", *filter.EstadoPago)
	}
	cond.search(filter.Search, "c.titulo", "p.nombres", "p.apellidos", "p.email")

	_, size, offset := page(filter.ListQuery)
	order := orderBy(filter.ListQuery, map[string]string{
		"createdAt":   "i.created_at",
		"estado":      "i.estado",
		"estadoPago":  "i.estado_pago",
		"montoPagado": "i.monto_pagado",
	}, "i.created_at")

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", inscripcionDetailQuery, cond.where(), order, size, offset)
	items := []models.InscripcionDetail{}
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list inscripciones: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM inscripciones i
JOIN cursos c ON c.id = i.curso_id
JOIN participantes p ON p.id = i.participante_id` + cond.where()
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count inscripciones: %w", err)
	}
	return items, total, nil
}

// FindByID returns one enrollment with its joined names.
func (r *InscripcionRepository) FindByID(ctx context.Context, id string) (*models.InscripcionDetail, error) {
	var item models.InscripcionDetail
	if err := r.db.GetContext(ctx, &item, inscripcionDetailQuery+` WHERE i.id = $1 LIMIT 1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find inscripcion: %w", err)
	}
	return &item, nil
}

// Create locks the course row, checks capacity, inserts the enrollment and
// takes one seat, all in a single transaction.
func (r *InscripcionRepository) Create(ctx context.Context, item *models.Inscripcion) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin inscripcion create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var cupo struct {
		Maximo int `db:"cupo_maximo"`
		Actual int `db:"cupo_actual"`
	}
	const lockQuery = `SELECT cupo_maximo, cupo_actual FROM cursos WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &cupo, lockQuery, item.CursoID); err != nil {
		if err == sql.ErrNoRows {
			err = ErrCursoNotFound
			return err
		}
		return fmt.Errorf("lock curso: %w", err)
	}
	if cupo.Maximo > 0 && cupo.Actual >= cupo.Maximo {
		err = ErrCursoLleno
		return err
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	const insertQuery = `INSERT INTO inscripciones (id, curso_id, participante_id, estado, estado_pago, monto_pagado, notas, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err = tx.ExecContext(ctx, insertQuery, item.ID, item.CursoID, item.ParticipanteID, item.Estado, item.EstadoPago,
		item.MontoPagado, item.Notas, item.CreatedAt, item.UpdatedAt); err != nil {
		return fmt.Errorf("insert inscripcion: %w", asDuplicate(err))
	}

	const takeSeat = `UPDATE cursos SET cupo_actual = cupo_actual + 1, updated_at = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, takeSeat, item.CursoID, now); err != nil {
		return fmt.Errorf("increment cupo: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit inscripcion create: %w", err)
	}
	return nil
}

// Update changes the status and payment fields of an enrollment.
func (r *InscripcionRepository) Update(ctx context.Context, item *models.Inscripcion) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE inscripciones SET estado = $2, estado_pago = $3, monto_pagado = $4, notas = $5, updated_at = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, item.ID, item.Estado, item.EstadoPago, item.MontoPagado, item.Notas, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update inscripcion: %w", err)
	}
	return affectedOne(res)
}

// Delete removes the enrollment and frees its seat. Both statements commit
// together or not at all.
func (r *InscripcionRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin inscripcion delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var cursoID string
	const deleteQuery = `DELETE FROM inscripciones WHERE id = $1 RETURNING curso_id`
	if err = tx.GetContext(ctx, &cursoID, deleteQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("delete inscripcion: %w", err)
	}

	const releaseSeat = `UPDATE cursos SET cupo_actual = GREATEST(cupo_actual - 1, 0), updated_at = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, releaseSeat, cursoID, time.Now().UTC()); err != nil {
		return fmt.Errorf("decrement cupo: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit inscripcion delete: %w", err)
	}
	return nil
}
