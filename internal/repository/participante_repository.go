package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
)

const participanteColumns = `id, nombres, apellidos, tipo_documento, numero_documento, email, telefono, empresa, cargo, created_at, updated_at`

// ParticipanteRepository provides database access for participants.
type ParticipanteRepository struct {
	db *sqlx.DB
}

// NewParticipanteRepository constructs a ParticipanteRepository.
func NewParticipanteRepository(db *sqlx.DB) *ParticipanteRepository {
	return &ParticipanteRepository{db: db}
}

// List returns participants matching the filter along with the total count.
func (r *ParticipanteRepository) List(ctx context.Context, filter models.ParticipanteFilter) ([]models.Participante, int, error) {
	var cond conditions
	if filter.Empresa != "" {
		cond.add("LOWER(empresa) = LOWER(?)", filter.Empresa)
	}
	cond.search(filter.Search, "nombres", "apellidos", "email", "numero_documento")

	_, size, offset := page(filter.ListQuery)
	order := orderBy(filter.ListQuery, map[string]string{
		"nombres":         "nombres",
		"apellidos":       "apellidos",
		"numeroDocumento": "numero_documento",
		"createdAt":       "created_at",
	}, "created_at")

	query := fmt.Sprintf("SELECT %s FROM participantes%s ORDER BY %s LIMIT %d OFFSET %d", participanteColumns, cond.where(), order, size, offset)
	items := []models.Participante{}
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list participantes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM participantes"+cond.where(), cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count participantes: %w", err)
	}
	return items, total, nil
}

// FindByID returns a participant by id.
func (r *ParticipanteRepository) FindByID(ctx context.Context, id string) (*models.Participante, error) {
	query := `SELECT ` + participanteColumns + ` FROM participantes WHERE id = $1 LIMIT 1`
	var p models.Participante
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find participante: %w", err)
	}
	return &p, nil
}

// ExistsByEmail checks whether the email belongs to another participant.
func (r *ParticipanteRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM participantes WHERE LOWER(email) = LOWER($1) AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check participante email: %w", err)
	}
	return exists, nil
}

// ExistsByDocumento checks whether the document number belongs to another participant.
func (r *ParticipanteRepository) ExistsByDocumento(ctx context.Context, numero, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM participantes WHERE numero_documento = $1 AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, numero, excludeID); err != nil {
		return false, fmt.Errorf("check participante documento: %w", err)
	}
	return exists, nil
}

// Create inserts a new participant.
func (r *ParticipanteRepository) Create(ctx context.Context, p *models.Participante) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	const query = `INSERT INTO participantes (id, nombres, apellidos, tipo_documento, numero_documento, email, telefono, empresa, cargo, created_at, updated_at)
VALUES (:id, :nombres, :apellidos, :tipo_documento, :numero_documento, :email, :telefono, :empresa, :cargo, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create participante: %w", asDuplicate(err))
	}
	return nil
}

// Update modifies an existing participant.
func (r *ParticipanteRepository) Update(ctx context.Context, p *models.Participante) error {
	p.UpdatedAt = time.Now().UTC()
	const query = `UPDATE participantes SET nombres = :nombres, apellidos = :apellidos, tipo_documento = :tipo_documento,
numero_documento = :numero_documento, email = :email, telefono = :telefono, empresa = :empresa, cargo = :cargo,
updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("update participante: %w", asDuplicate(err))
	}
	return affectedOne(res)
}

// Delete removes a participant and releases the seats their enrollments held,
// all in one transaction. Enrollment rows cascade with the participant.
func (r *ParticipanteRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin participante delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const releaseQuery = `UPDATE cursos SET cupo_actual = GREATEST(cupo_actual - 1, 0), updated_at = $2
WHERE id IN (SELECT curso_id FROM inscripciones WHERE participante_id = $1)`
	if _, err = tx.ExecContext(ctx, releaseQuery, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("release participante seats: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM participantes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete participante: %w", err)
	}
	if err = affectedOne(res); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit participante delete: %w", err)
	}
	return nil
}
