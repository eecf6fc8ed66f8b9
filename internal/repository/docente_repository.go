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

const docenteColumns = `id, nombres, apellidos, email, telefono, especialidad, biografia, foto_url, activo, created_at, updated_at`

// DocenteRepository provides database access for instructors.
type DocenteRepository struct {
	db *sqlx.DB
}

// NewDocenteRepository constructs a DocenteRepository.
func NewDocenteRepository(db *sqlx.DB) *DocenteRepository {
	return &DocenteRepository{db: db}
}

// List returns instructors matching the filter along with the total count.
func (r *DocenteRepository) List(ctx context.Context, filter models.DocenteFilter) ([]models.Docente, int, error) {
	var cond conditions
	if filter.Activo != nil {
		cond.add("activo = ?", *filter.Activo)
	}
	cond.search(filter.Search, "nombres", "apellidos", "email", "especialidad")

	_, size, offset := page(filter.ListQuery)
	order := orderBy(filter.ListQuery, map[string]string{
		"nombres":   "nombres",
		"apellidos": "apellidos",
		"email":     "email",
		"createdAt": "created_at",
	}, "apellidos")

	query := fmt.Sprintf("SELECT %s FROM docentes%s ORDER BY %s LIMIT %d OFFSET %d", docenteColumns, cond.where(), order, size, offset)
	docentes := []models.Docente{}
	if err := r.db.SelectContext(ctx, &docentes, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list docentes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM docentes"+cond.where(), cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count docentes: %w", err)
	}
	return docentes, total, nil
}

// FindByID returns an instructor by id.
func (r *DocenteRepository) FindByID(ctx context.Context, id string) (*models.Docente, error) {
	query := `SELECT ` + docenteColumns + ` FROM docentes WHERE id = $1 LIMIT 1`
	var docente models.Docente
	if err := r.db.GetContext(ctx, &docente, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find docente: %w", err)
	}
	return &docente, nil
}

// ExistsByEmail checks whether the email belongs to another instructor.
func (r *DocenteRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM docentes WHERE LOWER(email) = LOWER($1) AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check docente email: %w", err)
	}
	return exists, nil
}

// Create inserts a new instructor.
func (r *DocenteRepository) Create(ctx context.Context, docente *models.Docente) error {
	if docente.ID == "" {
		docente.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	docente.CreatedAt = now
	docente.UpdatedAt = now

	const query = `INSERT INTO docentes (id, nombres, apellidos, email, telefono, especialidad, biografia, foto_url, activo, created_at, updated_at)
VALUES (:id, :nombres, :apellidos, :email, :telefono, :especialidad, :biografia, :foto_url, :activo, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, docente); err != nil {
		return fmt.Errorf("create docente: %w", asDuplicate(err))
	}
	return nil
}

// Update modifies an existing instructor.
func (r *DocenteRepository) Update(ctx context.Context, docente *models.Docente) error {
	docente.UpdatedAt = time.Now().UTC()
	const query = `UPDATE docentes SET nombres = :nombres, apellidos = :apellidos, email = :email, telefono = :telefono,
especialidad = :especialidad, biografia = :biografia, foto_url = :foto_url, activo = :activo, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, docente)
	if err != nil {
		return fmt.Errorf("update docente: %w", asDuplicate(err))
	}
	return affectedOne(res)
}

// Delete removes an instructor. Courses keep existing with docente_id set to NULL.
func (r *DocenteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM docentes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete docente: %w", err)
	}
	return affectedOne(res)
}
