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

const solicitudColumns = `id, nombre, email, telefono, empresa, curso_id, mensaje, estado, notas, created_at, updated_at`

// SolicitudRepository provides database access for inbound leads.
type SolicitudRepository struct {
	db *sqlx.DB
}

// NewSolicitudRepository constructs a SolicitudRepository.
func NewSolicitudRepository(db *sqlx.DB) *SolicitudRepository {
	return &SolicitudRepository{db: db}
}

// List returns leads matching the filter along with the total count.
func (r *SolicitudRepository) List(ctx context.Context, filter models.SolicitudFilter) ([]models.Solicitud, int, error) {
	var cond conditions
	if filter.Estado != nil {
		cond.add("estado = ?", *filter.Estado)
	}
	if filter.CursoID != "" {
		cond.add("curso_id = ?", filter.CursoID)
	}
	cond.search(filter.Search, "nombre", "email", "empresa")

	_, size, offset := page(filter.ListQuery)
	order := orderBy(filter.ListQuery, map[string]string{
		"nombre":    "nombre",
		"estado":    "estado",
		"createdAt": "created_at",
	}, "created_at")

	query := fmt.Sprintf("SELECT %s FROM solicitudes%s ORDER BY %s LIMIT %d OFFSET %d", solicitudColumns, cond.where(), order, size, offset)
	items := []models.Solicitud{}
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list solicitudes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM solicitudes"+cond.where(), cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count solicitudes: %w", err)
	}
	return items, total, nil
}

// FindByID returns a lead by id.
func (r *SolicitudRepository) FindByID(ctx context.Context, id string) (*models.Solicitud, error) {
	query := `SELECT ` + solicitudColumns + ` FROM solicitudes WHERE id = $1 LIMIT 1`
	var s models.Solicitud
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find solicitud: %w", err)
	}
	return &s, nil
}

// Create inserts a new lead.
func (r *SolicitudRepository) Create(ctx context.Context, s *models.Solicitud) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	const query = `INSERT INTO solicitudes (id, nombre, email, telefono, empresa, curso_id, mensaje, estado, notas, created_at, updated_at)
VALUES (:id, :nombre, :email, :telefono, :empresa, :curso_id, :mensaje, :estado, :notas, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create solicitud: %w", err)
	}
	return nil
}

// Update changes follow-up fields of a lead.
func (r *SolicitudRepository) Update(ctx context.Context, s *models.Solicitud) error {
	s.UpdatedAt = time.Now().UTC()
	const query = `UPDATE solicitudes SET nombre = :nombre, email = :email, telefono = :telefono, empresa = :empresa,
curso_id = :curso_id, mensaje = :mensaje, estado = :estado, notas = :notas, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("update solicitud: %w", err)
	}
	return affectedOne(res)
}

// Delete removes a lead.
func (r *SolicitudRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM solicitudes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete solicitud: %w", err)
	}
	return affectedOne(res)
}
