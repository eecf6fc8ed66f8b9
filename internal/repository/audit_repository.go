package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
)

// AuditRepository appends and reads audit_logs rows. Rows are never updated.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create stores an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, action, user_id, entity, entity_id, details, ip_address, user_agent, success, error_message, created_at)
VALUES (:id, :action, :user_id, :entity, :entity_id, :details, :ip_address, :user_agent, :success, :error_message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries first, joined with the actor email.
func (r *AuditRepository) ListRecent(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var cond conditions
	if filter.Action != nil {
		cond.add("a.action = ?", *filter.Action)
	}
	query := fmt.Sprintf(`SELECT a.id, a.action, a.user_id, u.email AS user_email, a.entity, a.entity_id, a.details,
a.ip_address, a.user_agent, a.success, a.error_message, a.created_at
FROM audit_logs a
LEFT JOIN users u ON u.id = a.user_id%s
ORDER BY a.created_at DESC
LIMIT %d`, cond.where(), limit)

	logs := []models.AuditLog{}
	if err := r.db.SelectContext(ctx, &logs, query, cond.args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

// CountByAction aggregates entries created at or after since.
func (r *AuditRepository) CountByAction(ctx context.Context, since time.Time) ([]models.AuditActionCount, error) {
	const query = `SELECT action, COUNT(*) AS total, COUNT(*) FILTER (WHERE NOT success) AS failed
FROM audit_logs
WHERE created_at >= $1
GROUP BY action
ORDER BY total DESC, action`
	counts := []models.AuditActionCount{}
	if err := r.db.SelectContext(ctx, &counts, query, since); err != nil {
		return nil, fmt.Errorf("count audit logs: %w", err)
	}
	return counts, nil
}
