package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
)

// DashboardRepository computes back office counters in one round trip.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Summary returns the current counters.
func (r *DashboardRepository) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM cursos) AS cursos,
	(SELECT COUNT(*) FROM cursos WHERE estado = 'PUBLICADO') AS cursos_publicados,
	(SELECT COUNT(*) FROM docentes) AS docentes,
	(SELECT COUNT(*) FROM participantes) AS participantes,
	(SELECT COUNT(*) FROM inscripciones) AS inscripciones,
	(SELECT COUNT(*) FROM inscripciones WHERE estado = 'CONFIRMADA') AS inscripciones_confirmadas,
	(SELECT COUNT(*) FROM solicitudes) AS solicitudes,
	(SELECT COUNT(*) FROM solicitudes WHERE estado = 'NUEVA') AS solicitudes_nuevas`
	var summary models.DashboardSummary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	return &summary, nil
}
