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

const cursoColumns = `id, titulo, slug, descripcion, modalidad, categoria, duracion_horas, precio, fecha_inicio, fecha_fin,
cupo_maximo, cupo_actual, estado, docente_id, imagen_url, created_at, updated_at`

var cursoSorts = map[string]string{
	"titulo":      "titulo",
	"fechaInicio": "fecha_inicio",
	"precio":      "precio",
	"estado":      "estado",
	"createdAt":   "created_at",
}

// CursoRepository provides database access for courses.
type CursoRepository struct {
	db *sqlx.DB
}

// NewCursoRepository constructs a CursoRepository.
func NewCursoRepository(db *sqlx.DB) *CursoRepository {
	return &CursoRepository{db: db}
}

// List returns courses matching the filter with the total count.
func (r *CursoRepository) List(ctx context.Context, filter models.CursoFilter) ([]models.Curso, int, error) {
	var cond conditions
	if filter.Estado != nil {
		cond.add("estado = ?", *filter.Estado)
	}
	if filter.Modalidad != nil {
		cond.add("modalidad = ?", *filter.Modalidad)
	}
	if filter.Categoria != "" {
		cond.add("categoria = ?", filter.Categoria)
	}
	if filter.DocenteID != "" {
		cond.add("docente_id = ?", filter.DocenteID)
	}
	cond.search(filter.Search, "titulo", "categoria", "descripcion")

	_, size, offset := page(filter.ListQuery)
	order := orderBy(filter.ListQuery, cursoSorts, "created_at")

	query := fmt.Sprintf("SELECT %s FROM cursos%s ORDER BY %s LIMIT %d OFFSET %d", cursoColumns, cond.where(), order, size, offset)
	cursos := []models.Curso{}
	if err := r.db.SelectContext(ctx, &cursos, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list cursos: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM cursos"+cond.where(), cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count cursos: %w", err)
	}
	return cursos, total, nil
}

// FindByID returns a course by id.
func (r *CursoRepository) FindByID(ctx context.Context, id string) (*models.Curso, error) {
	return r.findOne(ctx, "id", id)
}

// FindBySlug returns a course by slug.
func (r *CursoRepository) FindBySlug(ctx context.Context, slug string) (*models.Curso, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *CursoRepository) findOne(ctx context.Context, column, value string) (*models.Curso, error) {
	query := fmt.Sprintf("SELECT %s FROM cursos WHERE %s = $1 LIMIT 1", cursoColumns, column)
	var curso models.Curso
	if err := r.db.GetContext(ctx, &curso, query, value); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find curso by %s: %w", column, err)
	}
	return &curso, nil
}

// ExistsBySlug checks whether another course already uses the slug.
func (r *CursoRepository) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM cursos WHERE slug = $1 AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug, excludeID); err != nil {
		return false, fmt.Errorf("check curso slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new course. cupo_actual always starts at zero.
func (r *CursoRepository) Create(ctx context.Context, curso *models.Curso) error {
	if curso.ID == "" {
		curso.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	curso.CreatedAt = now
	curso.UpdatedAt = now
	curso.CupoActual = 0

	const query = `INSERT INTO cursos (id, titulo, slug, descripcion, modalidad, categoria, duracion_horas, precio, fecha_inicio, fecha_fin,
cupo_maximo, cupo_actual, estado, docente_id, imagen_url, created_at, updated_at)
VALUES (:id, :titulo, :slug, :descripcion, :modalidad, :categoria, :duracion_horas, :precio, :fecha_inicio, :fecha_fin,
:cupo_maximo, :cupo_actual, :estado, :docente_id, :imagen_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, curso); err != nil {
		return fmt.Errorf("create curso: %w", asDuplicate(err))
	}
	return nil
}

// Update modifies an existing course. cupo_actual is owned by enrollments and
// is not written here.
func (r *CursoRepository) Update(ctx context.Context, curso *models.Curso) error {
	curso.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cursos SET titulo = :titulo, slug = :slug, descripcion = :descripcion, modalidad = :modalidad,
categoria = :categoria, duracion_horas = :duracion_horas, precio = :precio, fecha_inicio = :fecha_inicio,
fecha_fin = :fecha_fin, cupo_maximo = :cupo_maximo, estado = :estado, docente_id = :docente_id,
imagen_url = :imagen_url, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, curso)
	if err != nil {
		return fmt.Errorf("update curso: %w", asDuplicate(err))
	}
	return affectedOne(res)
}

// Delete removes a course; its enrollments cascade in the database.
func (r *CursoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cursos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete curso: %w", err)
	}
	return affectedOne(res)
}
