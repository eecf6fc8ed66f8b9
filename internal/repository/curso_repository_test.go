package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
)

var cursoRowColumns = []string{"id", "titulo", "slug", "descripcion", "modalidad", "categoria", "duracion_horas", "precio",
	"fecha_inicio", "fecha_fin", "cupo_maximo", "cupo_actual", "estado", "docente_id", "imagen_url", "created_at", "updated_at"}

func TestCursoRepositoryListPublished(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCursoRepository(db)

	estado := models.CursoPublicado
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM cursos WHERE estado = $1 AND categoria = $2 ORDER BY fecha_inicio ASC LIMIT 20 OFFSET 0")).
		WithArgs(estado, "Gestión Pública").
		WillReturnRows(sqlmock.NewRows(cursoRowColumns).
			AddRow("curso-1", "SIAF", "siaf", "desc", "VIRTUAL", "Gestión Pública", 24, 350.0, now, now, 30, 12, "PUBLICADO", nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cursos WHERE estado = $1 AND categoria = $2")).
		WithArgs(estado, "Gestión Pública").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	cursos, total, err := repo.List(context.Background(), models.CursoFilter{
		ListQuery: models.ListQuery{SortBy: "fechaInicio", SortOrder: "asc"},
		Estado:    &estado,
		Categoria: "Gestión Pública",
	})
	require.NoError(t, err)
	require.Len(t, cursos, 1)
	assert.Equal(t, 12, cursos[0].CupoActual)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCursoRepositoryCreateDuplicateSlug(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCursoRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cursos")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "cursos_slug_key"})

	err := repo.Create(context.Background(), &models.Curso{Titulo: "SIAF", Slug: "siaf"})
	dup, ok := IsDuplicate(err)
	require.True(t, ok)
	assert.Equal(t, "slug", dup.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCursoRepositoryExistsBySlug(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCursoRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM cursos WHERE slug = $1")).
		WithArgs("siaf", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsBySlug(context.Background(), "siaf", "")
	require.NoError(t, err)
	assert.True(t, exists)
}
