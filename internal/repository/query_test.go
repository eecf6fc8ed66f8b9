package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
)

func TestPageBounds(t *testing.T) {
	p, size, offset := page(models.ListQuery{})
	assert.Equal(t, []int{1, 20, 0}, []int{p, size, offset})

	p, size, offset = page(models.ListQuery{Page: 3, PageSize: 500})
	assert.Equal(t, []int{3, 100, 200}, []int{p, size, offset})
}

func TestOrderByAllowList(t *testing.T) {
	allowed := map[string]string{"titulo": "titulo"}
	assert.Equal(t, "titulo ASC", orderBy(models.ListQuery{SortBy: "titulo", SortOrder: "asc"}, allowed, "created_at"))
	assert.Equal(t, "created_at DESC", orderBy(models.ListQuery{SortBy: "1; DROP TABLE cursos", SortOrder: "sideways"}, allowed, "created_at"))
}

func TestConditionsNumbering(t *testing.T) {
	var cond conditions
	cond.add("estado = ?", "PUBLICADO")
	cond.search("Gestión", "titulo", "categoria")
	assert.Equal(t, " WHERE estado = $1 AND (LOWER(titulo) LIKE $2 OR LOWER(categoria) LIKE $2)", cond.where())
	assert.Equal(t, []interface{}{"PUBLICADO", "%gestión%"}, cond.args)
}
