package repository

import (
	"fmt"
	"strings"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// page normalises paging input and returns page, size and offset.
func page(q models.ListQuery) (int, int, int) {
	p := q.Page
	if p < 1 {
		p = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return p, size, (p - 1) * size
}

// orderBy resolves a client-supplied sort key against an allow-list of
// JSON names to columns. Unknown keys fall back to the default column.
func orderBy(q models.ListQuery, allowed map[string]string, fallback string) string {
	column, ok := allowed[q.SortBy]
	if !ok {
		column = fallback
	}
	order := strings.ToUpper(q.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return fmt.Sprintf("%s %s", column, order)
}

// conditions accumulates WHERE fragments with positional arguments.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(format string, value interface{}) {
	c.args = append(c.args, value)
	c.clauses = append(c.clauses, strings.ReplaceAll(format, "?", fmt.Sprintf("$%d", len(c.args))))
}

func (c *conditions) search(value string, columns ...string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE ?", column))
	}
	c.add("("+strings.Join(parts, " OR ")+")", "%"+strings.ToLower(value)+"%")
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}
