package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
)

type catalogRepository interface {
	List(ctx context.Context, filter models.CursoFilter) ([]models.Curso, int, error)
	FindBySlug(ctx context.Context, slug string) (*models.Curso, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// CatalogQuery filters the public course listing.
type CatalogQuery struct {
	Categoria string
	Modalidad *models.Modalidad
	Search    string
	Page      int
	PageSize  int
}

// CatalogPage is one page of published courses.
type CatalogPage struct {
	Items      []models.Curso    `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// CatalogService serves the public catalog, read-through cached.
type CatalogService struct {
	repo   catalogRepository
	cache  cacheStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService constructs a CatalogService. A nil cache disables caching.
func NewCatalogService(repo catalogRepository, cache cacheStore, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns published courses and whether the page came from cache.
func (s *CatalogService) List(ctx context.Context, q CatalogQuery) (*CatalogPage, bool, error) {
	filter := models.CursoFilter{
		ListQuery: models.ListQuery{Search: q.Search, Page: q.Page, PageSize: q.PageSize, SortBy: "fechaInicio", SortOrder: "asc"},
		Categoria: strings.TrimSpace(q.Categoria),
		Modalidad: q.Modalidad,
	}
	normalizePaging(&filter.ListQuery)
	estado := models.CursoPublicado
	filter.Estado = &estado

	modalidad := ""
	if q.Modalidad != nil {
		modalidad = string(*q.Modalidad)
	}
	key := makeCatalogCacheKey("list", filter.Categoria, modalidad, strings.ToLower(filter.Search),
		strconv.Itoa(filter.Page), strconv.Itoa(filter.PageSize))

	var cached CatalogPage
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	cursos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, false, internalError(err, "no se pudo cargar el catálogo")
	}
	page := &CatalogPage{Items: cursos, Pagination: *pagination(filter.ListQuery, total)}
	if page.Items == nil {
		page.Items = []models.Curso{}
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, page, s.ttl)
	}
	return page, false, nil
}

// GetBySlug returns a published course. Drafts and unknown slugs are 404.
func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*models.Curso, bool, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	key := makeCatalogCacheKey("slug", slug)

	var cached models.Curso
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	curso, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, false, lookupError(err, "curso no encontrado", "no se pudo cargar el curso")
	}
	if curso.Estado != models.CursoPublicado {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "curso no encontrado")
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, curso, s.ttl)
	}
	return curso, false, nil
}

func makeCatalogCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.WriteString(CacheKeyCatalog)
	for i, part := range parts {
		if i > 0 {
			builder.WriteByte(':')
		}
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
