package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/middleware"
	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/service"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
	"github.com/cefib-pe/cefib-admin-api/pkg/response"
)

type catalogService interface {
	List(ctx context.Context, q service.CatalogQuery) (*service.CatalogPage, bool, error)
	GetBySlug(ctx context.Context, slug string) (*models.Curso, bool, error)
}

// CatalogHandler serves the public course catalog.
type CatalogHandler struct {
	catalog catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List godoc
// @Summary Published courses
// @Tags Catalogo
// @Produce json
// @Param categoria query string false "Category"
// @Param modalidad query string false "PRESENCIAL, VIRTUAL or HIBRIDO"
// @Param search query string false "Search by title or description"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /public/cursos [get]
func (h *CatalogHandler) List(c *gin.Context) {
	q := service.CatalogQuery{
		Categoria: strings.TrimSpace(c.Query("categoria")),
		Search:    strings.TrimSpace(c.Query("search")),
	}
	if modalidad := enumQuery(c, "modalidad"); modalidad != "" {
		value := models.Modalidad(modalidad)
		switch value {
		case models.ModalidadPresencial, models.ModalidadVirtual, models.ModalidadHibrido:
			q.Modalidad = &value
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "modalidad inválida"))
			return
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		q.PageSize = size
	}

	page, hit, err := h.catalog.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Published course by slug
// @Tags Catalogo
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/cursos/{slug} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	curso, hit, err := h.catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, curso, nil, middleware.ResponseMeta(c))
}
