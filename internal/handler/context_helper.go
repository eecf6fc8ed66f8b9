package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/middleware"
	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/pkg/response"
	"github.com/cefib-pe/cefib-admin-api/pkg/validation"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// listQuery reads the paging and sorting parameters shared by list endpoints.
func listQuery(c *gin.Context) models.ListQuery {
	q := models.ListQuery{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		q.PageSize = size
	}
	return q
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, validation.BindError(err))
		return false
	}
	return true
}

// enumQuery returns the upper-cased query value, or "" when absent.
func enumQuery(c *gin.Context, key string) string {
	return strings.ToUpper(strings.TrimSpace(c.Query(key)))
}
