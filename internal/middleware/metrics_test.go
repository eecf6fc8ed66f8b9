package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	"github.com/cefib-pe/cefib-admin-api/internal/service"
)

func gathered(t *testing.T, metrics *service.MetricsService) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		out[family.GetName()] = family
	}
	return out
}

func TestMetricsCountsRequestsAndDenials(t *testing.T) {
	metrics := service.NewMetricsService()
	guard := NewGuard(guardTokens, &captureAudit{})

	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/cursos/:id", guard.Require(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cursos/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/no-such-route", nil))

	families := gathered(t, metrics)
	require.Contains(t, families, "http_requests_total")
	assert.Len(t, families["http_requests_total"].GetMetric(), 2)

	require.Contains(t, families, "auth_access_denied_total")
	denied := families["auth_access_denied_total"].GetMetric()
	require.Len(t, denied, 1)
	assert.Equal(t, float64(1), denied[0].GetCounter().GetValue())

	require.Contains(t, families, "http_requests_in_flight")
	assert.Equal(t, float64(0), families["http_requests_in_flight"].GetMetric()[0].GetGauge().GetValue())
}

func TestMetricsNilServiceIsPassThrough(t *testing.T) {
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
