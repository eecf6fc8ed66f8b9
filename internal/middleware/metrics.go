package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cefib-pe/cefib-admin-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route template. Unmatched
// routes share one label so scanners cannot blow up label cardinality.
// Rejections by the session guard or the CSRF check are counted separately so
// role-gating misconfigurations show up on the dashboard.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		release := metricsSvc.TrackInFlight()
		defer release()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		status := c.Writer.Status()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, time.Since(start))
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			metricsSvc.RecordAccessDenied(path, status)
		}
	}
}
