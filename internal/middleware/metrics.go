package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lead-insights-api/internal/service"
)

// probeRoutes are scraped or polled by infrastructure and would drown the API series.
var probeRoutes = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
	"/ready":   {},
}

// Metrics records request count and latency per route template. Requests that match no
// route share the "unmatched" label so scanners cannot explode label cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, probe := probeRoutes[route]; metricsSvc == nil || probe {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
