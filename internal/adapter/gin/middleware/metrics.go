package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"user-management-api/pkg/metrics"
)

// Metrics records request count and latency labelled by route template, method and status.
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Observe(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
