package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"user-management-api/pkg/metrics"
)

func TestMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewHTTPMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(Metrics(m))
	r.PUT("/users/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	request(r, http.MethodPut, "/users/7", "10.0.0.1:1")
	request(r, http.MethodPut, "/users/8", "10.0.0.1:1")
	request(r, http.MethodGet, "/nowhere", "10.0.0.1:1")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodPut, "/users/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))
}
