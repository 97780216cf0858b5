package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	opsReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkguard_ops_http_requests_total",
			Help: "Requests served by the ops endpoint.",
		},
		[]string{"method", "path", "status"},
	)

	opsLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkguard_ops_http_request_duration_seconds",
			Help:    "Latency of ops endpoint requests.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(opsReqs, opsLat)
}

// Metrics counts ops requests and observes their latency, labelled by the
// matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := routeOf(c)
		method := c.Request.Method
		opsReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		opsLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
