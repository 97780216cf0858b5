package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hello") })

	baseOK := testutil.ToFloat64(opsReqs.WithLabelValues("GET", "/ok", "200"))
	base404 := testutil.ToFloat64(opsReqs.WithLabelValues("GET", "unmatched", "404"))

	for _, target := range []string{"/ok", "/random-a", "/random-b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	if got := testutil.ToFloat64(opsReqs.WithLabelValues("GET", "/ok", "200")); got != baseOK+1 {
		t.Fatalf("counter /ok 200 = %v; want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(opsReqs.WithLabelValues("GET", "unmatched", "404")); got != base404+2 {
		t.Fatalf("unmatched counter = %v; want %v", got, base404+2)
	}
}
