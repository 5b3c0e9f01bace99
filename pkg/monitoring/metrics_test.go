package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCollectorsAreIndependent(t *testing.T) {
	// Two collectors with the same service name must not collide.
	a := NewMetricsCollector("legend-board", "v1", "abc")
	b := NewMetricsCollector("legend-board", "v1", "abc")

	ca := a.NewCounter("things_total", "things", []string{"kind"})
	b.NewCounter("things_total", "things", []string{"kind"})
	ca.WithLabelValues("x").Inc()

	if got := testutil.ToFloat64(ca.WithLabelValues("x")); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}

func TestMetricsMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mc := NewMetricsCollector("legendboard", "v1", "abc")

	r := gin.New()
	r.Use(mc.MetricsMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", mc.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	if !strings.Contains(body, `legendboard_http_requests_total{endpoint="/ping",method="GET",status="200"} 1`) {
		t.Fatalf("expected request counter in output:\n%s", body)
	}
	if !strings.Contains(body, `legendboard_service_info{commit="abc",version="v1"} 1`) {
		t.Fatalf("expected service info in output")
	}
}
