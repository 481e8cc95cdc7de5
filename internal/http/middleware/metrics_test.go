package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersInflightAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/offers/:id", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/statusonly", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/offers/:id", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404"))

	for _, p := range []string{"/offers/o-1", "/offers/o-2", "/does-not-exist", "/statusonly"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/offers/:id", "200")); got != baseOK+2 {
		t.Fatalf("route counter = %v; want %v", got, baseOK+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404")); got != base404+1 {
		t.Fatalf("404 fallback counter = %v; want %v", got, base404+1)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestObserveWorkflow(t *testing.T) {
	okBase := testutil.ToFloat64(workflowResults.WithLabelValues("expand", "ok"))
	errBase := testutil.ToFloat64(workflowResults.WithLabelValues("evolve", "malformed_output"))

	ObserveWorkflow("expand", "")
	ObserveWorkflow("evolve", "malformed_output")

	if got := testutil.ToFloat64(workflowResults.WithLabelValues("expand", "ok")); got != okBase+1 {
		t.Fatalf("ok counter = %v", got)
	}
	if got := testutil.ToFloat64(workflowResults.WithLabelValues("evolve", "malformed_output")); got != errBase+1 {
		t.Fatalf("error counter = %v", got)
	}
}
