package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRoute(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/recipe/:id", func(c *gin.Context) {
		if testutil.ToFloat64(httpInflight) != 1 {
			t.Errorf("expected one in-flight request, got %v", testutil.ToFloat64(httpInflight))
		}
		c.Status(http.StatusOK)
	})

	before := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/recipe/:id", "200"))
	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/recipe/"+id, nil))
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/recipe/:id", "200"))
	if after-before != 3 {
		t.Errorf("expected 3 requests counted under the route pattern, got %v", after-before)
	}
	if testutil.ToFloat64(httpInflight) != 0 {
		t.Errorf("expected no in-flight requests, got %v", testutil.ToFloat64(httpInflight))
	}
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())

	before := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "unmatched", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/does/not/exist", nil))

	after := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "unmatched", "404"))
	if after-before != 1 {
		t.Errorf("expected unmatched request to be counted once, got %v", after-before)
	}
}
