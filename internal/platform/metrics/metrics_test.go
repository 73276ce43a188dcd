package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCountsRequestsAndRateLimits(t *testing.T) {
	c := New()
	c.Record(http.MethodGet, "/api/v1/periods", http.StatusOK, 20*time.Millisecond)
	c.Record(http.MethodGet, "/api/v1/periods", http.StatusOK, 10*time.Millisecond)
	c.Record(http.MethodPost, "/api/v1/plans", http.StatusTooManyRequests, time.Millisecond)

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues(http.MethodGet, "/api/v1/periods", "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(c.rateLimited); got != 1 {
		t.Fatalf("expected 1 rate limited request, got %v", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Record(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	c.RecordJob("results_recompute_period", "completed")
	c.RecordPlanGeneration("ai")
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.RecordJob("results_recompute_period", "completed")
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "perfeval_job_runs_total") {
		t.Fatalf("expected job metric in output, got %s", rec.Body.String())
	}
}
