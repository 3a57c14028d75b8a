package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := New()
	m.BillChanges.WithLabelValues("create", "food").Add(2)
	m.ObserveHTTP("GET", "/bills", 200, 15*time.Millisecond)

	if got := testutil.ToFloat64(m.BillChanges.WithLabelValues("create", "food")); got != 2 {
		t.Fatalf("bill changes = %v, want 2", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`bills_changes_total{label="food",operation="create"} 2`,
		`bills_http_requests_total{method="GET",route="/bills",status="200"} 1`,
		`bills_http_request_duration_seconds_count{route="/bills"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("missing %q in exposition", want)
		}
	}
}

func TestResult(t *testing.T) {
	if Result(nil) != "ok" || Result(errors.New("x")) != "error" {
		t.Fatal("unexpected result labels")
	}
}
