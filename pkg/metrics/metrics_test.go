package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.ObserveWebhook(ResultDispatched)
	m.ObserveWebhook(ResultDispatched)
	m.ObserveRun("delivered", "", 1500*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`charitybot_webhook_requests_total{result="dispatched"} 2`,
		`charitybot_pipeline_runs_total{error_kind="",outcome="delivered"} 1`,
		`charitybot_pipeline_duration_seconds_count 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, out)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveWebhook(ResultIgnored)
	m.ObserveRun("delivered", "", time.Second)
}
