package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	r := New()

	r.ReflowDuration.Observe(0.01)
	r.PortOpsInFlight.Inc()
	r.ReflowsTotal.WithLabelValues("ok").Inc()

	if got := testutil.ToFloat64(r.PortOpsInFlight); got != 1 {
		t.Fatalf("PortOpsInFlight = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.ReflowsTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ReflowsTotal{outcome=ok} = %v, want 1", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	r := New()
	r.ReflowsTotal.WithLabelValues("error").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "windesk_engine_reflows_total") {
		t.Fatal("response body missing windesk_engine_reflows_total")
	}
}
