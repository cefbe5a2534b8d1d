package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paintersrp/warden/internal/metrics"
)

func scrape(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("unexpected status code from metrics handler: %d", rec.Code)
	}
	return rec.Body.String()
}

func TestRegistryExposesMetrics(t *testing.T) {
	metrics.EmitBuildInfo()
	metrics.SetCompanionOwned(true)
	metrics.RecordLaunch(metrics.LaunchFallback)
	metrics.RecordShutdown("menu_quit")
	metrics.ObserveProbe(3*time.Millisecond, false)

	body := scrape(t)
	for _, line := range []string{
		"warden_companion_owned 1",
		`warden_companion_launches_total{result="fallback"}`,
		`warden_shutdowns_total{trigger="menu_quit"}`,
		`warden_probe_latency_seconds_count{alive="false"}`,
		"warden_build_info{",
		"go_version=",
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected %q in metrics body:\n%s", line, body)
		}
	}

	metrics.SetCompanionOwned(false)
	if !strings.Contains(scrape(t), "warden_companion_owned 0") {
		t.Fatalf("expected owned gauge to reset")
	}
}

func TestRecordShutdownDefaultsTrigger(t *testing.T) {
	metrics.RecordShutdown("")
	if !strings.Contains(scrape(t), `warden_shutdowns_total{trigger="unknown"}`) {
		t.Fatalf("expected unknown trigger label")
	}
}
