package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"privacyviz/redactor/pkg/config"
	"privacyviz/redactor/pkg/redaction/filter"
	"privacyviz/redactor/pkg/redaction/retention"
)

var (
	_ retention.Metrics = (*Collector)(nil)
	_ filter.Metrics    = (*Collector)(nil)
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "redactor",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_NewCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, nil)

	if cfg.Namespace != "privacyviz" || cfg.Subsystem != "redactor" {
		t.Errorf("defaults not applied: namespace=%q subsystem=%q", cfg.Namespace, cfg.Subsystem)
	}
}

func TestCollector_RecordRun(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordRun("success", 3*time.Second)
	collector.RecordRun("success", 4*time.Second)
	collector.RecordRun("error", time.Second)

	jm := collector.jobMetrics
	if got := testutil.ToFloat64(jm.runsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("success runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(jm.runsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(jm.runDuration); got != 1 {
		t.Errorf("run duration series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(jm.lastSuccess); got <= 0 {
		t.Errorf("last success timestamp = %v, want > 0", got)
	}
}

func TestCollector_RecordDeletion(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordDeletion("wifi", "time", 5)
	collector.RecordDeletion("wifi", "time", 0)
	collector.RecordDeletion("battery", "location", 2)

	jm := collector.jobMetrics
	tests := []struct {
		dataType, mode string
		intervals      float64
		deleted        float64
	}{
		{"wifi", "time", 2, 5},
		{"battery", "location", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			if got := testutil.ToFloat64(jm.intervalsTotal.WithLabelValues(tt.dataType, tt.mode)); got != tt.intervals {
				t.Errorf("intervals = %v, want %v", got, tt.intervals)
			}
			if got := testutil.ToFloat64(jm.deletedTotal.WithLabelValues(tt.dataType, tt.mode)); got != tt.deleted {
				t.Errorf("deleted = %v, want %v", got, tt.deleted)
			}
		})
	}
}

func TestCollector_RecordPolicyError(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordPolicyError("parse")
	collector.RecordPolicyError("missing")
	collector.RecordPolicyError("missing")

	if got := testutil.ToFloat64(collector.jobMetrics.policyErrsTotal.WithLabelValues("missing")); got != 2 {
		t.Errorf("missing = %v, want 2", got)
	}
}

func TestCollector_RecordFiltered(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordFiltered("wifi", "time", 3, 2)
	collector.RecordFiltered("wifi", "time", 1, 0)

	fm := collector.filterMetrics
	if got := testutil.ToFloat64(fm.recordsTotal.WithLabelValues("wifi", "time", "kept")); got != 4 {
		t.Errorf("kept = %v, want 4", got)
	}
	if got := testutil.ToFloat64(fm.recordsTotal.WithLabelValues("wifi", "time", "hidden")); got != 2 {
		t.Errorf("hidden = %v, want 2", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordRun("success", time.Second)
	collector.RecordDeletion("wifi", "time", 5)
	collector.RecordFiltered("wifi", "time", 1, 1)

	if got := testutil.CollectAndCount(collector.jobMetrics.runsTotal); got != 0 {
		t.Errorf("runs series = %d, want 0", got)
	}
	if got := testutil.CollectAndCount(collector.filterMetrics.recordsTotal); got != 0 {
		t.Errorf("filtered series = %d, want 0", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordDeletion("wifi", "time", 7)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := `test_redactor_records_deleted_total{data_type="wifi",mode="time"} 7`
	if !strings.Contains(string(body), want) {
		t.Errorf("response missing %q:\n%s", want, body)
	}
}
