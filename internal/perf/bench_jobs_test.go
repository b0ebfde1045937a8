package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/aegis-iam/aegis/internal/jobs"
)

func TestJobThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	// Simulate retention sweeps finishing fast and mostly successful.
	for i := 0; i < 60; i++ {
		tracker := metrics.Track("authz:audit_retention")
		time.Sleep(2 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending retention tracker: %v", err)
		}
	}

	// Integrity scans are slower but stay within the 2s budget.
	for i := 0; i < 15; i++ {
		tracker := metrics.Track("authz:catalog_integrity")
		time.Sleep(8 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending integrity tracker: %v", err)
		}
	}

	// Inject a couple of failures to ensure alerts fire correctly.
	for i := 0; i < 3; i++ {
		tracker := metrics.Track("authz:audit_retention")
		time.Sleep(3 * time.Millisecond)
		if err := tracker.End(errors.New("timeout")); err == nil {
			t.Fatal("expected error to propagate")
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "aegis_jobs_total", map[string]string{"job": "authz:audit_retention", "status": "success"})
	failure := metricValue(t, families, "aegis_jobs_total", map[string]string{"job": "authz:audit_retention", "status": "failure"})
	if success+failure == 0 {
		t.Fatal("no retention executions recorded")
	}
	ratio := success / (success + failure)
	if ratio < 0.9 {
		t.Fatalf("retention success ratio too low: %f", ratio)
	}

	integrityDuration := histogramMean(t, families, "aegis_job_duration_seconds", map[string]string{"job": "authz:catalog_integrity"})
	if integrityDuration > 2.0 {
		t.Fatalf("integrity scan duration above budget: %f", integrityDuration)
	}

	retentionDuration := histogramMean(t, families, "aegis_job_duration_seconds", map[string]string{"job": "authz:audit_retention"})
	if retentionDuration > 0.5 {
		t.Fatalf("retention duration above budget: %f", retentionDuration)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
		}
	}
	for key := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
