package observability

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/signalsfoundry/rfsim/rfnet"
)

func firstHistogram(mfs []*dto.MetricFamily, name string) *dto.Histogram {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if h := m.GetHistogram(); h != nil {
				return h
			}
		}
	}
	return nil
}

func TestObserveResolveRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewResolverCollector(reg)
	if err != nil {
		t.Fatalf("NewResolverCollector: %v", err)
	}

	collector.ObserveResolve(rfnet.Result{Passes: 2, Residual: 0}, nil)
	collector.ObserveResolve(rfnet.Result{Passes: 64, Residual: 3.5},
		fmt.Errorf("wrapped: %w", rfnet.ErrNoConvergence))

	if got := testutil.ToFloat64(collector.Resolves.WithLabelValues("ok")); got != 1 {
		t.Fatalf("rfsim_resolves_total{outcome=ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Resolves.WithLabelValues("no_convergence")); got != 1 {
		t.Fatalf("rfsim_resolves_total{outcome=no_convergence} = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "rfsim_resolve_passes"); count != 2 {
		t.Fatalf("rfsim_resolve_passes sample_count = %d, want 2", count)
	}
}

func TestCollectorRegistersIdempotently(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewResolverCollector(reg); err != nil {
		t.Fatalf("first NewResolverCollector: %v", err)
	}
	if _, err := NewResolverCollector(reg); err != nil {
		t.Fatalf("second NewResolverCollector: %v", err)
	}
}

func TestMetricsHandlerExposesTopologyGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewResolverCollector(reg)
	if err != nil {
		t.Fatalf("NewResolverCollector: %v", err)
	}
	collector.SetTopologySize(4, 3)
	collector.ObserveResolve(rfnet.Result{Passes: 2}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"rfsim_resolves_total",
		"rfsim_resolve_passes",
		"rfsim_topology_components",
		"rfsim_topology_nets",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if h := firstHistogram(metrics, name); h != nil {
		return h.GetSampleCount()
	}
	return 0
}
