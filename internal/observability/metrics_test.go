package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/signalsfoundry/los-sampler/model"
)

func newTestCollector(t *testing.T) (*SamplerCollector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	collector, err := NewSamplerCollector(reg)
	if err != nil {
		t.Fatalf("NewSamplerCollector: %v", err)
	}
	return collector, reg
}

func TestObserveTickUpdatesSegmentGauges(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.ObserveTick(model.AnimationState{Segment: 2, Frame: 30}, 120)
	collector.ObserveTick(model.AnimationState{Segment: 2, Frame: 31}, 120)

	if got := testutil.ToFloat64(collector.Ticks); got != 2 {
		t.Fatalf("los_ticks_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.SegmentIndex); got != 2 {
		t.Fatalf("los_segment_index = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.SegmentProgress); got != 31.0/120.0 {
		t.Fatalf("los_segment_progress = %v, want %v", got, 31.0/120.0)
	}
}

func TestVisibilityGaugeIsOneHot(t *testing.T) {
	collector, _ := newTestCollector(t)

	if got := testutil.ToFloat64(collector.VisibilityState.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("initial unknown gauge = %v, want 1", got)
	}

	collector.ObserveTransition(model.VisibilityObstructed)
	collector.ObserveTransition(model.VisibilityVisible)

	want := map[string]float64{"unknown": 0, "visible": 1, "obstructed": 0}
	for state, value := range want {
		if got := testutil.ToFloat64(collector.VisibilityState.WithLabelValues(state)); got != value {
			t.Fatalf("los_visibility_state{state=%q} = %v, want %v", state, got, value)
		}
	}
	if got := testutil.ToFloat64(collector.VisibilityTransitions.WithLabelValues("obstructed")); got != 1 {
		t.Fatalf("transitions to obstructed = %v, want 1", got)
	}
}

func TestObserveOracleCountsErrors(t *testing.T) {
	collector, reg := newTestCollector(t)

	collector.ObserveOracle(model.VisibilityVisible, time.Millisecond, nil)
	collector.ObserveOracle(model.VisibilityUnknown, time.Millisecond, errors.New("scene not loaded"))

	if got := testutil.ToFloat64(collector.OracleEvaluations.WithLabelValues("visible")); got != 1 {
		t.Fatalf("visible evaluations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.OracleEvaluations.WithLabelValues("error")); got != 1 {
		t.Fatalf("error evaluations = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "los_oracle_duration_seconds", nil); count != 2 {
		t.Fatalf("los_oracle_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *SamplerCollector
	c.ObserveTick(model.AnimationState{}, 10)
	c.ObserveTransition(model.VisibilityVisible)
	c.ObserveOracle(model.VisibilityVisible, time.Millisecond, nil)
	c.IncPublishErrors("status")
}

func TestCollectorReusesExistingRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSamplerCollector(reg)
	if err != nil {
		t.Fatalf("first NewSamplerCollector: %v", err)
	}
	second, err := NewSamplerCollector(reg)
	if err != nil {
		t.Fatalf("second NewSamplerCollector: %v", err)
	}

	first.Ticks.Inc()
	if got := testutil.ToFloat64(second.Ticks); got != 1 {
		t.Fatalf("second collector ticks = %v, want shared counter value 1", got)
	}
}

func TestRegisterRejectsConflictingDescriptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "los_ticks_total",
		Help: "Something else entirely.",
	}, []string{"source"}), "los_ticks_total"); err != nil {
		t.Fatalf("register conflicting counter: %v", err)
	}
	if _, err := NewSamplerCollector(reg); err == nil {
		t.Fatalf("expected error when los_ticks_total is already registered with other labels")
	}
}

func TestMetricsHandlerExposesSamplerMetrics(t *testing.T) {
	collector, _ := newTestCollector(t)
	collector.ObserveTick(model.AnimationState{Segment: 1, Frame: 3}, 10)
	collector.ObserveTransition(model.VisibilityVisible)
	collector.ObserveOracle(model.VisibilityVisible, time.Millisecond, nil)
	collector.IncPublishErrors("position")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"los_ticks_total",
		"los_segment_index",
		"los_segment_progress",
		"los_visibility_state",
		"los_visibility_transitions_total",
		"los_oracle_evaluations_total",
		"los_oracle_duration_seconds",
		"los_publish_errors_total",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
