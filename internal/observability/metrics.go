package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/los-sampler/model"
)

// SamplerCollector bundles Prometheus metrics for the moving-target
// visibility sampler.
type SamplerCollector struct {
	gatherer prometheus.Gatherer

	Ticks           prometheus.Counter
	SegmentIndex    prometheus.Gauge
	SegmentProgress prometheus.Gauge

	VisibilityState       *prometheus.GaugeVec
	VisibilityTransitions *prometheus.CounterVec

	OracleEvaluations *prometheus.CounterVec
	OracleDuration    prometheus.Histogram

	PublishErrors *prometheus.CounterVec
}

// NewSamplerCollector registers sampler metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSamplerCollector(reg prometheus.Registerer) (*SamplerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "los_ticks_total",
		Help: "Frames advanced by the path animator.",
	}), "los_ticks_total")
	if err != nil {
		return nil, err
	}
	segment, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "los_segment_index",
		Help: "Index of the loop segment currently traversed by the target.",
	}), "los_segment_index")
	if err != nil {
		return nil, err
	}
	progress, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "los_segment_progress",
		Help: "Fraction of the current segment already traversed, in [0, 1).",
	}), "los_segment_progress")
	if err != nil {
		return nil, err
	}

	state, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "los_visibility_state",
		Help: "1 for the current visibility state of the target, 0 otherwise.",
	}, []string{"state"}), "los_visibility_state")
	if err != nil {
		return nil, err
	}
	transitions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "los_visibility_transitions_total",
		Help: "Visibility changes delivered to the observer, labeled by new state.",
	}, []string{"to"}), "los_visibility_transitions_total")
	if err != nil {
		return nil, err
	}

	evaluations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "los_oracle_evaluations_total",
		Help: "Occlusion oracle evaluations, labeled by verdict or error.",
	}, []string{"result"}), "los_oracle_evaluations_total")
	if err != nil {
		return nil, err
	}
	oracleDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "los_oracle_duration_seconds",
		Help:    "Time spent in one occlusion oracle evaluation.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	}), "los_oracle_duration_seconds")
	if err != nil {
		return nil, err
	}

	publishErrors, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "los_publish_errors_total",
		Help: "Failed publishes to downstream consumers, labeled by message kind.",
	}, []string{"kind"}), "los_publish_errors_total")
	if err != nil {
		return nil, err
	}

	c := &SamplerCollector{
		gatherer:              gatherer,
		Ticks:                 ticks,
		SegmentIndex:          segment,
		SegmentProgress:       progress,
		VisibilityState:       state,
		VisibilityTransitions: transitions,
		OracleEvaluations:     evaluations,
		OracleDuration:        oracleDuration,
		PublishErrors:         publishErrors,
	}
	c.setVisibility(model.VisibilityUnknown)
	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SamplerCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTick records one animator frame and the state it produced.
func (c *SamplerCollector) ObserveTick(state model.AnimationState, framesPerSegment int) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.SegmentIndex.Set(float64(state.Segment))
	c.SegmentProgress.Set(state.Fraction(framesPerSegment))
}

// ObserveTransition records a delivered visibility change.
func (c *SamplerCollector) ObserveTransition(to model.VisibilityState) {
	if c == nil {
		return
	}
	c.VisibilityTransitions.WithLabelValues(to.String()).Inc()
	c.setVisibility(to)
}

// ObserveOracle records one oracle evaluation. A non-nil err is counted
// under the "error" result.
func (c *SamplerCollector) ObserveOracle(verdict model.VisibilityState, d time.Duration, err error) {
	if c == nil {
		return
	}
	result := verdict.String()
	if err != nil {
		result = "error"
	}
	c.OracleEvaluations.WithLabelValues(result).Inc()
	c.OracleDuration.Observe(d.Seconds())
}

// IncPublishErrors counts a failed publish of the given message kind.
func (c *SamplerCollector) IncPublishErrors(kind string) {
	if c == nil {
		return
	}
	c.PublishErrors.WithLabelValues(kind).Inc()
}

func (c *SamplerCollector) setVisibility(current model.VisibilityState) {
	for _, v := range model.AllVisibilityStates() {
		value := 0.0
		if v == current {
			value = 1
		}
		c.VisibilityState.WithLabelValues(v.String()).Set(value)
	}
}
