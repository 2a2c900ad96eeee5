package sampler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/los-sampler/core"
	"github.com/signalsfoundry/los-sampler/internal/logging"
	"github.com/signalsfoundry/los-sampler/internal/observability"
	"github.com/signalsfoundry/los-sampler/internal/oracle"
	"github.com/signalsfoundry/los-sampler/internal/publish"
	"github.com/signalsfoundry/los-sampler/model"
)

// Options wires a Sampler. Animator, Tracker and Oracle are required.
type Options struct {
	Animator *core.PathAnimator
	Tracker  *core.VisibilityTracker
	Oracle   oracle.Oracle
	Observer model.Point

	Metrics   *observability.SamplerCollector
	Publisher publish.Publisher
	Logger    logging.Logger
	Tracer    trace.Tracer
	RunID     string

	// Now is used to timestamp status messages.
	Now func() time.Time
}

// Snapshot is the sampler state as exposed to the UI layer.
type Snapshot struct {
	RunID      string                `json:"runId,omitempty"`
	Frame      uint64                `json:"frame"`
	State      model.AnimationState  `json:"animation"`
	Position   model.Point           `json:"position"`
	Observer   model.Point           `json:"observer"`
	Visibility model.VisibilityState `json:"visibility"`
	Text       string                `json:"text"`
	Selected   bool                  `json:"selected"`
}

// Sampler moves the target one frame per clock tick, hands each position to
// the occlusion oracle and forwards visibility changes to consumers.
type Sampler struct {
	animator  *core.PathAnimator
	tracker   *core.VisibilityTracker
	notifier  *oracle.Notifier
	metrics   *observability.SamplerCollector
	publisher publish.Publisher
	log       logging.Logger
	tracer    trace.Tracer
	runID     string
	now       func() time.Time

	mu     sync.RWMutex
	frame  uint64
	runCtx context.Context
}

// New validates opts and registers the sampler as the tracker's observer.
func New(opts Options) (*Sampler, error) {
	if opts.Animator == nil || opts.Tracker == nil || opts.Oracle == nil {
		return nil, errors.New("sampler: animator, tracker and oracle are required")
	}
	if opts.Publisher == nil {
		opts.Publisher = publish.Noop()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(observability.TracerName)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Sampler{
		animator:  opts.Animator,
		tracker:   opts.Tracker,
		metrics:   opts.Metrics,
		publisher: opts.Publisher,
		log:       opts.Logger.With(logging.String("component", "sampler")),
		tracer:    opts.Tracer,
		runID:     opts.RunID,
		now:       opts.Now,
	}
	s.notifier = oracle.NewNotifier(opts.Oracle, opts.Observer, s.report,
		oracle.WithLogger(s.log),
		oracle.WithObserver(s.metrics.ObserveOracle),
	)
	s.tracker.OnChange(s.handleChange)
	return s, nil
}

// Run evaluates submitted positions until ctx is cancelled. It must be
// running for visibility verdicts to reach the tracker.
func (s *Sampler) Run(ctx context.Context) {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()
	s.notifier.Run(ctx)
}

// runContext bounds change handling to the lifetime of Run.
func (s *Sampler) runContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.runCtx == nil {
		return context.Background()
	}
	return s.runCtx
}

// OnFrame advances the target by one frame. It is meant to be registered as
// a timectrl listener.
func (s *Sampler) OnFrame(ctx context.Context, frame uint64) {
	if err := s.animator.Tick(); err != nil {
		s.log.Error(ctx, "advance target", logging.Err(err))
		return
	}
	state, pos, err := s.animator.Sample()
	if err != nil {
		s.log.Error(ctx, "sample target position", logging.Err(err))
		return
	}

	s.mu.Lock()
	s.frame = frame
	s.mu.Unlock()

	s.metrics.ObserveTick(state, s.animator.FramesPerSegment())
	if state.Frame == 0 {
		s.log.Debug(ctx, "target reached waypoint", logging.Int("segment", state.Segment))
	}

	if err := s.publisher.PublishPosition(ctx, publish.PositionFrame{Frame: frame, State: state, Position: pos}); err != nil {
		s.metrics.IncPublishErrors("position")
		s.log.Warn(ctx, "publish position", logging.Err(err))
	}

	s.notifier.Submit(pos)
}

// SetObserverHeight moves the observer to the height selected by a 0-100
// slider value within [min, max].
func (s *Sampler) SetObserverHeight(percent, min, max float64) model.Point {
	p := s.notifier.Observer()
	p.Z = core.HeightFromSlider(percent, min, max)
	s.notifier.SetObserver(p)
	return p
}

// Snapshot returns the latest frame, position and visibility.
func (s *Sampler) Snapshot() Snapshot {
	s.mu.RLock()
	frame := s.frame
	s.mu.RUnlock()

	state, pos, _ := s.animator.Sample()
	v := s.tracker.CurrentState()
	return Snapshot{
		RunID:      s.runID,
		Frame:      frame,
		State:      state,
		Position:   pos,
		Observer:   s.notifier.Observer(),
		Visibility: v,
		Text:       v.StatusText(),
		Selected:   v.Selected(),
	}
}

func (s *Sampler) report(v model.VisibilityState) {
	s.tracker.ReportVisibility(v)
}

// handleChange runs on the notifier goroutine under the tracker's report
// serialisation, once per change.
func (s *Sampler) handleChange(v model.VisibilityState) {
	ctx, span := s.tracer.Start(s.runContext(), "visibility.change",
		trace.WithAttributes(
			attribute.String("los.visibility", v.String()),
			attribute.String("los.run_id", s.runID),
		))
	defer span.End()

	state := s.animator.State()
	s.metrics.ObserveTransition(v)
	s.log.Info(ctx, "target visibility changed",
		logging.String("visibility", v.String()),
		logging.Int("segment", state.Segment),
		logging.Int("frame", state.Frame),
	)

	msg := publish.NewStatusMessage(s.runID, v, s.now())
	if err := s.publisher.PublishStatus(ctx, msg); err != nil {
		s.metrics.IncPublishErrors("status")
		span.RecordError(err)
		s.log.Warn(ctx, "publish status", logging.Err(err))
	}
}
