package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/signalsfoundry/los-sampler/internal/logging"
	"github.com/signalsfoundry/los-sampler/model"
)

// ReportFunc receives a verdict from the notifier goroutine.
type ReportFunc func(model.VisibilityState)

// ObserveFunc is told about every evaluation, including failed ones.
type ObserveFunc func(verdict model.VisibilityState, took time.Duration, err error)

// NotifierOption customises a Notifier.
type NotifierOption func(*Notifier)

// WithLogger sets the logger used for oracle failures.
func WithLogger(l logging.Logger) NotifierOption {
	return func(n *Notifier) {
		if l != nil {
			n.log = l
		}
	}
}

// WithObserver installs a hook called after each evaluation.
func WithObserver(fn ObserveFunc) NotifierOption {
	return func(n *Notifier) {
		n.observe = fn
	}
}

// Notifier evaluates target positions against an Oracle on its own
// goroutine and reports verdicts asynchronously, the way a scene runtime
// pushes visibility changes. Only the most recent submitted position is
// kept; stale ones are dropped.
type Notifier struct {
	oracle  Oracle
	report  ReportFunc
	observe ObserveFunc
	log     logging.Logger

	mu       sync.RWMutex
	observer model.Point

	pending chan model.Point
}

// NewNotifier builds a notifier for a fixed oracle and report target.
func NewNotifier(o Oracle, observer model.Point, report ReportFunc, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		oracle:   o,
		report:   report,
		log:      logging.Noop(),
		observer: observer,
		pending:  make(chan model.Point, 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SetObserver moves the observing point. The next evaluation uses it.
func (n *Notifier) SetObserver(p model.Point) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observer = p
}

// Observer returns the current observing point.
func (n *Notifier) Observer() model.Point {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.observer
}

// Submit queues target for evaluation without blocking, replacing any
// position that has not been picked up yet.
func (n *Notifier) Submit(target model.Point) {
	for {
		select {
		case n.pending <- target:
			return
		default:
		}
		select {
		case <-n.pending:
		default:
		}
	}
}

// Run evaluates submitted positions until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case target := <-n.pending:
			n.evaluate(ctx, target)
		}
	}
}

func (n *Notifier) evaluate(ctx context.Context, target model.Point) {
	observer := n.Observer()

	start := time.Now()
	verdict, err := n.oracle.Evaluate(ctx, observer, target)
	took := time.Since(start)

	if n.observe != nil {
		n.observe(verdict, took, err)
	}
	if err != nil {
		if ctx.Err() == nil {
			n.log.Warn(ctx, "occlusion oracle failed", logging.Err(err))
		}
		return
	}
	if n.report != nil {
		n.report(verdict)
	}
}
