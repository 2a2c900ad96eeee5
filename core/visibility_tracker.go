package core

import (
	"sync"

	"github.com/signalsfoundry/los-sampler/model"
)

// VisibilityTracker holds the latest visibility verdict pushed by an
// occlusion oracle and notifies a single observer once per change.
//
// Reports are serialised: the compare-and-set and the callback for one
// report complete before the next report is looked at. The callback may
// read CurrentState but must not call ReportVisibility.
type VisibilityTracker struct {
	// reportMu orders reports and callback delivery.
	reportMu sync.Mutex

	mu          sync.RWMutex
	state       model.VisibilityState
	onChange    func(model.VisibilityState)
	transitions uint64
}

// NewVisibilityTracker returns a tracker in the Unknown state.
func NewVisibilityTracker() *VisibilityTracker {
	return &VisibilityTracker{state: model.VisibilityUnknown}
}

// OnChange registers the observer, replacing any previous one. Passing nil
// removes the observer.
func (t *VisibilityTracker) OnChange(fn func(model.VisibilityState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// ReportVisibility records v. The observer is invoked exactly once with v if
// it differs from the previous state; repeated identical reports are
// absorbed. It reports whether the state changed.
func (t *VisibilityTracker) ReportVisibility(v model.VisibilityState) bool {
	t.reportMu.Lock()
	defer t.reportMu.Unlock()

	t.mu.Lock()
	if t.state == v {
		t.mu.Unlock()
		return false
	}
	t.state = v
	t.transitions++
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(v)
	}
	return true
}

// CurrentState returns the latest reported verdict.
func (t *VisibilityTracker) CurrentState() model.VisibilityState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Transitions returns how many state changes have been recorded.
func (t *VisibilityTracker) Transitions() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.transitions
}
