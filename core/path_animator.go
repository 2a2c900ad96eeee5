package core

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/los-sampler/model"
)

// AnimatorOption customises a PathAnimator configuration.
type AnimatorOption func(*animatorConfig)

type animatorConfig struct {
	easing Easing
}

// WithEasing remaps the segment fraction before interpolating. A nil easing
// selects linear interpolation.
func WithEasing(e Easing) AnimatorOption {
	return func(c *animatorConfig) {
		c.easing = e
	}
}

// PathAnimator moves a point around a closed loop of waypoints, one frame
// per Tick. The loop never terminates; after the last segment it wraps back
// to the first.
//
// Tick is expected to be driven from a single timer goroutine. Readers such
// as CurrentPosition and State may be called concurrently.
type PathAnimator struct {
	mu sync.RWMutex

	waypoints        []model.Point
	framesPerSegment int
	easing           Easing

	state model.AnimationState
}

// NewPathAnimator returns an animator that must be configured before use.
func NewPathAnimator() *PathAnimator {
	return &PathAnimator{}
}

// Configure installs a new loop and restarts the animation from the first
// waypoint. The waypoints are copied. A rejected configuration leaves the
// previous one untouched.
func (a *PathAnimator) Configure(waypoints []model.Point, framesPerSegment int, opts ...AnimatorOption) error {
	if len(waypoints) < 2 {
		return fmt.Errorf("%w: need at least 2 waypoints, got %d", ErrInvalidConfig, len(waypoints))
	}
	if framesPerSegment <= 0 {
		return fmt.Errorf("%w: frames per segment must be positive, got %d", ErrInvalidConfig, framesPerSegment)
	}

	cfg := animatorConfig{easing: EaseLinear}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.easing == nil {
		cfg.easing = EaseLinear
	}

	loop := make([]model.Point, len(waypoints))
	copy(loop, waypoints)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.waypoints = loop
	a.framesPerSegment = framesPerSegment
	a.easing = cfg.easing
	a.state = model.AnimationState{}
	return nil
}

// Tick advances one frame. When the frame counter reaches the configured
// frames per segment it resets and the segment index moves on by one,
// wrapping after the last segment.
func (a *PathAnimator) Tick() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.waypoints == nil {
		return ErrNotConfigured
	}

	a.state.Frame++
	if a.state.Frame >= a.framesPerSegment {
		a.state.Frame = 0
		a.state.Segment = (a.state.Segment + 1) % len(a.waypoints)
	}
	return nil
}

// CurrentPosition interpolates between the current segment's endpoints at
// fraction frame/framesPerSegment. It does not change state.
func (a *PathAnimator) CurrentPosition() (model.Point, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.waypoints == nil {
		return model.Point{}, ErrNotConfigured
	}
	return a.positionLocked(), nil
}

func (a *PathAnimator) positionLocked() model.Point {
	n := len(a.waypoints)
	from := a.waypoints[a.state.Segment]
	to := a.waypoints[(a.state.Segment+1)%n]
	t := a.easing(a.state.Fraction(a.framesPerSegment))
	return from.Lerp(to, t)
}

// Sample returns the state and the position it maps to under one lock.
func (a *PathAnimator) Sample() (model.AnimationState, model.Point, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.waypoints == nil {
		return model.AnimationState{}, model.Point{}, ErrNotConfigured
	}
	return a.state, a.positionLocked(), nil
}

// State returns the current segment and frame.
func (a *PathAnimator) State() model.AnimationState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Reset restarts the loop at the first waypoint.
func (a *PathAnimator) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.waypoints == nil {
		return ErrNotConfigured
	}
	a.state = model.AnimationState{}
	return nil
}

// Waypoints returns a copy of the configured loop.
func (a *PathAnimator) Waypoints() []model.Point {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]model.Point, len(a.waypoints))
	copy(out, a.waypoints)
	return out
}

// FramesPerSegment returns the configured segment length in frames, or 0
// before Configure.
func (a *PathAnimator) FramesPerSegment() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.framesPerSegment
}
