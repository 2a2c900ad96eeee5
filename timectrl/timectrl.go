package timectrl

import (
	"context"
	"sync"
	"time"
)

// Mode describes how the TimeController paces frames.
type Mode int

const (
	// RealTime emits one frame per Interval of wall-clock time.
	RealTime Mode = iota
	// Accelerated emits frames as quickly as listeners can handle them.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

// Listener is invoked once per frame with the frame number, starting at 1.
type Listener func(ctx context.Context, frame uint64)

// TimeController is a fixed-rate frame clock. Listeners run synchronously
// on the controller's goroutine, so a listener never overlaps with the next
// frame.
type TimeController struct {
	mu       sync.RWMutex
	Interval time.Duration
	Mode     Mode

	frame     uint64
	listeners []Listener
}

// NewTimeController constructs a controller.
func NewTimeController(interval time.Duration, mode Mode) *TimeController {
	return &TimeController{
		Interval: interval,
		Mode:     mode,
	}
}

// Frame returns the number of frames emitted so far.
func (tc *TimeController) Frame() uint64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.frame
}

// Elapsed returns the simulated time covered by the frames emitted so far.
func (tc *TimeController) Elapsed() time.Duration {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return time.Duration(tc.frame) * tc.Interval
}

// AddListener registers a callback invoked on every frame.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Step emits a single frame immediately, regardless of Mode.
func (tc *TimeController) Step(ctx context.Context) uint64 {
	tc.mu.Lock()
	tc.frame++
	frame := tc.frame
	listeners := make([]Listener, len(tc.listeners))
	copy(listeners, tc.listeners)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, frame)
	}
	return frame
}

// Start emits frames on a separate goroutine until frames have been
// emitted (0 means no limit) or ctx is cancelled. It returns a channel that
// is closed when the controller stops.
func (tc *TimeController) Start(ctx context.Context, frames uint64) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var tick <-chan time.Time
		if tc.Mode == RealTime {
			ticker := time.NewTicker(tc.Interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for emitted := uint64(0); frames == 0 || emitted < frames; emitted++ {
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			} else if ctx.Err() != nil {
				return
			}
			tc.Step(ctx)
		}
	}()
	return done
}
