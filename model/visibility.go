package model

import (
	"fmt"
	"strings"
)

// VisibilityState is the latest verdict about whether the observer can see
// the moving target.
type VisibilityState int

const (
	VisibilityUnknown VisibilityState = iota
	VisibilityVisible
	VisibilityObstructed
)

// String returns the lower-case name of the state.
func (v VisibilityState) String() string {
	switch v {
	case VisibilityVisible:
		return "visible"
	case VisibilityObstructed:
		return "obstructed"
	default:
		return "unknown"
	}
}

// StatusText is the human-readable line shown next to the target marker.
func (v VisibilityState) StatusText() string {
	switch v {
	case VisibilityVisible:
		return "Target is visible"
	case VisibilityObstructed:
		return "Target is obstructed"
	default:
		return "Target visibility unknown"
	}
}

// Selected reports whether the target marker should be drawn highlighted.
func (v VisibilityState) Selected() bool {
	return v == VisibilityVisible
}

// AllVisibilityStates lists every state in declaration order.
func AllVisibilityStates() []VisibilityState {
	return []VisibilityState{VisibilityUnknown, VisibilityVisible, VisibilityObstructed}
}

// ParseVisibility maps a state name back to its value.
func ParseVisibility(s string) (VisibilityState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown", "":
		return VisibilityUnknown, nil
	case "visible":
		return VisibilityVisible, nil
	case "obstructed":
		return VisibilityObstructed, nil
	}
	return VisibilityUnknown, fmt.Errorf("unknown visibility state %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (v VisibilityState) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *VisibilityState) UnmarshalText(b []byte) error {
	parsed, err := ParseVisibility(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
