package core

import "errors"

var (
	// ErrInvalidConfig is returned when a loop or frame setup is rejected.
	// The previous configuration, if any, stays in effect.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrNotConfigured is returned when the animator is used before Configure.
	ErrNotConfigured = errors.New("not configured")
)
