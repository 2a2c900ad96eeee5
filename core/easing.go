package core

import (
	"fmt"
	"strings"

	"github.com/fogleman/ease"
)

// Easing remaps the linear segment fraction t in [0, 1) before interpolation.
type Easing func(t float64) float64

// EaseLinear leaves t untouched.
func EaseLinear(t float64) float64 { return t }

// EasingByName resolves a configured easing name. The empty string selects
// linear interpolation.
func EasingByName(name string) (Easing, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear":
		return EaseLinear, nil
	case "inoutquad":
		return ease.InOutQuad, nil
	case "inoutcubic":
		return ease.InOutCubic, nil
	case "inoutsine":
		return ease.InOutSine, nil
	}
	return nil, fmt.Errorf("%w: unknown easing %q", ErrInvalidConfig, name)
}
