package core

// Observer heights used by the scene's height slider.
const (
	DefaultMinHeight = 20.0
	DefaultMaxHeight = 150.0
)

// HeightFromSlider maps a slider value in [0, 100] linearly onto
// [min, max]: z = (max-min)*v/100 + min. Out-of-range slider values are
// clamped.
func HeightFromSlider(v, min, max float64) float64 {
	if v < 0 {
		v = 0
	} else if v > 100 {
		v = 100
	}
	return (max-min)*v/100 + min
}
