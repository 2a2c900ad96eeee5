package model

// Point is a position in the scene's local cartesian frame. Orbit-derived
// loops use ECEF kilometres; hand-authored loops use metres.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// Add returns p + other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y, Z: p.Z + other.Z}
}

// Sub returns p - other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y, Z: p.Z - other.Z}
}

// Scale returns p scaled by k.
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k, Z: p.Z * k}
}

// Dot returns the dot product of two points treated as vectors.
func (p Point) Dot(other Point) float64 {
	return p.X*other.X + p.Y*other.Y + p.Z*other.Z
}

// Lerp interpolates component-wise from p towards b: p.c + (b.c - p.c) * t.
func (p Point) Lerp(b Point, t float64) Point {
	return Point{
		X: p.X + (b.X-p.X)*t,
		Y: p.Y + (b.Y-p.Y)*t,
		Z: p.Z + (b.Z-p.Z)*t,
	}
}

// AnimationState is the position of a moving point along a closed loop:
// the segment being traversed and the frame reached within it.
type AnimationState struct {
	Segment int `json:"segment"`
	Frame   int `json:"frame"`
}

// Fraction returns how far through the current segment the state is, in [0, 1).
func (s AnimationState) Fraction(framesPerSegment int) float64 {
	if framesPerSegment <= 0 {
		return 0
	}
	return float64(s.Frame) / float64(framesPerSegment)
}
