package oracle

import (
	"math"

	"github.com/signalsfoundry/los-sampler/model"
)

// Sphere is a spherical obstacle, e.g. a dome or a coarse terrain bump.
type Sphere struct {
	Center model.Point `yaml:"center"`
	Radius float64     `yaml:"radius"`
}

// Box is an axis-aligned obstacle, e.g. a building footprint extruded to
// its roof height.
type Box struct {
	Min model.Point `yaml:"min"`
	Max model.Point `yaml:"max"`
}

// segmentHitsSphere reports whether the closed segment p1-p2 touches s.
func segmentHitsSphere(p1, p2 model.Point, s Sphere) bool {
	// Work relative to the sphere centre.
	a := p1.Sub(s.Center)
	v := p2.Sub(p1)
	vv := v.Dot(v)
	r2 := s.Radius * s.Radius
	if vv == 0 {
		return a.Dot(a) <= r2
	}

	// Closest point on the segment to the centre: t* minimises |a + t v|^2
	// over t in [0, 1].
	t := -a.Dot(v) / vv
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Add(v.Scale(t))
	return closest.Dot(closest) <= r2
}

// segmentHitsBox reports whether the closed segment p1-p2 touches b, using
// the slab method.
func segmentHitsBox(p1, p2 model.Point, b Box) bool {
	tMin, tMax := 0.0, 1.0
	axes := [3][4]float64{
		{p1.X, p2.X - p1.X, b.Min.X, b.Max.X},
		{p1.Y, p2.Y - p1.Y, b.Min.Y, b.Max.Y},
		{p1.Z, p2.Z - p1.Z, b.Min.Z, b.Max.Z},
	}
	for _, ax := range axes {
		origin, dir, lo, hi := ax[0], ax[1], ax[2], ax[3]
		if dir == 0 {
			if origin < lo || origin > hi {
				return false
			}
			continue
		}
		t1 := (lo - origin) / dir
		t2 := (hi - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}
