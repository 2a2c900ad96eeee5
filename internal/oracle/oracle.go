package oracle

import (
	"context"

	"github.com/signalsfoundry/los-sampler/model"
)

// Oracle decides whether target can be seen from observer.
type Oracle interface {
	Evaluate(ctx context.Context, observer, target model.Point) (model.VisibilityState, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, observer, target model.Point) (model.VisibilityState, error)

// Evaluate calls f.
func (f OracleFunc) Evaluate(ctx context.Context, observer, target model.Point) (model.VisibilityState, error) {
	return f(ctx, observer, target)
}

// ObstacleOracle is a stand-in for a real scene: the sight line is blocked
// if it touches any sphere or box. It is immutable after construction and
// safe for concurrent use.
type ObstacleOracle struct {
	spheres []Sphere
	boxes   []Box
}

// NewObstacleOracle copies the obstacle lists.
func NewObstacleOracle(spheres []Sphere, boxes []Box) *ObstacleOracle {
	o := &ObstacleOracle{
		spheres: make([]Sphere, len(spheres)),
		boxes:   make([]Box, len(boxes)),
	}
	copy(o.spheres, spheres)
	copy(o.boxes, boxes)
	return o
}

// Evaluate returns VisibilityObstructed if the segment observer-target
// touches an obstacle, VisibilityVisible otherwise.
func (o *ObstacleOracle) Evaluate(ctx context.Context, observer, target model.Point) (model.VisibilityState, error) {
	if err := ctx.Err(); err != nil {
		return model.VisibilityUnknown, err
	}
	for _, s := range o.spheres {
		if segmentHitsSphere(observer, target, s) {
			return model.VisibilityObstructed, nil
		}
	}
	for _, b := range o.boxes {
		if segmentHitsBox(observer, target, b) {
			return model.VisibilityObstructed, nil
		}
	}
	return model.VisibilityVisible, nil
}
