package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signalsfoundry/los-sampler/model"
)

func TestSegmentHitsSphere(t *testing.T) {
	dome := Sphere{Center: model.Point{X: 50, Y: 0, Z: 0}, Radius: 10}

	tests := []struct {
		name   string
		p1, p2 model.Point
		want   bool
	}{
		{name: "through centre", p1: model.Point{}, p2: model.Point{X: 100}, want: true},
		{name: "passes above", p1: model.Point{Z: 20}, p2: model.Point{X: 100, Z: 20}, want: false},
		{name: "grazes", p1: model.Point{Z: 10}, p2: model.Point{X: 100, Z: 10}, want: true},
		{name: "stops short", p1: model.Point{}, p2: model.Point{X: 30}, want: false},
		{name: "degenerate inside", p1: model.Point{X: 50}, p2: model.Point{X: 50}, want: true},
		{name: "degenerate outside", p1: model.Point{}, p2: model.Point{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := segmentHitsSphere(tt.p1, tt.p2, dome); got != tt.want {
				t.Fatalf("segmentHitsSphere = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentHitsBox(t *testing.T) {
	building := Box{Min: model.Point{X: 40, Y: -5, Z: 0}, Max: model.Point{X: 60, Y: 5, Z: 30}}

	tests := []struct {
		name   string
		p1, p2 model.Point
		want   bool
	}{
		{name: "through walls", p1: model.Point{Z: 10}, p2: model.Point{X: 100, Z: 10}, want: true},
		{name: "over the roof", p1: model.Point{Z: 40}, p2: model.Point{X: 100, Z: 40}, want: false},
		{name: "beside", p1: model.Point{Y: 10, Z: 10}, p2: model.Point{X: 100, Y: 10, Z: 10}, want: false},
		{name: "stops short", p1: model.Point{Z: 10}, p2: model.Point{X: 39, Z: 10}, want: false},
		{name: "diagonal into roof", p1: model.Point{Z: 50}, p2: model.Point{X: 100, Z: 0}, want: true},
		{name: "ends inside", p1: model.Point{Z: 10}, p2: model.Point{X: 50, Z: 10}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := segmentHitsBox(tt.p1, tt.p2, building); got != tt.want {
				t.Fatalf("segmentHitsBox = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestObstacleOracleVerdicts(t *testing.T) {
	o := NewObstacleOracle(
		[]Sphere{{Center: model.Point{X: 50, Y: 50, Z: 10}, Radius: 5}},
		[]Box{{Min: model.Point{X: 40, Y: -5}, Max: model.Point{X: 60, Y: 5, Z: 30}}},
	)
	ctx := context.Background()
	observer := model.Point{Z: 10}

	got, err := o.Evaluate(ctx, observer, model.Point{X: 100, Z: 10})
	if err != nil || got != model.VisibilityObstructed {
		t.Fatalf("through box = %v, %v; want obstructed", got, err)
	}
	got, err = o.Evaluate(ctx, observer, model.Point{X: 100, Y: 100, Z: 10})
	if err != nil || got != model.VisibilityObstructed {
		t.Fatalf("through sphere = %v, %v; want obstructed", got, err)
	}
	got, err = o.Evaluate(ctx, observer, model.Point{X: 0, Y: 100, Z: 10})
	if err != nil || got != model.VisibilityVisible {
		t.Fatalf("clear line = %v, %v; want visible", got, err)
	}
}

func TestObstacleOracleHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewObstacleOracle(nil, nil).Evaluate(ctx, model.Point{}, model.Point{X: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestNotifierReportsFromOwnGoroutine(t *testing.T) {
	o := NewObstacleOracle(nil, []Box{{Min: model.Point{X: 4, Y: -1}, Max: model.Point{X: 6, Y: 1, Z: 5}}})
	reports := make(chan model.VisibilityState, 4)
	observed := make(chan error, 4)

	n := NewNotifier(o, model.Point{Z: 1}, func(v model.VisibilityState) { reports <- v },
		WithObserver(func(_ model.VisibilityState, _ time.Duration, err error) { observed <- err }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Submit(model.Point{X: 10, Z: 1})
	if got := waitReport(t, reports); got != model.VisibilityObstructed {
		t.Fatalf("first verdict = %v, want obstructed", got)
	}
	if err := <-observed; err != nil {
		t.Fatalf("observer saw error %v", err)
	}

	n.SetObserver(model.Point{Z: 20})
	n.Submit(model.Point{X: 10, Z: 20})
	if got := waitReport(t, reports); got != model.VisibilityVisible {
		t.Fatalf("second verdict = %v, want visible", got)
	}
}

func TestNotifierSkipsReportOnOracleError(t *testing.T) {
	failing := OracleFunc(func(context.Context, model.Point, model.Point) (model.VisibilityState, error) {
		return model.VisibilityUnknown, errors.New("scene not loaded")
	})
	reports := make(chan model.VisibilityState, 1)
	observed := make(chan error, 1)
	n := NewNotifier(failing, model.Point{}, func(v model.VisibilityState) { reports <- v },
		WithObserver(func(_ model.VisibilityState, _ time.Duration, err error) { observed <- err }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Submit(model.Point{X: 1})
	select {
	case err := <-observed:
		if err == nil {
			t.Fatalf("expected oracle error to be observed")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for evaluation")
	}
	select {
	case v := <-reports:
		t.Fatalf("unexpected report %v after oracle error", v)
	default:
	}
}

func TestSubmitKeepsOnlyLatestPosition(t *testing.T) {
	n := NewNotifier(NewObstacleOracle(nil, nil), model.Point{}, nil)

	n.Submit(model.Point{X: 1})
	n.Submit(model.Point{X: 2})
	n.Submit(model.Point{X: 3})

	if got := <-n.pending; got != (model.Point{X: 3}) {
		t.Fatalf("pending = %+v, want latest {X:3}", got)
	}
	select {
	case p := <-n.pending:
		t.Fatalf("unexpected extra pending position %+v", p)
	default:
	}
}

func waitReport(t *testing.T, reports <-chan model.VisibilityState) model.VisibilityState {
	t.Helper()
	select {
	case v := <-reports:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for verdict")
	}
	return model.VisibilityUnknown
}
