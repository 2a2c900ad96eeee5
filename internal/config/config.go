package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/los-sampler/core"
	"github.com/signalsfoundry/los-sampler/internal/oracle"
	"github.com/signalsfoundry/los-sampler/model"
)

// Scene defaults: one frame every 60ms, 150 frames
// per leg of the patrol loop.
const (
	DefaultTick             = 60 * time.Millisecond
	DefaultFramesPerSegment = 150
)

// Scenario describes the patrol loop, the observer and the obstacles the
// demo oracle checks against.
type Scenario struct {
	Tick             time.Duration `yaml:"tick"`
	FramesPerSegment int           `yaml:"framesPerSegment"`
	Easing           string        `yaml:"easing"`

	Waypoints []model.Point `yaml:"waypoints"`
	Orbit     *Orbit        `yaml:"orbit"`

	Observer    Observer    `yaml:"observer"`
	HeightRange HeightRange `yaml:"heightRange"`

	Obstacles Obstacles `yaml:"obstacles"`
}

// Orbit generates the loop from a TLE instead of listing waypoints.
type Orbit struct {
	Line1   string        `yaml:"line1"`
	Line2   string        `yaml:"line2"`
	Epoch   time.Time     `yaml:"epoch"`
	Step    time.Duration `yaml:"step"`
	Samples int           `yaml:"samples"`
}

// Observer is the fixed marker the target is watched from. Its height comes
// from a 0-100 slider value mapped onto HeightRange.
type Observer struct {
	X             float64 `yaml:"x"`
	Y             float64 `yaml:"y"`
	HeightPercent float64 `yaml:"heightPercent"`
}

// HeightRange bounds the observer height.
type HeightRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Obstacles feed the demo occlusion oracle.
type Obstacles struct {
	Spheres []oracle.Sphere `yaml:"spheres"`
	Boxes   []oracle.Box    `yaml:"boxes"`
}

// Env holds process settings read from the environment.
type Env struct {
	HTTPAddr        string `envconfig:"LOS_HTTP_ADDR" default:":9090"`
	MQTTURL         string `envconfig:"LOS_MQTT_URL"`
	MQTTUsername    string `envconfig:"LOS_MQTT_USERNAME"`
	MQTTPassword    string `envconfig:"LOS_MQTT_PASSWORD"`
	MQTTClientID    string `envconfig:"LOS_MQTT_CLIENT_ID" default:"los-sampler"`
	MQTTTopicPrefix string `envconfig:"LOS_MQTT_TOPIC_PREFIX" default:"los"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &env, nil
}

// DefaultScenario is a square patrol loop around a single building, watched
// from a marker at mid height.
func DefaultScenario() Scenario {
	return Scenario{
		Tick:             DefaultTick,
		FramesPerSegment: DefaultFramesPerSegment,
		Easing:           "linear",
		Waypoints: []model.Point{
			{X: 0, Y: 0, Z: 10},
			{X: 200, Y: 0, Z: 10},
			{X: 200, Y: 200, Z: 10},
			{X: 0, Y: 200, Z: 10},
		},
		Observer:    Observer{X: -50, Y: 100, HeightPercent: 50},
		HeightRange: HeightRange{Min: core.DefaultMinHeight, Max: core.DefaultMaxHeight},
		Obstacles: Obstacles{
			Boxes: []oracle.Box{
				{Min: model.Point{X: 60, Y: 60, Z: 0}, Max: model.Point{X: 140, Y: 140, Z: 120}},
			},
		},
	}
}

// Load reads a scenario file, filling unset fields from DefaultScenario.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario %q: %w", path, err)
	}
	sc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Scenario{}, fmt.Errorf("load scenario %q: %w", path, err)
	}
	return sc, nil
}

// Decode parses and validates a YAML scenario.
func Decode(r io.Reader) (Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

func (s *Scenario) applyDefaults() {
	def := DefaultScenario()
	if s.Tick == 0 {
		s.Tick = def.Tick
	}
	if s.FramesPerSegment == 0 {
		s.FramesPerSegment = def.FramesPerSegment
	}
	if s.HeightRange == (HeightRange{}) {
		s.HeightRange = def.HeightRange
	}
	if len(s.Waypoints) == 0 && s.Orbit == nil {
		s.Waypoints = def.Waypoints
	}
}

// Validate checks the scenario against the rules PathAnimator enforces, so
// a bad file is rejected before anything starts.
func (s Scenario) Validate() error {
	if s.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %s", core.ErrInvalidConfig, s.Tick)
	}
	if s.FramesPerSegment <= 0 {
		return fmt.Errorf("%w: framesPerSegment must be positive, got %d", core.ErrInvalidConfig, s.FramesPerSegment)
	}
	if _, err := core.EasingByName(s.Easing); err != nil {
		return err
	}
	if s.Orbit != nil && len(s.Waypoints) > 0 {
		return fmt.Errorf("%w: waypoints and orbit are mutually exclusive", core.ErrInvalidConfig)
	}
	if s.Orbit != nil {
		if err := core.ValidateTLE(s.Orbit.Line1, s.Orbit.Line2); err != nil {
			return err
		}
	}
	if s.Orbit == nil && len(s.Waypoints) < 2 {
		return fmt.Errorf("%w: need at least 2 waypoints, got %d", core.ErrInvalidConfig, len(s.Waypoints))
	}
	if s.HeightRange.Max < s.HeightRange.Min {
		return fmt.Errorf("%w: heightRange max %v below min %v", core.ErrInvalidConfig, s.HeightRange.Max, s.HeightRange.Min)
	}
	for i, sp := range s.Obstacles.Spheres {
		if sp.Radius <= 0 {
			return fmt.Errorf("%w: sphere %d has non-positive radius", core.ErrInvalidConfig, i)
		}
	}
	for i, b := range s.Obstacles.Boxes {
		if b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z {
			return fmt.Errorf("%w: box %d has max below min", core.ErrInvalidConfig, i)
		}
	}
	return nil
}

// Loop resolves the waypoint loop, propagating the orbit when one is
// configured.
func (s Scenario) Loop() ([]model.Point, error) {
	if s.Orbit == nil {
		return s.Waypoints, nil
	}
	epoch := s.Orbit.Epoch
	if epoch.IsZero() {
		epoch = time.Now().UTC()
	}
	return core.WaypointsFromTLE(s.Orbit.Line1, s.Orbit.Line2, epoch, s.Orbit.Step, s.Orbit.Samples)
}

// ObserverPoint places the observer using the height slider mapping.
func (s Scenario) ObserverPoint() model.Point {
	return model.Point{
		X: s.Observer.X,
		Y: s.Observer.Y,
		Z: core.HeightFromSlider(s.Observer.HeightPercent, s.HeightRange.Min, s.HeightRange.Max),
	}
}

// Oracle builds the demo occlusion oracle for the configured obstacles.
func (s Scenario) Oracle() *oracle.ObstacleOracle {
	return oracle.NewObstacleOracle(s.Obstacles.Spheres, s.Obstacles.Boxes)
}
