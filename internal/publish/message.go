package publish

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/signalsfoundry/los-sampler/model"
)

// positionFrameSize is frame(8) + segment(4) + step(4) + x,y,z(3*8).
const positionFrameSize = 8 + 4 + 4 + 3*8

// PositionFrame is one animator frame as seen by a renderer.
type PositionFrame struct {
	Frame    uint64
	State    model.AnimationState
	Position model.Point
}

// MarshalBinary encodes the frame as a fixed-size little-endian record.
func (f PositionFrame) MarshalBinary() ([]byte, error) {
	data := make([]byte, positionFrameSize)
	binary.LittleEndian.PutUint64(data[0:], f.Frame)
	binary.LittleEndian.PutUint32(data[8:], uint32(f.State.Segment))
	binary.LittleEndian.PutUint32(data[12:], uint32(f.State.Frame))
	binary.LittleEndian.PutUint64(data[16:], math.Float64bits(f.Position.X))
	binary.LittleEndian.PutUint64(data[24:], math.Float64bits(f.Position.Y))
	binary.LittleEndian.PutUint64(data[32:], math.Float64bits(f.Position.Z))
	return data, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
func (f *PositionFrame) UnmarshalBinary(data []byte) error {
	if len(data) != positionFrameSize {
		return fmt.Errorf("position frame: got %d bytes, want %d", len(data), positionFrameSize)
	}
	f.Frame = binary.LittleEndian.Uint64(data[0:])
	f.State.Segment = int(binary.LittleEndian.Uint32(data[8:]))
	f.State.Frame = int(binary.LittleEndian.Uint32(data[12:]))
	f.Position.X = math.Float64frombits(binary.LittleEndian.Uint64(data[16:]))
	f.Position.Y = math.Float64frombits(binary.LittleEndian.Uint64(data[24:]))
	f.Position.Z = math.Float64frombits(binary.LittleEndian.Uint64(data[32:]))
	return nil
}

// Marker colours, one per visibility state.
var (
	colourVisible    = colorful.Color{R: 0.18, G: 0.8, B: 0.44}
	colourObstructed = colorful.Color{R: 0.91, G: 0.3, B: 0.24}
	colourUnknown    = colorful.Color{R: 0.58, G: 0.65, B: 0.65}
)

// MarkerColour returns the colour the target marker is drawn in.
func MarkerColour(v model.VisibilityState) colorful.Color {
	switch v {
	case model.VisibilityVisible:
		return colourVisible
	case model.VisibilityObstructed:
		return colourObstructed
	default:
		return colourUnknown
	}
}

// StatusMessage is pushed to UI consumers on every visibility change.
type StatusMessage struct {
	RunID    string                `json:"runId,omitempty"`
	State    model.VisibilityState `json:"state"`
	Text     string                `json:"text"`
	Selected bool                  `json:"selected"`
	Colour   string                `json:"colour"`
	At       time.Time             `json:"at"`
}

// NewStatusMessage fills the display fields for state v.
func NewStatusMessage(runID string, v model.VisibilityState, at time.Time) StatusMessage {
	return StatusMessage{
		RunID:    runID,
		State:    v,
		Text:     v.StatusText(),
		Selected: v.Selected(),
		Colour:   MarkerColour(v).Hex(),
		At:       at.UTC(),
	}
}

// Encode returns the JSON form of the message.
func (m StatusMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}
