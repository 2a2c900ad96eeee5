package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/los-sampler/model"
)

// WaypointsFromTLE samples an SGP4-propagated orbit into count ECEF
// waypoints (kilometres), step apart starting at start. Feeding the result
// to PathAnimator closes the loop from the last sample back to the first, so
// count*step should roughly match one orbital period.
func WaypointsFromTLE(line1, line2 string, start time.Time, step time.Duration, count int) ([]model.Point, error) {
	if count < 2 {
		return nil, fmt.Errorf("%w: orbit loop needs at least 2 samples, got %d", ErrInvalidConfig, count)
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: orbit sample step must be positive, got %s", ErrInvalidConfig, step)
	}
	if err := ValidateTLE(line1, line2); err != nil {
		return nil, err
	}

	sat := satellite.TLEToSat(strings.TrimRight(line1, " \r\n"), strings.TrimRight(line2, " \r\n"), satellite.GravityWGS72)

	points := make([]model.Point, 0, count)
	for i := 0; i < count; i++ {
		points = append(points, propagateECEF(sat, start.Add(time.Duration(i)*step).UTC()))
	}
	return points, nil
}

func propagateECEF(sat satellite.Satellite, at time.Time) model.Point {
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	return model.Point{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
}

const tleLineLen = 69

// tleField is a fixed-column TLE field as go-satellite reads it: the raw
// text is rewritten by conv before being parsed as a number.
type tleField struct {
	name    string
	integer bool
	conv    func(line string) string
}

func stripSpaces(s string) string { return strings.Replace(s, " ", "", 2) }

var (
	tleLine1Fields = []tleField{
		{name: "catalog number", integer: true, conv: func(l string) string { return strings.TrimSpace(l[2:7]) }},
		{name: "epoch year", integer: true, conv: func(l string) string { return l[18:20] }},
		{name: "epoch day", conv: func(l string) string { return l[20:32] }},
		{name: "mean motion first derivative", conv: func(l string) string { return stripSpaces(l[33:43]) }},
		{name: "mean motion second derivative", conv: func(l string) string { return stripSpaces(l[44:45] + "." + l[45:50] + "e" + l[50:52]) }},
		{name: "bstar", conv: func(l string) string { return stripSpaces(l[53:54] + "." + l[54:59] + "e" + l[59:61]) }},
	}
	tleLine2Fields = []tleField{
		{name: "inclination", conv: func(l string) string { return stripSpaces(l[8:16]) }},
		{name: "right ascension", conv: func(l string) string { return stripSpaces(l[17:25]) }},
		{name: "eccentricity", conv: func(l string) string { return "." + l[26:33] }},
		{name: "argument of perigee", conv: func(l string) string { return stripSpaces(l[34:42]) }},
		{name: "mean anomaly", conv: func(l string) string { return stripSpaces(l[43:51]) }},
		{name: "mean motion", conv: func(l string) string { return stripSpaces(l[52:63]) }},
	}
)

// ValidateTLE checks that both lines have the fixed-column layout SGP4
// parsing expects. go-satellite exits the process on malformed fields, so
// lines must pass here before reaching it.
func ValidateTLE(line1, line2 string) error {
	if err := validateTLELine(1, line1, tleLine1Fields); err != nil {
		return err
	}
	return validateTLELine(2, line2, tleLine2Fields)
}

func validateTLELine(n int, line string, fields []tleField) error {
	line = strings.TrimRight(line, " \r\n")
	if len(line) != tleLineLen {
		return fmt.Errorf("%w: TLE line %d must be %d characters, got %d", ErrInvalidConfig, n, tleLineLen, len(line))
	}
	if prefix := strconv.Itoa(n) + " "; !strings.HasPrefix(line, prefix) {
		return fmt.Errorf("%w: TLE line %d must start with %q", ErrInvalidConfig, n, prefix)
	}
	for _, f := range fields {
		raw := f.conv(line)
		var err error
		if f.integer {
			_, err = strconv.ParseInt(raw, 10, 64)
		} else {
			_, err = strconv.ParseFloat(raw, 64)
		}
		if err != nil {
			return fmt.Errorf("%w: TLE line %d %s %q is not numeric", ErrInvalidConfig, n, f.name, raw)
		}
	}
	return nil
}
