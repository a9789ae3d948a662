package query

import (
	"math"
	"strconv"
	"strings"
)

// Coordinate is a target-dimension spec. A value in (0, 1) is a ratio of
// the reference dimension, a value >= 1 is an absolute pixel count, and the
// zero Coordinate means "not requested".
type Coordinate struct {
	value float64
	set   bool
}

// ParseCoordinate parses a dimension spec from a raw query value. Values
// that are not finite positive numbers report ok == false so the caller
// falls back to the unspecified Coordinate.
func ParseCoordinate(s string) (Coordinate, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return Coordinate{}, false
	}
	return Coordinate{value: f, set: true}, true
}

// Unspecified reports whether no dimension was requested.
func (c Coordinate) Unspecified() bool {
	return !c.set
}

// ToPixels resolves the spec against a reference dimension. Unspecified
// coordinates resolve to 0, the pipeline's "keep the original" marker.
func (c Coordinate) ToPixels(ref int) int {
	if !c.set {
		return 0
	}
	if c.value < 1 {
		return int(math.Round(c.value * float64(ref)))
	}
	return int(math.Round(c.value))
}
