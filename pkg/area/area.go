// Package area models the flight-area configuration a schedule carries and
// decodes it from the formats the catalog and the CLI exchange.
//
// Every field is optional. Numeric fields accept JSON numbers, numeric
// strings or null; anything unparseable decodes to an unset [Number] so
// downstream geometry can report "input required" instead of failing.
package area

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Config is the flight-area configuration of a single schedule.
type Config struct {
	DroneCount   DroneCount    `json:"drone_count"`
	Spacing      Spacing       `json:"spacing_between_drones_m"`
	Orientation  Number        `json:"drone_orientation_deg"`
	FlightArea   FlightArea    `json:"flight_area"`
	Geometry     Geometry      `json:"geometry"`
	Animation    AnimationArea `json:"animation_area"`
	Actions      Actions       `json:"actions"`
	Lights       Lights        `json:"lights"`
	ReturnNote   string        `json:"return_note,omitempty"`
	ObstacleNote string        `json:"obstacle_note,omitempty"`
}

// DroneCount describes the landing grid.
type DroneCount struct {
	XCount Number `json:"x_count"`
	YCount Number `json:"y_count"`
	Count  Number `json:"count"`
	Model  string `json:"model,omitempty"`
}

// Spacing holds the two delimited distance lists, in meters.
type Spacing struct {
	Horizontal Text `json:"horizontal"`
	Vertical   Text `json:"vertical"`
}

// FlightArea holds the altitude band.
type FlightArea struct {
	AltitudeMin Number `json:"altitude_min_m"`
	AltitudeMax Number `json:"altitude_max_m"`
}

// Geometry is the map-derived part of the configuration.
type Geometry struct {
	FlightAltitude    Number   `json:"flightAltitude_m"`
	FlightAltitudeMin Number   `json:"flightAltitude_min_m"`
	FlightAltitudeMax Number   `json:"flightAltitude_Max_m"`
	Turn              *Turn    `json:"turn,omitempty"`
	FlightAreaShape   *Ellipse `json:"flightArea,omitempty"`
}

// Turn is the rotation performed by the formation after liftoff.
type Turn struct {
	Direction string `json:"direction"`
	AngleDeg  Number `json:"angle_deg"`
}

// Ellipse is the drawn flight area.
type Ellipse struct {
	RadiusX Number `json:"radiusX_m"`
	RadiusY Number `json:"radiusY_m"`
}

// AnimationArea is the explicit animation footprint.
type AnimationArea struct {
	Width Number `json:"width_m"`
	Depth Number `json:"depth_m"`
}

// Actions holds free-text movement notes.
type Actions struct {
	Liftoff string `json:"liftoff,omitempty"`
}

// Lights holds the lighting cues for takeoff and landing.
type Lights struct {
	Takeoff string `json:"takeoff,omitempty"`
	Landing string `json:"landing,omitempty"`
}

// OrientationDeg returns the configured drone orientation, or 180 (antenna
// up) when none was set.
func (c *Config) OrientationDeg() float64 {
	if c == nil || !c.Orientation.Valid() {
		return 180
	}
	return c.Orientation.Float()
}

// =============================================================================
// Number
// =============================================================================

// Number is an optional real value that remembers how it was written.
type Number struct {
	v   float64
	raw string
	set bool
}

// NewNumber returns a set Number.
func NewNumber(v float64) Number {
	return Number{v: v, set: true}
}

// Float returns the value, or NaN when unset.
func (n Number) Float() float64 {
	if !n.set {
		return math.NaN()
	}
	return n.v
}

// Valid reports whether the number is set and finite.
func (n Number) Valid() bool {
	return n.set && !math.IsNaN(n.v) && !math.IsInf(n.v, 0)
}

// String returns the value as written, or "" when unset.
func (n Number) String() string {
	if !n.set {
		return ""
	}
	if n.raw != "" {
		return n.raw
	}
	return strconv.FormatFloat(n.v, 'f', -1, 64)
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if v, err := strconv.ParseFloat(s, 64); err == nil && s != "" {
			*n = Number{v: v, raw: s, set: true}
		}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil
	}
	*n = Number{v: v, set: true}
	return nil
}

// MarshalJSON writes the number, or null when unset.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.v, 'f', -1, 64)), nil
}

// =============================================================================
// Text
// =============================================================================

// Text is a string field that tolerates numeric input.
type Text string

// UnmarshalJSON accepts strings, numbers and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*t = Text(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err == nil {
		*t = Text(data)
	}
	return nil
}
