// Package orientation places the drone orientation icon and its antenna and
// battery labels.
//
// The same rotation is rendered in two contexts. The interactive context
// uses the on-screen radius; the export context scales everything by the
// sheet's DPI ratio and applies a per-angle correction so labels clear the
// icon artwork.
package orientation

import (
	"math"

	"github.com/matzehuels/dancespec/pkg/area"
)

// DefaultDeg is used when no orientation is configured.
const DefaultDeg = 180

// exportRatio converts CSS pixels at 96 DPI to the 130 DPI sheet.
const exportRatio = 130.0 / 96.0

// Point is an offset from the icon center in pixels.
type Point struct {
	X, Y float64
}

// Context describes a rendering surface.
type Context struct {
	Name       string
	Radius     float64
	YOffset    float64
	Correction bool
}

// Built-in contexts.
var (
	Interactive = Context{Name: "interactive", Radius: 75, YOffset: 35}
	Export      = Context{Name: "export", Radius: 75 * exportRatio, YOffset: 35 * exportRatio, Correction: true}
)

// ContextByName resolves "interactive" or "export".
func ContextByName(name string) (Context, bool) {
	switch name {
	case Interactive.Name:
		return Interactive, true
	case Export.Name:
		return Export, true
	}
	return Context{}, false
}

// shift is an upward pixel correction per label.
type shift struct {
	antenna, battery float64
}

// corrections applies only in the export context, keyed by the normalized
// angle.
var corrections = map[int]shift{
	0:   {antenna: 70, battery: 3},  // antenna down
	90:  {antenna: 55, battery: 20}, // antenna right
	180: {antenna: 33, battery: 33}, // antenna up
	270: {antenna: 58, battery: 22}, // antenna left
}

// Placement is the resolved icon rotation and label positions.
type Placement struct {
	Rotation float64 // degrees, normalized to [0, 360)
	Antenna  Point
	Battery  Point
}

// Normalize maps deg into [0, 360). Non-finite input yields DefaultDeg.
func Normalize(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return DefaultDeg
	}
	n := math.Mod(deg, 360)
	if n < 0 {
		n += 360
	}
	return n
}

// Resolve computes the placement for deg in ctx.
func Resolve(deg float64, ctx Context) Placement {
	n := Normalize(deg)
	p := Placement{
		Rotation: n,
		Antenna:  polar(n+90, ctx),
		Battery:  polar(n+270, ctx),
	}
	if ctx.Correction && n == math.Trunc(n) {
		if c, ok := corrections[int(n)]; ok {
			p.Antenna.Y -= c.antenna
			p.Battery.Y -= c.battery
		}
	}
	return p
}

// FromArea returns the configured orientation in degrees.
func FromArea(cfg *area.Config) float64 {
	return cfg.OrientationDeg()
}

func polar(deg float64, ctx Context) Point {
	rad := math.Mod(deg, 360) * math.Pi / 180
	return Point{
		X: ctx.Radius * math.Cos(rad),
		Y: ctx.Radius*math.Sin(rad) + ctx.YOffset,
	}
}
