// Package figure turns a formation layout into drawing instructions and
// renders them as SVG or as a bitmap.
//
// [Render] is pure: it maps a [formation.Model] and a [Theme] to a [Drawing]
// value. The sinks ([RenderSVG], [Rasterize]) are the only code that knows
// about an output surface.
package figure

import (
	"github.com/google/uuid"

	"github.com/matzehuels/dancespec/pkg/formation"
	"github.com/matzehuels/dancespec/pkg/spacing"
)

// Prompt is shown in place of the figure when inputs are missing.
const Prompt = "x機体数 / y機体数 / 間隔 を入力してください"

// Theme holds the colors of a figure. Themes differ only in colors.
type Theme struct {
	Name   string
	Label  string // corner indices and the prompt
	Dim    string // dimension lines, arrow heads and distance labels
	Stroke string
	Fill   string
}

// Built-in themes.
var (
	// ThemeExport is drawn on the white instruction sheet.
	ThemeExport = Theme{Name: "export", Label: "#000000", Dim: "#000000", Stroke: "#ed1b24", Fill: "#ed1b24"}
	// ThemeUI is drawn on the dark application background.
	ThemeUI = Theme{Name: "ui", Label: "#ffffff", Dim: "#ffffff", Stroke: "#ed1b24", Fill: "#ed1b24"}
)

// ThemeByName resolves "export" or "ui".
func ThemeByName(name string) (Theme, bool) {
	switch name {
	case ThemeExport.Name, "":
		return ThemeExport, true
	case ThemeUI.Name:
		return ThemeUI, true
	}
	return Theme{}, false
}

// Anchor is the horizontal text alignment.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// Shape is one drawing instruction.
type Shape interface {
	isShape()
}

// Paint describes stroke and fill of a closed outline.
type Paint struct {
	Stroke        string
	StrokeWidth   float64
	StrokeOpacity float64
	Fill          string
	FillOpacity   float64
}

// Box is a rectangle outline.
type Box struct {
	formation.Rect
	Paint
}

// Polygon is a closed outline through Points.
type Polygon struct {
	Points []formation.Point
	Paint
}

// Line is a dimension line; Arrows puts the marker on both ends.
type Line struct {
	X1, Y1, X2, Y2 float64
	Stroke         string
	Width          float64
	Opacity        float64
	Arrows         bool
}

// Text is a single-line label. When Middle is set, Y is the vertical center
// of the text instead of its baseline.
type Text struct {
	X, Y    float64
	Content string
	Size    float64
	Fill    string
	Anchor  Anchor
	Middle  bool
	Opacity float64
}

func (Box) isShape()     {}
func (Polygon) isShape() {}
func (Line) isShape()    {}
func (Text) isShape()    {}

// Drawing is a complete figure in viewport coordinates.
type Drawing struct {
	ViewW, ViewH float64
	MarkerID     string
	MarkerFill   string
	Shapes       []Shape
}

// newMarkerID is replaced in tests.
var newMarkerID = func() string { return "arrow-" + uuid.NewString() }

var outlinePaint = Paint{StrokeWidth: 2, StrokeOpacity: 0.9, FillOpacity: 0.35}

// Label offsets from the outline, in view pixels.
const (
	cornerLabelSize = 12
	promptSize      = 15
	topLabelGap     = 8
	bottomLabelGap  = 16
	dimLineGap      = 26
	dimLabelGap     = 42
	vDimLineGap     = 15
	vDimLabelGap    = 20
)

// Render maps a layout model to drawing instructions.
func Render(m formation.Model, theme Theme) Drawing {
	d := Drawing{
		ViewW:      m.View.W,
		ViewH:      m.View.H,
		MarkerID:   newMarkerID(),
		MarkerFill: theme.Dim,
	}

	if !m.CanRender {
		msg := Prompt
		if m.Reason == formation.ReasonContradiction && m.Message != "" {
			msg = m.Message
		}
		d.Shapes = append(d.Shapes, Text{
			X: m.View.W / 2, Y: m.View.H / 2,
			Content: msg, Size: promptSize, Fill: theme.Label,
			Anchor: AnchorMiddle, Middle: true, Opacity: 0.9,
		})
		return d
	}

	paint := outlinePaint
	paint.Stroke, paint.Fill = theme.Stroke, theme.Fill
	r := m.Rect
	if m.Polygon != nil {
		d.Shapes = append(d.Shapes, Polygon{Points: append([]formation.Point(nil), m.Polygon...), Paint: paint})
	} else {
		d.Shapes = append(d.Shapes, Box{Rect: r, Paint: paint})
	}

	if c := m.Corners; c != nil {
		corner := func(x, y float64, idx int, a Anchor) Text {
			return Text{X: x, Y: y, Content: itoa(idx), Size: cornerLabelSize, Fill: theme.Label, Anchor: a, Opacity: 1}
		}
		d.Shapes = append(d.Shapes,
			corner(r.X, r.Y-topLabelGap, c.TL, AnchorStart),
			corner(m.CornerTRX, r.Y-topLabelGap, c.TR, AnchorEnd),
			corner(r.X, r.Y+r.H+bottomLabelGap, c.BL, AnchorStart),
			corner(m.CornerBRX, r.Y+r.H+bottomLabelGap, c.BR, AnchorEnd),
		)
	}

	bottom := r.Y + r.H + dimLineGap
	d.Shapes = append(d.Shapes,
		Line{X1: r.X, Y1: bottom, X2: r.X + r.W, Y2: bottom, Stroke: theme.Dim, Width: 1, Opacity: 0.9, Arrows: true},
		Text{
			X: r.X + r.W/2, Y: r.Y + r.H + dimLabelGap,
			Content: meters(m.XOk, m.WidthM), Size: cornerLabelSize, Fill: theme.Dim,
			Anchor: AnchorMiddle, Opacity: 1,
		},
	)

	left := r.X - vDimLineGap
	d.Shapes = append(d.Shapes,
		Line{X1: left, Y1: r.Y, X2: left, Y2: r.Y + r.H, Stroke: theme.Dim, Width: 1, Opacity: 0.9, Arrows: true},
		Text{
			X: r.X - vDimLabelGap, Y: r.Y + r.H/2,
			Content: meters(m.YOk, m.HeightM), Size: cornerLabelSize, Fill: theme.Dim,
			Anchor: AnchorEnd, Middle: true, Opacity: 1,
		},
	)
	return d
}

// Texts returns the text content of every label in drawing order.
func (d Drawing) Texts() []string {
	var out []string
	for _, s := range d.Shapes {
		if t, ok := s.(Text); ok {
			out = append(out, t.Content)
		}
	}
	return out
}

func meters(ok bool, v float64) string {
	if !ok {
		return "—m"
	}
	return spacing.FormatMeters(v) + "m"
}
