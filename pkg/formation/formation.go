// Package formation reconciles the landing-grid inputs of a drone show into
// a single consistent layout.
//
// A layout is described by a column count (drones per row), a row count and
// an optional total. When the total does not fill the rectangle, the last
// row is partial and the outline becomes a six-sided "hexagon". Inputs that
// cannot describe one grid (a total needing more or fewer rows than
// configured) are reported as a contradiction rather than an error.
//
// [Build] never fails: every invalid state is expressed through the Model's
// flags, [Reason] and Message.
package formation

import (
	"fmt"
	"math"

	"github.com/matzehuels/dancespec/pkg/area"
	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/spacing"
)

// MaxDrones bounds every count and the size of the full grid. Larger
// values are treated as missing by [Build] and rejected by
// [Input.CheckLimits].
const MaxDrones = 20000

// Reason explains why a model cannot be drawn.
type Reason string

// Failure reasons. A model that cannot render carries exactly one of them.
const (
	ReasonNone          Reason = ""
	ReasonInputRequired Reason = "input_required"
	ReasonContradiction Reason = "contradiction"
)

// Contradiction identifies which consistency rule the inputs break.
type Contradiction int

const (
	NoContradiction Contradiction = iota
	RowsExceedY                   // the total needs more rows than configured
	RowsUnderY                    // the total fits in fewer rows than configured
	TotalExceedsGrid              // the total is larger than x·y
)

func (c Contradiction) String() string {
	switch c {
	case RowsExceedY:
		return "rowsExceedY"
	case RowsUnderY:
		return "rowsUnderY"
	case TotalExceedsGrid:
		return "totalExceedsGrid"
	default:
		return "none"
	}
}

// Input is the numeric description of a grid. Absent values are NaN.
// Counts must be whole numbers in (0, MaxDrones]; fractional counts such as
// 2.5 are treated as missing, the same as zero or NaN.
type Input struct {
	CountX float64
	CountY float64
	Total  float64

	// AlongRows drives the horizontal extent, AlongColumns the vertical one.
	AlongRows    []float64
	AlongColumns []float64
}

// FromArea extracts the grid input from an area configuration.
//
// The "vertical" spacing input drives the width and the "horizontal" input
// drives the height. Catalog data has always been entered under this
// convention, so it is kept as is.
func FromArea(cfg *area.Config) Input {
	if cfg == nil {
		return Input{CountX: math.NaN(), CountY: math.NaN(), Total: math.NaN()}
	}
	return Input{
		CountX:       cfg.DroneCount.XCount.Float(),
		CountY:       cfg.DroneCount.YCount.Float(),
		Total:        cfg.DroneCount.Count.Float(),
		AlongRows:    spacing.Parse(string(cfg.Spacing.Vertical)),
		AlongColumns: spacing.Parse(string(cfg.Spacing.Horizontal)),
	}
}

// CheckLimits reports an INVALID_INPUT error when a count, or the full
// x·y grid of a layout without a total, exceeds MaxDrones. Callers taking
// untrusted input run it before [Build].
func (in Input) CheckLimits() error {
	for _, c := range []struct {
		name string
		v    float64
	}{{"x_count", in.CountX}, {"y_count", in.CountY}, {"count", in.Total}} {
		if c.v > MaxDrones {
			return errors.New(errors.ErrCodeInvalidInput, "%s %g exceeds the limit of %d drones", c.name, c.v, MaxDrones)
		}
	}
	if !(in.Total > 0) && in.CountX*in.CountY > MaxDrones {
		return errors.New(errors.ErrCodeInvalidInput, "a %g × %g grid exceeds the limit of %d drones", in.CountX, in.CountY, MaxDrones)
	}
	return nil
}

// Point is a position in view pixels.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned box in view pixels.
type Rect struct {
	X, Y, W, H float64
}

// Corners are the 0-based, row-major drone indices at the outline corners.
type Corners struct {
	TL, TR, BL, BR int
}

// View is the drawing viewport.
type View struct {
	W, H     float64
	Margin   float64 // padding on every side
	OffsetX  float64 // horizontal bias applied after centering
	Fallback float64 // spacing used for gaps when a sequence is empty
}

// DefaultView matches the landing figure slot of the instruction sheet.
var DefaultView = View{W: 460, H: 220, Margin: 36, OffsetX: 15, Fallback: 1}

// Option adjusts the viewport used by [Build].
type Option func(*View)

// WithView sets the viewport size.
func WithView(w, h float64) Option {
	return func(v *View) { v.W, v.H = w, h }
}

// WithMargin sets the padding on every side.
func WithMargin(m float64) Option {
	return func(v *View) { v.Margin = m }
}

// WithOffsetX sets the horizontal bias.
func WithOffsetX(x float64) Option {
	return func(v *View) { v.OffsetX = x }
}

// WithFallback sets the spacing used when a sequence is empty.
func WithFallback(f float64) Option {
	return func(v *View) { v.Fallback = f }
}

// Presentation limits for the partial-row cut.
const (
	minLastRowHeight  = 0.15 // of the rectangle height
	maxPartialRowWide = 0.92 // of the rectangle width
	minAspect         = 0.25 // height never below a quarter of the width
)

// Model is the derived layout. It holds no references to its input.
type Model struct {
	XOk       bool
	YOk       bool
	SpacingOk bool
	CanRender bool

	Reason        Reason
	Contradiction Contradiction
	Message       string

	CountX   int
	CountY   int
	Total    int
	HasTotal bool
	FullRect int

	ActualRows   int
	LastRowCount int
	IsHexagon    bool

	AlongRows    []float64
	AlongColumns []float64

	WidthM  float64
	HeightM float64

	// Corners is nil unless both counts are valid.
	Corners *Corners

	View  View
	Scale float64
	Rect  Rect

	// Polygon is set only for hexagonal layouts with valid counts.
	Polygon []Point

	// CornerTRX and CornerBRX are the x positions of the top-right and
	// bottom-right corner labels.
	CornerTRX float64
	CornerBRX float64
}

// Build computes the layout model for in.
func Build(in Input, opts ...Option) Model {
	view := DefaultView
	for _, opt := range opts {
		opt(&view)
	}

	m := Model{
		View:         view,
		AlongRows:    append([]float64(nil), in.AlongRows...),
		AlongColumns: append([]float64(nil), in.AlongColumns...),
	}

	countX, xOk := positiveInt(in.CountX)
	countY, yOk := positiveInt(in.CountY)
	total, hasTotal := positiveInt(in.Total)

	m.XOk, m.YOk = xOk, yOk
	m.SpacingOk = len(in.AlongRows) > 0 && len(in.AlongColumns) > 0
	m.HasTotal = hasTotal
	if xOk {
		m.CountX = countX
	}
	if yOk {
		m.CountY = countY
	}
	if hasTotal {
		m.Total = total
	}
	m.FullRect = m.CountX * m.CountY

	switch {
	case hasTotal && xOk:
		m.ActualRows = (total + countX - 1) / countX
		m.LastRowCount = total - (m.ActualRows-1)*countX
	case hasTotal:
		m.ActualRows = 0
	default:
		m.ActualRows = m.CountY
		m.LastRowCount = m.CountX
	}

	m.checkContradiction()

	m.CanRender = xOk && yOk && m.SpacingOk && m.Contradiction == NoContradiction
	switch {
	case m.CanRender:
		m.Reason = ReasonNone
	case m.Contradiction != NoContradiction:
		m.Reason = ReasonContradiction
	default:
		m.Reason = ReasonInputRequired
	}

	if xOk && countX >= 2 {
		m.WidthM = spacing.CumulativeDistance(countX-1, in.AlongRows, view.Fallback)
	}
	if yOk && m.ActualRows >= 2 {
		m.HeightM = spacing.CumulativeDistance(m.ActualRows-1, in.AlongColumns, view.Fallback)
	}

	m.IsHexagon = hasTotal && xOk && yOk && total < m.FullRect &&
		m.LastRowCount > 0 && m.LastRowCount < countX

	if xOk && yOk {
		m.Corners = m.corners()
	}

	m.fit()
	if m.IsHexagon {
		m.Polygon = m.hexagon()
	}
	return m
}

// positiveInt accepts finite, positive, integral values up to MaxDrones.
func positiveInt(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v != math.Trunc(v) || v > MaxDrones {
		return 0, false
	}
	return int(v), true
}

func (m *Model) checkContradiction() {
	if !m.HasTotal || !m.XOk || !m.YOk {
		return
	}
	exceedsGrid := m.Total > m.FullRect
	rowsExceed := m.ActualRows > m.CountY
	rowsUnder := m.ActualRows < m.CountY

	switch {
	case rowsExceed:
		m.Contradiction = RowsExceedY
		if exceedsGrid {
			m.Message = fmt.Sprintf("総機体数 %d 機が x機体数 × y機体数 の上限 %d 機を超えています（必要な行数 %d > y機体数 %d）",
				m.Total, m.FullRect, m.ActualRows, m.CountY)
		} else {
			m.Message = fmt.Sprintf("総機体数 %d 機には %d 行が必要ですが、y機体数は %d です",
				m.Total, m.ActualRows, m.CountY)
		}
	case rowsUnder:
		m.Contradiction = RowsUnderY
		m.Message = fmt.Sprintf("総機体数 %d 機は %d 行で収まり、y機体数 %d に届きません",
			m.Total, m.ActualRows, m.CountY)
	case exceedsGrid:
		m.Contradiction = TotalExceedsGrid
	}
}

func (m *Model) corners() *Corners {
	c := &Corners{
		BL: 0,
		BR: m.CountX - 1,
		TL: (m.ActualRows - 1) * m.CountX,
		TR: m.FullRect - 1,
	}
	if m.IsHexagon && m.ActualRows == 1 {
		c.BR = m.Total - 1
	}
	if m.HasTotal {
		c.TR = m.Total - 1
	}
	return c
}

// fit scales the real extents uniformly into the padded viewport.
func (m *Model) fit() {
	v := m.View
	usableW := v.W - 2*v.Margin
	usableH := v.H - 2*v.Margin

	safeW := math.Max(m.WidthM, 1)
	safeH := math.Max(m.HeightM, 1)
	safeH = math.Max(safeH, safeW*minAspect)

	m.Scale = math.Min(usableW/safeW, usableH/safeH)
	w := safeW * m.Scale
	h := safeH * m.Scale
	m.Rect = Rect{
		X: (v.W-w)/2 + v.OffsetX,
		Y: (v.H - h) / 2,
		W: w,
		H: h,
	}
	m.CornerTRX = m.Rect.X + m.Rect.W
	m.CornerBRX = m.Rect.X + m.Rect.W
}

// hexagon returns the six-point outline of a grid whose top row is partial,
// starting bottom-left: BL, BR, right-at-cut, cut corner, top-right of the
// partial row, TL.
func (m *Model) hexagon() []Point {
	r := m.Rect
	fb := m.View.Fallback
	partialW := spacing.CumulativeDistance(m.LastRowCount-1, m.AlongRows, fb) * m.Scale

	if m.ActualRows == 1 {
		partialW = math.Min(partialW, r.W)
		right := r.X + partialW
		m.CornerTRX = right
		m.CornerBRX = right
		// The cut vertices coincide at the top-right of the clipped box.
		return []Point{
			{r.X, r.Y + r.H},
			{right, r.Y + r.H},
			{right, r.Y},
			{right, r.Y},
			{right, r.Y},
			{r.X, r.Y},
		}
	}

	var lastH float64
	if m.ActualRows == 2 {
		lastH = r.H / 2
	} else {
		upper := spacing.CumulativeDistance(m.ActualRows-1, m.AlongColumns, fb)
		lower := spacing.CumulativeDistance(m.ActualRows-2, m.AlongColumns, fb)
		lastH = (upper - lower) * m.Scale
	}
	lastH = math.Max(lastH, r.H*minLastRowHeight)
	partialW = math.Min(partialW, r.W*maxPartialRowWide)

	cutY := r.Y + lastH
	cutX := r.X + partialW
	m.CornerTRX = cutX
	return []Point{
		{r.X, r.Y + r.H},
		{r.X + r.W, r.Y + r.H},
		{r.X + r.W, cutY},
		{cutX, cutY},
		{cutX, r.Y},
		{r.X, r.Y},
	}
}
