package figure

import (
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/matzehuels/dancespec/pkg/fonts"
)

// RasterOption configures bitmap output.
type RasterOption func(*rasterizer)

type rasterizer struct {
	fonts  *fonts.Registry
	family string
}

// WithFonts draws labels with a face from reg instead of the default registry.
func WithFonts(reg *fonts.Registry, family string) RasterOption {
	return func(r *rasterizer) { r.fonts, r.family = reg, family }
}

// Rasterize draws d onto a bitmap of ViewW×ViewH scaled by scale. A nil bg
// leaves the background transparent.
func Rasterize(d Drawing, scale float64, bg color.Color, opts ...RasterOption) image.Image {
	r := rasterizer{fonts: fonts.Default(), family: fonts.FamilyRegular}
	for _, opt := range opts {
		opt(&r)
	}
	if scale <= 0 {
		scale = 1
	}

	w := int(math.Ceil(d.ViewW * scale))
	h := int(math.Ceil(d.ViewH * scale))
	dc := gg.NewContext(max(w, 1), max(h, 1))
	if bg != nil {
		dc.SetColor(bg)
		dc.Clear()
	}
	dc.Scale(scale, scale)

	markerFill := withAlpha(ParseHexColor(d.MarkerFill), 1)
	for _, s := range d.Shapes {
		switch s := s.(type) {
		case Box:
			dc.DrawRectangle(s.X, s.Y, s.W, s.H)
			r.paint(dc, s.Paint)
		case Polygon:
			for i, p := range s.Points {
				if i == 0 {
					dc.MoveTo(p.X, p.Y)
				} else {
					dc.LineTo(p.X, p.Y)
				}
			}
			dc.ClosePath()
			r.paint(dc, s.Paint)
		case Line:
			dc.SetColor(withAlpha(ParseHexColor(s.Stroke), s.Opacity))
			dc.SetLineWidth(s.Width)
			dc.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
			dc.Stroke()
			if s.Arrows {
				drawArrow(dc, s.X2, s.Y2, s.X1, s.Y1, s.Width, markerFill)
				drawArrow(dc, s.X1, s.Y1, s.X2, s.Y2, s.Width, markerFill)
			}
		case Text:
			dc.SetFontFace(r.fonts.Face(r.family, s.Size))
			dc.SetColor(withAlpha(ParseHexColor(s.Fill), opacityOr1(s.Opacity)))
			ay := 0.0
			if s.Middle {
				ay = 0.5
			}
			dc.DrawStringAnchored(s.Content, s.X, s.Y, anchorX(s.Anchor), ay)
		}
	}
	return dc.Image()
}

func (r rasterizer) paint(dc *gg.Context, p Paint) {
	dc.SetColor(withAlpha(ParseHexColor(p.Fill), p.FillOpacity))
	dc.FillPreserve()
	dc.SetColor(withAlpha(ParseHexColor(p.Stroke), p.StrokeOpacity))
	dc.SetLineWidth(p.StrokeWidth)
	dc.Stroke()
}

// drawArrow draws the marker at (x, y) pointing away from (fromX, fromY).
// The marker is a 6×6 triangle in stroke-width units with its tip at refX 5.
func drawArrow(dc *gg.Context, x, y, fromX, fromY, width float64, c color.Color) {
	angle := math.Atan2(y-fromY, x-fromX)
	dc.Push()
	dc.Translate(x, y)
	dc.Rotate(angle)
	dc.Scale(width, width)
	dc.MoveTo(-5, -3)
	dc.LineTo(1, 0)
	dc.LineTo(-5, 3)
	dc.ClosePath()
	dc.SetColor(c)
	dc.Fill()
	dc.Pop()
}

func anchorX(a Anchor) float64 {
	switch a {
	case AnchorMiddle:
		return 0.5
	case AnchorEnd:
		return 1
	default:
		return 0
	}
}

func opacityOr1(o float64) float64 {
	if o <= 0 {
		return 1
	}
	return o
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(math.Max(0, math.Min(1, a)) * 255))
	return c
}

// ParseHexColor parses #RGB or #RRGGBB. Invalid input yields opaque black.
func ParseHexColor(s string) color.NRGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	black := color.NRGBA{A: 255}
	if len(s) != 6 {
		return black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return black
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
