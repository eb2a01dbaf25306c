package capture

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/dancespec/pkg/figure"
	"github.com/matzehuels/dancespec/pkg/fonts"
	"github.com/matzehuels/dancespec/pkg/template"
)

// Scene is a laid-out page ready to paint. Sizes are design pixels.
type Scene struct {
	Page       template.Page
	Vars       map[string]string
	Fonts      *fonts.Registry
	Images     map[int]image.Image // by element index
	Background color.Color
	Width      float64
	Height     float64
	Scale      float64
}

// Rasterizer paints a scene.
type Rasterizer interface {
	Rasterize(s Scene) (image.Image, error)
}

// GGRasterizer paints scenes with fogleman/gg.
type GGRasterizer struct{}

const defaultLineHeight = 1.4

// Rasterize implements [Rasterizer].
func (GGRasterizer) Rasterize(s Scene) (image.Image, error) {
	w := int(math.Ceil(s.Width * s.Scale))
	h := int(math.Ceil(s.Height * s.Scale))
	dc := gg.NewContext(max(w, 1), max(h, 1))
	if s.Background != nil {
		dc.SetColor(s.Background)
		dc.Clear()
	}

	for i := range s.Page.Elements {
		el := &s.Page.Elements[i]
		if el.Hidden {
			continue
		}
		dc.Push()
		dc.Scale(s.Scale, s.Scale)
		switch el.Kind {
		case template.KindRect:
			dc.DrawRectangle(el.X, el.Y, el.W, el.H)
			dc.SetColor(s.color(el.Fill))
			dc.Fill()
		case template.KindGradient:
			grad := gg.NewLinearGradient(el.X, el.Y, el.Right(), el.Y)
			grad.AddColorStop(0, s.color(el.From))
			grad.AddColorStop(1, s.color(el.To))
			dc.SetFillStyle(grad)
			dc.DrawRectangle(el.X, el.Y, el.W, el.H)
			dc.Fill()
		case template.KindText:
			s.drawText(dc, el)
		case template.KindImage:
			if img, ok := s.Images[i]; ok {
				s.drawImage(dc, el, img)
			}
		case template.KindSlot:
			if el.Drawing != nil {
				s.drawFigure(dc, el, *el.Drawing)
			}
		}
		dc.Pop()
	}
	return dc.Image(), nil
}

func (s Scene) color(c string) color.Color {
	return figure.ParseHexColor(template.ResolveColor(c, s.Vars))
}

func (s Scene) drawText(dc *gg.Context, el *template.Element) {
	if el.Text == "" {
		return
	}
	size := el.FontSize
	if size <= 0 {
		size = 16
	}
	dc.SetFontFace(s.Fonts.Face(el.Family, size))
	dc.SetColor(s.color(el.Color))

	ax, align := 0.0, gg.AlignLeft
	x := el.X
	switch el.Align {
	case "center":
		ax, align, x = 0.5, gg.AlignCenter, el.X+el.W/2
	case "right":
		ax, align, x = 1, gg.AlignRight, el.Right()
	}

	if el.SingleLine {
		line := strings.ReplaceAll(el.Text, "\n", " ")
		dc.DrawStringAnchored(line, x, el.Y+el.H/2, ax, 0.5)
		return
	}
	spacing := el.LineHeight
	if spacing <= 0 {
		spacing = defaultLineHeight
	}
	dc.DrawStringWrapped(el.Text, x, el.Y, ax, 0, el.W, spacing, align)
}

// drawImage paints img fit-contain and centered in the element box,
// rotated about the box center.
func (s Scene) drawImage(dc *gg.Context, el *template.Element, img image.Image) {
	bw := int(math.Round(el.W * s.Scale))
	bh := int(math.Round(el.H * s.Scale))
	if bw <= 0 || bh <= 0 {
		return
	}
	fitted := imaging.Fit(img, bw, bh, imaging.Lanczos)
	cx, cy := el.Center()
	if el.Rotate != 0 {
		dc.RotateAbout(gg.Radians(el.Rotate), cx, cy)
	}
	// Draw at device resolution.
	dc.Translate(cx, cy)
	dc.Scale(1/s.Scale, 1/s.Scale)
	dc.DrawImageAnchored(fitted, 0, 0, 0.5, 0.5)
}

func (s Scene) drawFigure(dc *gg.Context, el *template.Element, d figure.Drawing) {
	if d.ViewW <= 0 || d.ViewH <= 0 {
		return
	}
	k := min(el.W/d.ViewW, el.H/d.ViewH)
	family := fonts.FamilyRegular
	if el.Family != "" {
		family = el.Family
	}
	img := figure.Rasterize(d, k*s.Scale, nil, figure.WithFonts(s.Fonts, family))
	cx, cy := el.Center()
	dc.Translate(cx, cy)
	dc.Scale(1/s.Scale, 1/s.Scale)
	dc.DrawImageAnchored(img, 0, 0, 0.5, 0.5)
}
