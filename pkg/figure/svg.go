package figure

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
)

// SVGOption configures SVG output.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width, height string
}

// WithSize sets the width and height attributes of the root element.
// The default lets the figure fill its container.
func WithSize(w, h string) SVGOption {
	return func(r *svgRenderer) { r.width, r.height = w, h }
}

// WithPixelSize sizes the root element to the viewport.
func WithPixelSize() SVGOption {
	return func(r *svgRenderer) { r.width, r.height = "", "" }
}

// RenderSVG serializes a drawing as a standalone SVG document.
func RenderSVG(d Drawing, opts ...SVGOption) []byte {
	r := svgRenderer{width: "100%", height: "100%"}
	for _, opt := range opts {
		opt(&r)
	}
	if r.width == "" {
		r.width = num(d.ViewW)
	}
	if r.height == "" {
		r.height = num(d.ViewH)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg" width="%s" height="%s">`+"\n",
		num(d.ViewW), num(d.ViewH), r.width, r.height)
	fmt.Fprintf(&buf, `  <defs>
    <marker id="%s" markerWidth="6" markerHeight="6" refX="5" refY="3" orient="auto-start-reverse">
      <path d="M0,0 L6,3 L0,6 Z" fill="%s" />
    </marker>
  </defs>`+"\n", escapeXML(d.MarkerID), escapeXML(d.MarkerFill))

	for _, s := range d.Shapes {
		switch s := s.(type) {
		case Box:
			fmt.Fprintf(&buf, `  <rect x="%s" y="%s" width="%s" height="%s" %s/>`+"\n",
				num(s.X), num(s.Y), num(s.W), num(s.H), paintAttrs(s.Paint))
		case Polygon:
			fmt.Fprintf(&buf, `  <polygon points="%s" %s/>`+"\n", points(s), paintAttrs(s.Paint))
		case Line:
			markers := ""
			if s.Arrows {
				markers = fmt.Sprintf(` marker-start="url(#%[1]s)" marker-end="url(#%[1]s)"`, escapeXML(d.MarkerID))
			}
			fmt.Fprintf(&buf, `  <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" opacity="%s"%s />`+"\n",
				num(s.X1), num(s.Y1), num(s.X2), num(s.Y2), s.Stroke, num(s.Width), num(s.Opacity), markers)
		case Text:
			baseline := ""
			if s.Middle {
				baseline = ` dominant-baseline="middle"`
			}
			opacity := ""
			if s.Opacity > 0 && s.Opacity < 1 {
				opacity = ` opacity="` + num(s.Opacity) + `"`
			}
			fmt.Fprintf(&buf, `  <text x="%s" y="%s" font-size="%s" fill="%s" text-anchor="%s"%s%s>%s</text>`+"\n",
				num(s.X), num(s.Y), num(s.Size), s.Fill, s.Anchor, baseline, opacity, escapeXML(s.Content))
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func paintAttrs(p Paint) string {
	return fmt.Sprintf(`stroke="%s" stroke-width="%s" stroke-opacity="%s" fill="%s" fill-opacity="%s" `,
		p.Stroke, num(p.StrokeWidth), num(p.StrokeOpacity), p.Fill, num(p.FillOpacity))
}

func points(p Polygon) string {
	var buf bytes.Buffer
	for i, pt := range p.Points {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(num(pt.X))
		buf.WriteByte(',')
		buf.WriteString(num(pt.Y))
	}
	return buf.String()
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func itoa(i int) string { return strconv.Itoa(i) }

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
