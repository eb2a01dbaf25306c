// Package template describes the two-page instruction sheet as data.
//
// A [Document] is decoded from TOML (an embedded default ships with the
// binary). Pages hold positioned elements in design pixels; text, image and
// slot elements are filled per export by [Populate], which never mutates
// its input. The capture package turns a populated [Page] into a bitmap.
package template

import (
	"slices"
	"strings"

	"github.com/matzehuels/dancespec/pkg/figure"
)

// Page ids required by every export.
const (
	CoverPage  = "page1"
	DetailPage = "page2"
)

// Kind is the element type.
type Kind string

const (
	KindText     Kind = "text"
	KindRect     Kind = "rect"
	KindGradient Kind = "gradient"
	KindImage    Kind = "image"
	KindSlot     Kind = "slot"
)

// Box is a rectangle in design pixels.
type Box struct {
	X float64 `toml:"x" json:"x"`
	Y float64 `toml:"y" json:"y"`
	W float64 `toml:"w" json:"w"`
	H float64 `toml:"h" json:"h"`
}

// Right returns the x of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns the y of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// Center returns the box center.
func (b Box) Center() (float64, float64) { return b.X + b.W/2, b.Y + b.H/2 }

// Offset positions an element's center relative to its anchor's center.
type Offset struct {
	DX, DY float64
}

// Element is one positioned item on a page.
type Element struct {
	ID    string `toml:"id"`
	Class string `toml:"class"` // space separated
	Kind  Kind   `toml:"kind"`
	Box

	Text       string  `toml:"text"`
	FontSize   float64 `toml:"font_size"`
	Family     string  `toml:"family"`
	Color      string  `toml:"color"`
	Align      string  `toml:"align"` // left, center, right
	LineHeight float64 `toml:"line_height"`
	SingleLine bool    `toml:"single_line"`

	Fill string `toml:"fill"`
	From string `toml:"from"`
	To   string `toml:"to"`

	Src    string  `toml:"src"`
	Hidden bool    `toml:"hidden"`
	Rotate float64 `toml:"rotate"` // degrees about the center

	// Anchor names an element id; when Offset is set the element is
	// centered on the anchor's center plus the offset.
	Anchor string  `toml:"anchor"`
	Offset *Offset `toml:"-"`

	// Drawing fills a slot element.
	Drawing *figure.Drawing `toml:"-"`
}

// HasClass reports whether the element carries class c.
func (e *Element) HasClass(c string) bool {
	return slices.Contains(strings.Fields(e.Class), c)
}

// Matches reports whether the element matches a "#id" or ".class" selector.
func (e *Element) Matches(selector string) bool {
	switch {
	case strings.HasPrefix(selector, "#"):
		return e.ID != "" && e.ID == selector[1:]
	case strings.HasPrefix(selector, "."):
		return e.HasClass(selector[1:])
	}
	return false
}

// Page is one sheet of the document.
type Page struct {
	ID         string    `toml:"id"`
	Background string    `toml:"background"`
	Width      float64   `toml:"width"`
	Height     float64   `toml:"height"`
	Elements   []Element `toml:"element"`
}

// Find returns pointers to the elements matching selector, in paint order.
func (p *Page) Find(selector string) []*Element {
	var out []*Element
	for i := range p.Elements {
		if p.Elements[i].Matches(selector) {
			out = append(out, &p.Elements[i])
		}
	}
	return out
}

// First returns the first element matching selector, or nil.
func (p *Page) First(selector string) *Element {
	if els := p.Find(selector); len(els) > 0 {
		return els[0]
	}
	return nil
}

// Stylesheet is an external resource the pages depend on.
type Stylesheet struct {
	Kind   string `toml:"kind"` // font or image
	Family string `toml:"family"`
	Href   string `toml:"href"`
}

// Boxes are the named layout regions used to place overlays.
type Boxes struct {
	LeftPane      Box     `toml:"left_pane"`
	MiddleColumn  Box     `toml:"middle_column"`
	TopBandHeight float64 `toml:"top_band_height"`
}

// TopSpan is the union of the left pane and the middle column, limited to
// the top band.
func (b Boxes) TopSpan() Box {
	x := min(b.LeftPane.X, b.MiddleColumn.X)
	y := min(b.LeftPane.Y, b.MiddleColumn.Y)
	right := max(b.LeftPane.Right(), b.MiddleColumn.Right())
	return Box{X: x, Y: y, W: right - x, H: b.TopBandHeight}
}

// Document is a parsed template.
type Document struct {
	Name         string            `toml:"name"`
	DesignWidth  float64           `toml:"design_width"`
	DesignHeight float64           `toml:"design_height"`
	Vars         map[string]string `toml:"vars"`
	Stylesheets  []Stylesheet      `toml:"stylesheet"`
	Boxes        Boxes             `toml:"boxes"`
	Pages        []Page            `toml:"page"`

	// Base resolves relative hrefs: "embed:", a directory, or a URL.
	Base string `toml:"-"`
}

// Page returns the page with the given id.
func (d *Document) Page(id string) (*Page, bool) {
	for i := range d.Pages {
		if d.Pages[i].ID == id {
			return &d.Pages[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	out := d
	out.Vars = make(map[string]string, len(d.Vars))
	for k, v := range d.Vars {
		out.Vars[k] = v
	}
	out.Stylesheets = slices.Clone(d.Stylesheets)
	out.Pages = make([]Page, len(d.Pages))
	for i, p := range d.Pages {
		out.Pages[i] = p.Clone()
	}
	return out
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	out := p
	out.Elements = make([]Element, len(p.Elements))
	for i, e := range p.Elements {
		if e.Offset != nil {
			o := *e.Offset
			e.Offset = &o
		}
		if e.Drawing != nil {
			dr := *e.Drawing
			dr.Shapes = slices.Clone(dr.Shapes)
			e.Drawing = &dr
		}
		out.Elements[i] = e
	}
	return out
}

// ResolveColor expands var(--name) references against vars.
func ResolveColor(c string, vars map[string]string) string {
	c = strings.TrimSpace(c)
	for range 4 {
		name, ok := strings.CutPrefix(c, "var(")
		if !ok {
			return c
		}
		name = strings.TrimSpace(strings.TrimSuffix(name, ")"))
		c = strings.TrimSpace(vars[name])
	}
	return c
}
