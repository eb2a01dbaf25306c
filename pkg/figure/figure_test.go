package figure

import (
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dancespec/pkg/formation"
)

func model(x, y, total float64) formation.Model {
	return formation.Build(formation.Input{
		CountX: x, CountY: y, Total: total,
		AlongRows: []float64{1}, AlongColumns: []float64{1},
	})
}

func fixedMarker(t *testing.T) {
	t.Helper()
	prev := newMarkerID
	newMarkerID = func() string { return "arrow-test" }
	t.Cleanup(func() { newMarkerID = prev })
}

func TestRenderPrompt(t *testing.T) {
	d := Render(formation.Build(formation.Input{}), ThemeExport)
	if len(d.Shapes) != 1 {
		t.Fatalf("len(Shapes) = %d, want 1", len(d.Shapes))
	}
	txt, ok := d.Shapes[0].(Text)
	if !ok {
		t.Fatalf("Shapes[0] = %T, want Text", d.Shapes[0])
	}
	if txt.Content != Prompt {
		t.Errorf("Content = %q, want %q", txt.Content, Prompt)
	}
	if txt.Size != 15 || txt.Anchor != AnchorMiddle || !txt.Middle {
		t.Errorf("prompt style = %+v", txt)
	}
	if txt.X != 230 || txt.Y != 110 {
		t.Errorf("prompt at (%v, %v), want (230, 110)", txt.X, txt.Y)
	}
}

func TestRenderContradictionMessage(t *testing.T) {
	m := model(4, 2, 10)
	d := Render(m, ThemeUI)
	got := d.Texts()
	if len(got) != 1 || got[0] != m.Message {
		t.Errorf("Texts() = %v, want [%q]", got, m.Message)
	}
}

func TestRenderRectangle(t *testing.T) {
	m := model(4, 3, 12)
	d := Render(m, ThemeExport)

	box, ok := d.Shapes[0].(Box)
	if !ok {
		t.Fatalf("Shapes[0] = %T, want Box", d.Shapes[0])
	}
	if box.Rect != m.Rect {
		t.Errorf("Rect = %+v, want %+v", box.Rect, m.Rect)
	}
	if box.Stroke != "#ed1b24" || box.StrokeWidth != 2 || box.FillOpacity != 0.35 || box.StrokeOpacity != 0.9 {
		t.Errorf("paint = %+v", box.Paint)
	}

	want := []string{"8", "11", "0", "3", "3m", "2m"}
	if diff := cmp.Diff(want, d.Texts()); diff != "" {
		t.Errorf("Texts() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderLabelPositions(t *testing.T) {
	m := model(4, 3, 12)
	r := m.Rect
	d := Render(m, ThemeExport)

	var texts []Text
	var lines []Line
	for _, s := range d.Shapes {
		switch s := s.(type) {
		case Text:
			texts = append(texts, s)
		case Line:
			lines = append(lines, s)
		}
	}
	if len(texts) != 6 || len(lines) != 2 {
		t.Fatalf("got %d texts and %d lines, want 6 and 2", len(texts), len(lines))
	}

	tests := []struct {
		name   string
		got    Text
		x, y   float64
		anchor Anchor
	}{
		{"TL", texts[0], r.X, r.Y - 8, AnchorStart},
		{"TR", texts[1], r.X + r.W, r.Y - 8, AnchorEnd},
		{"BL", texts[2], r.X, r.Y + r.H + 16, AnchorStart},
		{"BR", texts[3], r.X + r.W, r.Y + r.H + 16, AnchorEnd},
		{"width", texts[4], r.X + r.W/2, r.Y + r.H + 42, AnchorMiddle},
		{"height", texts[5], r.X - 20, r.Y + r.H/2, AnchorEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.X != tt.x || tt.got.Y != tt.y || tt.got.Anchor != tt.anchor {
				t.Errorf("label = (%v, %v, %s), want (%v, %v, %s)", tt.got.X, tt.got.Y, tt.got.Anchor, tt.x, tt.y, tt.anchor)
			}
		})
	}
	if !texts[5].Middle {
		t.Error("height label should use a middle baseline")
	}

	h := lines[0]
	if h.Y1 != r.Y+r.H+26 || h.Y2 != h.Y1 || h.X1 != r.X || h.X2 != r.X+r.W {
		t.Errorf("horizontal line = %+v", h)
	}
	v := lines[1]
	if v.X1 != r.X-15 || v.X2 != v.X1 || v.Y1 != r.Y || v.Y2 != r.Y+r.H {
		t.Errorf("vertical line = %+v", v)
	}
}

func TestRenderHexagon(t *testing.T) {
	m := model(4, 3, 10)
	d := Render(m, ThemeExport)
	poly, ok := d.Shapes[0].(Polygon)
	if !ok {
		t.Fatalf("Shapes[0] = %T, want Polygon", d.Shapes[0])
	}
	if len(poly.Points) != 6 {
		t.Errorf("len(Points) = %d, want 6", len(poly.Points))
	}
	tr := d.Shapes[2].(Text)
	if tr.X != m.CornerTRX {
		t.Errorf("TR label x = %v, want %v", tr.X, m.CornerTRX)
	}
	if tr.Content != "9" {
		t.Errorf("TR label = %q, want 9", tr.Content)
	}
}

func TestMarkerIDsAreUnique(t *testing.T) {
	m := model(2, 2, 4)
	a := Render(m, ThemeExport)
	b := Render(m, ThemeExport)
	if a.MarkerID == b.MarkerID {
		t.Errorf("marker ids collide: %s", a.MarkerID)
	}
	if !strings.HasPrefix(a.MarkerID, "arrow-") {
		t.Errorf("MarkerID = %q, want arrow- prefix", a.MarkerID)
	}
}

func TestThemesDifferOnlyInColor(t *testing.T) {
	fixedMarker(t)
	m := model(4, 3, 10)
	a, b := Render(m, ThemeExport), Render(m, ThemeUI)
	if len(a.Shapes) != len(b.Shapes) {
		t.Fatalf("shape counts differ: %d vs %d", len(a.Shapes), len(b.Shapes))
	}
	for i := range a.Shapes {
		ta, okA := a.Shapes[i].(Text)
		tb, okB := b.Shapes[i].(Text)
		if okA != okB {
			t.Fatalf("shape %d kinds differ", i)
		}
		if okA {
			tb.Fill = ta.Fill
			if ta != tb {
				t.Errorf("text %d differs beyond color: %+v vs %+v", i, ta, tb)
			}
		}
	}
}

func TestRenderSVG(t *testing.T) {
	fixedMarker(t)
	svg := string(RenderSVG(Render(model(4, 3, 10), ThemeExport)))

	for _, want := range []string{
		`viewBox="0 0 460 220"`,
		`<marker id="arrow-test"`,
		`orient="auto-start-reverse"`,
		`<polygon points="`,
		`marker-start="url(#arrow-test)"`,
		`dominant-baseline="middle"`,
		`text-anchor="end"`,
		`fill="#ed1b24"`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

func TestRenderSVGEscapesText(t *testing.T) {
	d := Drawing{ViewW: 10, ViewH: 10, MarkerID: "m", Shapes: []Shape{Text{Content: "<a&b>", Size: 12}}}
	svg := string(RenderSVG(d))
	if !strings.Contains(svg, "&lt;a&amp;b&gt;") {
		t.Errorf("text not escaped: %s", svg)
	}
}

func TestRenderSVGSize(t *testing.T) {
	d := Render(model(2, 2, 4), ThemeExport)
	if svg := string(RenderSVG(d, WithPixelSize())); !strings.Contains(svg, `width="460" height="220"`) {
		t.Errorf("pixel size not applied: %s", svg[:120])
	}
	if svg := string(RenderSVG(d, WithSize("8cm", "4cm"))); !strings.Contains(svg, `width="8cm" height="4cm"`) {
		t.Error("explicit size not applied")
	}
}

func TestRasterize(t *testing.T) {
	d := Render(model(4, 3, 10), ThemeExport)
	img := Rasterize(d, 2, color.White)
	if b := img.Bounds(); b.Dx() != 920 || b.Dy() != 440 {
		t.Fatalf("bounds = %v, want 920x440", b)
	}

	if r, g, bl, _ := img.At(1, 1).RGBA(); r>>8 != 255 || g>>8 != 255 || bl>>8 != 255 {
		t.Errorf("corner pixel = (%d, %d, %d), want white", r>>8, g>>8, bl>>8)
	}

	// Inside the filled outline the red fill blends with white.
	c := d.Shapes[0].(Polygon).Points[0]
	r, g, _, _ := img.At(int(c.X*2)+10, int(c.Y*2)-10).RGBA()
	if r>>8 < 200 || g>>8 > 200 {
		t.Errorf("fill pixel = (%d, %d), want reddish", r>>8, g>>8)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ed1b24", color.NRGBA{0xed, 0x1b, 0x24, 255}},
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"000000", color.NRGBA{0, 0, 0, 255}},
		{"bogus", color.NRGBA{A: 255}},
	}
	for _, tt := range tests {
		if got := ParseHexColor(tt.in); got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestThemeByName(t *testing.T) {
	if th, ok := ThemeByName("ui"); !ok || th.Label != "#ffffff" {
		t.Errorf("ThemeByName(ui) = %+v, %v", th, ok)
	}
	if _, ok := ThemeByName("neon"); ok {
		t.Error("ThemeByName(neon) should fail")
	}
}
