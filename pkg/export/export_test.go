package export

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/tsawler/tabula/pptx"

	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/template"
)

func solid(w, h int, c color.Color) image.Image {
	return imaging.New(w, h, c)
}

func testPages() Pages {
	return Pages{
		Cover:  solid(192, 108, color.Black),
		Detail: solid(192, 108, color.White),
	}
}

func testBoxes() template.Boxes {
	return template.Boxes{
		LeftPane:      template.Box{X: 48, Y: 128, W: 820, H: 904},
		MiddleColumn:  template.Box{X: 900, Y: 128, W: 560, H: 904},
		TopBandHeight: 420,
	}
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestTargetBox(t *testing.T) {
	full := template.Box{W: 1920, H: 1080}
	tests := []struct {
		name   string
		target Target
		want   template.Box
	}{
		{"design", DesignGrid, template.Box{W: 1920, H: 1080}},
		{"pdf", PDFTarget, template.Box{W: 1280, H: 720}},
		{"pptx", PPTXTarget, template.Box{W: 13.333, H: 13.333 * 1080 / 1920}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.target.Box(full), approx); diff != "" {
				t.Errorf("Box() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEMU(t *testing.T) {
	if got := PPTXTarget.EMU(1); got != EMUPerInch {
		t.Errorf("EMU(1) = %d, want %d", got, EMUPerInch)
	}
	if got := PPTXTarget.EMU(7.5); got != SlideCY {
		t.Errorf("EMU(7.5) = %d, want %d", got, SlideCY)
	}
}

func TestFitContain(t *testing.T) {
	box := template.Box{X: 10, Y: 20, W: 400, H: 200}
	tests := []struct {
		name       string
		imgW, imgH float64
		align      Align
		want       template.Box
	}{
		{"wide centered", 800, 200, AlignCenter, template.Box{X: 10, Y: 70, W: 400, H: 100}},
		{"tall centered", 100, 400, AlignCenter, template.Box{X: 185, Y: 20, W: 50, H: 200}},
		{"exact", 400, 200, AlignCenter, template.Box{X: 10, Y: 20, W: 400, H: 200}},
		{"wide bottom-left", 800, 200, AlignBottomLeft, template.Box{X: 10, Y: 120, W: 400, H: 100}},
		{"tall bottom-left", 100, 400, AlignBottomLeft, template.Box{X: 10, Y: 20, W: 50, H: 200}},
		{"zero image", 0, 10, AlignCenter, template.Box{X: 10, Y: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitContain(tt.imgW, tt.imgH, box, tt.align)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("FitContain() mismatch (-want +got):\n%s", diff)
			}
			if tt.imgW > 0 && tt.imgH > 0 {
				if math.Abs(got.W/got.H-tt.imgW/tt.imgH) > 1e-9 {
					t.Errorf("aspect = %v, want %v", got.W/got.H, tt.imgW/tt.imgH)
				}
				if got.X < box.X || got.Y < box.Y || got.Right() > box.Right()+1e-9 || got.Bottom() > box.Bottom()+1e-9 {
					t.Errorf("FitContain() = %+v escapes %+v", got, box)
				}
			}
		})
	}
}

func TestBuildPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := BuildPDF(&buf, testPages()); err != nil {
		t.Fatalf("BuildPDF() error = %v", err)
	}
	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output starts with %q, want %%PDF-", out[:min(8, len(out))])
	}
	if !bytes.Contains(out, []byte("%%EOF")) {
		t.Error("output has no EOF trailer")
	}
	if !bytes.Contains(out, []byte("/DCTDecode")) {
		t.Error("pages are not embedded as JPEG")
	}
}

func TestBuildMissingPage(t *testing.T) {
	tests := []struct {
		name  string
		pages Pages
	}{
		{"no cover", Pages{Detail: solid(4, 4, color.White)}},
		{"no detail", Pages{Cover: solid(4, 4, color.Black)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pdf, deck bytes.Buffer
			if err := BuildPDF(&pdf, tt.pages); !errors.Is(err, errors.ErrCodeTemplatePage) {
				t.Errorf("BuildPDF() error = %v, want %s", err, errors.ErrCodeTemplatePage)
			}
			if err := BuildPPTX(&deck, tt.pages, Overlays{}); !errors.Is(err, errors.ErrCodeTemplatePage) {
				t.Errorf("BuildPPTX() error = %v, want %s", err, errors.ErrCodeTemplatePage)
			}
			if pdf.Len() != 0 || deck.Len() != 0 {
				t.Errorf("partial output written: pdf=%d pptx=%d bytes", pdf.Len(), deck.Len())
			}
		})
	}
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestBuildPPTX(t *testing.T) {
	overlays := Overlays{
		Screenshot: pngBytes(t, solid(400, 100, color.RGBA{0, 0, 255, 255})),
		Figure:     solid(920, 440, color.White),
		Boxes:      testBoxes(),
	}

	var buf bytes.Buffer
	if err := BuildPPTX(&buf, testPages(), overlays); err != nil {
		t.Fatalf("BuildPPTX() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "deck.pptx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := pptx.Open(path)
	if err != nil {
		t.Fatalf("pptx.Open() error = %v", err)
	}
	defer r.Close()
	if got := r.SlideCount(); got != 2 {
		t.Errorf("SlideCount() = %d, want 2", got)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	media := 0
	var slide2 string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/media/") {
			media++
		}
		if f.Name == "ppt/slides/slide2.xml" {
			rc, err := f.Open()
			if err != nil {
				t.Fatal(err)
			}
			b, _ := io.ReadAll(rc)
			rc.Close()
			slide2 = string(b)
		}
	}
	if media != 4 {
		t.Errorf("media parts = %d, want 4", media)
	}
	if got := strings.Count(slide2, "<p:pic>"); got != 3 {
		t.Errorf("slide 2 pictures = %d, want 3", got)
	}

	// The 4:1 screenshot fills the 1412px top span horizontally and is
	// centered vertically in the 420px band.
	span := testBoxes().TopSpan()
	fit := FitContain(400, 100, span, AlignCenter)
	want := placed("", nil, fit)
	if math.Abs(fit.W-span.W) > 1e-9 {
		t.Errorf("screenshot width = %v, want %v", fit.W, span.W)
	}
	if !strings.Contains(slide2, offXML(want)) {
		t.Errorf("slide 2 has no screenshot at %s", offXML(want))
	}

	// The figure sits on the bottom edge of the left pane.
	fig := FitContain(920, 440, testBoxes().LeftPane, AlignBottomLeft)
	if math.Abs(fig.Bottom()-testBoxes().LeftPane.Bottom()) > 1e-9 || fig.X != testBoxes().LeftPane.X {
		t.Errorf("figure box = %+v, want bottom-left of %+v", fig, testBoxes().LeftPane)
	}
	if !strings.Contains(slide2, offXML(placed("", nil, fig))) {
		t.Errorf("slide 2 has no figure at %s", offXML(placed("", nil, fig)))
	}
}

func offXML(p picture) string {
	var b strings.Builder
	writePicture(&b, 0, "", p)
	s := b.String()
	i := strings.Index(s, "<a:off")
	j := strings.Index(s, "</a:xfrm>")
	return s[i:j]
}

func TestBuildPPTXWithoutOverlays(t *testing.T) {
	var buf bytes.Buffer
	if err := BuildPPTX(&buf, testPages(), Overlays{Boxes: testBoxes()}); err != nil {
		t.Fatalf("BuildPPTX() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "deck.pptx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := pptx.Open(path)
	if err != nil {
		t.Fatalf("pptx.Open() error = %v", err)
	}
	defer r.Close()
	if got := r.SlideCount(); got != 2 {
		t.Errorf("SlideCount() = %d, want 2", got)
	}
}

func TestBuildPPTXBadScreenshot(t *testing.T) {
	var buf bytes.Buffer
	err := BuildPPTX(&buf, testPages(), Overlays{Screenshot: []byte("not an image"), Boxes: testBoxes()})
	if !errors.Is(err, errors.ErrCodeScreenshot) {
		t.Fatalf("BuildPPTX() error = %v, want %s", err, errors.ErrCodeScreenshot)
	}
	if buf.Len() != 0 {
		t.Errorf("partial output written: %d bytes", buf.Len())
	}
}

func TestFileBaseName(t *testing.T) {
	tests := []struct {
		project, schedule string
		want              string
	}{
		{"Tokyo", "Day 1/2", "Tokyo_Day 1_2_ダンスファイル指示書"},
		{"案件名", "", "案件名_ダンスファイル指示書"},
		{"", "", "ダンスファイル指示書"},
		{` a:b*c? `, "x<y>|z", `a_b_c__x_y__z_ダンスファイル指示書`},
		{"line\nbreak", "\r", "line_break___ダンスファイル指示書"},
	}
	for _, tt := range tests {
		if got := FileBaseName(tt.project, tt.schedule); got != tt.want {
			t.Errorf("FileBaseName(%q, %q) = %q, want %q", tt.project, tt.schedule, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize(`C:\show "final"`); got != "C__show _final_" {
		t.Errorf("Sanitize() = %q, want %q", got, "C__show _final_")
	}
}

func TestDeliverDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	d := Delivery{Dir: dir}
	paths, err := d.Deliver(Artifact{Name: "a.pdf", Data: []byte("pdf")}, Artifact{Name: "a.pptx", Data: []byte("pptx")})
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "a.pptx")}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	got, err := os.ReadFile(want[1])
	if err != nil || string(got) != "pptx" {
		t.Errorf("ReadFile() = %q, %v, want %q", got, err, "pptx")
	}
}

func TestDeliverDownloadIntoFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Delivery{Dir: file}.Deliver(Artifact{Name: "a.pdf"})
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("Deliver() error = %v, want %s", err, errors.ErrCodeInvalidPath)
	}
}

func TestPreviewable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Tokyo_Day1_ダンスファイル指示書.pdf", true},
		{"A.PDF", true},
		{"Tokyo_Day1_ダンスファイル指示書.pptx", false},
		{"positions.xlsx", false},
	}
	for _, tt := range tests {
		if got := Previewable(tt.name); got != tt.want {
			t.Errorf("Previewable(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDeliverPreviewOnlyPDF(t *testing.T) {
	dir := t.TempDir()
	var opened []string
	d := Delivery{
		Preview: true,
		Dir:     dir,
		TTL:     time.Hour,
		Open: func(p string) error {
			opened = append(opened, p)
			return nil
		},
	}
	paths, err := d.Deliver(
		Artifact{Name: "a.pdf", Data: []byte("%PDF-")},
		Artifact{Name: "a.pptx", Data: []byte("PK")},
	)
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Deliver() = %v, want 2 paths", paths)
	}
	t.Cleanup(func() { os.Remove(paths[0]) })

	if diff := cmp.Diff([]string{paths[0]}, opened); diff != "" {
		t.Errorf("opened mismatch (-want +got):\n%s", diff)
	}
	if want := filepath.Join(dir, "a.pptx"); paths[1] != want {
		t.Errorf("pptx path = %q, want %q", paths[1], want)
	}
	if _, err := os.Stat(paths[1]); err != nil {
		t.Errorf("pptx should be saved: %v", err)
	}
}

func TestDeliverPreview(t *testing.T) {
	var opened []string
	d := Delivery{
		Preview: true,
		TTL:     20 * time.Millisecond,
		Open: func(p string) error {
			opened = append(opened, p)
			return nil
		},
	}
	paths, err := d.Deliver(Artifact{Name: "a.pdf", Data: []byte("%PDF-")})
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if diff := cmp.Diff(paths, opened); diff != "" {
		t.Errorf("opened mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasSuffix(paths[0], "a.pdf") {
		t.Errorf("preview path = %q, want suffix a.pdf", paths[0])
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(paths[0]); os.IsNotExist(err) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("preview file %s still exists after TTL", paths[0])
		}
		time.Sleep(10 * time.Millisecond)
	}
}
