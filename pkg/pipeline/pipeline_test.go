package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/dancespec/pkg/area"
	"github.com/matzehuels/dancespec/pkg/cache"
	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/figure"
	"github.com/matzehuels/dancespec/pkg/texts"
)

const sampleArea = `{
  "drone_count": {"x_count": 4, "y_count": 3, "count": 10},
  "spacing_between_drones_m": {"horizontal": "1.5", "vertical": "2"},
  "drone_orientation_deg": 90,
  "geometry": {"turn": {"direction": "cw", "angle_deg": 90}}
}`

func loadArea(t *testing.T) *area.Config {
	t.Helper()
	cfg, err := area.Decode(strings.NewReader(sampleArea), area.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		formats []string
		wantErr bool
	}{
		{[]string{"pdf", "pptx"}, false},
		{[]string{"xlsx"}, false},
		{[]string{"pdf", "svg"}, true},
		{[]string{"PDF"}, true}, // case-sensitive
		{nil, false},
	}
	for _, tt := range tests {
		err := ValidateFormats(tt.formats)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
		}
	}
}

func TestValidateFigureFormat(t *testing.T) {
	for _, f := range []string{"svg", "png"} {
		if err := ValidateFigureFormat(f); err != nil {
			t.Errorf("ValidateFigureFormat(%q) error = %v", f, err)
		}
	}
	if err := ValidateFigureFormat("pdf"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ValidateFigureFormat(pdf) = %v, want INVALID_FORMAT", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Area: loadArea(t), Heading: "東京湾　1日目", Formats: []string{"pptx", "pdf", "pptx"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}

	if opts.Project != "東京湾" || opts.Schedule != "1日目" {
		t.Errorf("project, schedule = %q, %q, want 東京湾, 1日目", opts.Project, opts.Schedule)
	}
	if opts.Company != texts.DefaultCompany {
		t.Errorf("Company = %q, want %q", opts.Company, texts.DefaultCompany)
	}
	if opts.Header != texts.DefaultPage2Header {
		t.Errorf("Header = %q, want %q", opts.Header, texts.DefaultPage2Header)
	}
	if opts.GradFrom != DefaultGradFrom || opts.GradTo != DefaultGradTo {
		t.Errorf("gradient = %s → %s, want defaults", opts.GradFrom, opts.GradTo)
	}
	if diff := cmp.Diff([]string{"pdf", "pptx"}, opts.Formats); diff != "" {
		t.Errorf("Formats mismatch (-want +got):\n%s", diff)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}

	// Idempotent
	opts.Company = ""
	if err := opts.ValidateAndSetDefaults(); err != nil || opts.Company != "" {
		t.Errorf("second call changed options: company %q, err %v", opts.Company, err)
	}
}

func TestOptionsDefaultFormats(t *testing.T) {
	opts := Options{Area: loadArea(t)}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultFormats, opts.Formats); diff != "" {
		t.Errorf("Formats mismatch (-want +got):\n%s", diff)
	}
	if !opts.Wants(FormatPDF) || opts.Wants(FormatXLSX) {
		t.Errorf("Wants() wrong for %v", opts.Formats)
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no area", Options{}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Area: &area.Config{}, Formats: []string{"docx"}}, errors.ErrCodeInvalidFormat},
		{"bad color", Options{Area: &area.Config{}, GradFrom: "red"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestFigureOptionsDefaults(t *testing.T) {
	opts := FigureOptions{Area: loadArea(t)}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Theme != "export" || opts.Format != FormatSVG || opts.Scale != DefaultFigureScale {
		t.Errorf("defaults = %+v", opts)
	}

	bad := FigureOptions{Area: loadArea(t), Theme: "neon"}
	if err := bad.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown theme error = %v, want INVALID_INPUT", err)
	}
}

func TestFigureOptionsScale(t *testing.T) {
	tests := []struct {
		name    string
		scale   float64
		want    float64
		wantErr bool
	}{
		{"default", 0, DefaultFigureScale, false},
		{"max", MaxFigureScale, MaxFigureScale, false},
		{"over max", 100000, 0, true},
		{"nan", math.NaN(), 0, true},
		{"inf", math.Inf(1), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := FigureOptions{Area: loadArea(t), Format: FormatPNG, Scale: tt.scale}
			err := opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAndSetDefaults() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Errorf("code = %v, want INVALID_INPUT", errors.GetCode(err))
				}
				return
			}
			if opts.Scale != tt.want {
				t.Errorf("Scale = %v, want %v", opts.Scale, tt.want)
			}
		})
	}
}

func TestOptionsDroneLimit(t *testing.T) {
	cfg := loadArea(t)
	cfg.DroneCount.XCount = area.NewNumber(46000)
	cfg.DroneCount.YCount = area.NewNumber(46000)
	cfg.DroneCount.Count = area.Number{}

	if err := (&Options{Area: cfg}).ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Options error = %v, want INVALID_INPUT", err)
	}
	if err := (&FigureOptions{Area: cfg}).ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("FigureOptions error = %v, want INVALID_INPUT", err)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Area: loadArea(t)}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	k := cache.NewDefaultKeyer()
	plain := k.ArtifactKey("h", opts.ArtifactKeyOpts("pdf", "t"))

	opts.Screenshot = []byte("png")
	withShot := k.ArtifactKey("h", opts.ArtifactKeyOpts("pdf", "t"))
	if plain == withShot {
		t.Error("screenshot should change the artifact key")
	}
	if withShot == k.ArtifactKey("h", opts.ArtifactKeyOpts("pdf", "t2")) {
		t.Error("template hash should change the artifact key")
	}
}

func TestBuildValues(t *testing.T) {
	opts := Options{Area: loadArea(t), Project: "P", Schedule: "S"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	v := BuildValues(opts, figure.Drawing{})

	if got := v.Text[SelTitle]; got != "P　S　ダンスファイル指示書" {
		t.Errorf("title = %q", got)
	}
	if got := v.Text[SelCompany]; got != texts.DefaultCompany {
		t.Errorf("company = %q", got)
	}
	if got := v.Images[SelScreenshot]; got != "" {
		t.Errorf("screenshot = %q, want empty to hide the map", got)
	}
	if got := v.Transforms[SelDroneIcon].Rotate; got != 90 {
		t.Errorf("icon rotation = %v, want 90", got)
	}
	if v.Transforms[SelAntenna].Offset == nil || v.Transforms[SelBattery].Offset == nil {
		t.Error("drone labels should be placed")
	}
	if got := v.Vars["--grad-from"]; got != DefaultGradFrom {
		t.Errorf("--grad-from = %q", got)
	}

	opts.Screenshot = []byte("\x89PNG\r\n\x1a\n")
	v = BuildValues(opts, figure.Drawing{})
	if got := v.Images[SelScreenshot]; !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("screenshot = %q, want a PNG data URI", got)
	}
}

func TestResultFilename(t *testing.T) {
	r := Result{BaseName: "P_S_ダンスファイル指示書"}
	if got := r.Filename("pdf"); got != "P_S_ダンスファイル指示書.pdf" {
		t.Errorf("Filename() = %q", got)
	}
}

func TestExecute(t *testing.T) {
	if testing.Short() {
		t.Skip("captures full pages")
	}
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := Options{
		Area:     loadArea(t),
		Project:  "Tokyo",
		Schedule: "Day 1",
		Formats:  []string{"pdf", "pptx", "xlsx"},
	}
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if result.BaseName != "Tokyo_Day 1_ダンスファイル指示書" {
		t.Errorf("BaseName = %q", result.BaseName)
	}
	if result.Stats.Drones != 10 {
		t.Errorf("Drones = %d, want 10", result.Stats.Drones)
	}
	if result.CacheInfo.ExportHit {
		t.Error("first run should not hit the cache")
	}
	if !bytes.HasPrefix(result.Artifacts["pdf"], []byte("%PDF-")) {
		t.Error("pdf artifact should start with a PDF header")
	}

	pptx := result.Artifacts["pptx"]
	zr, err := zip.NewReader(bytes.NewReader(pptx), int64(len(pptx)))
	if err != nil {
		t.Fatalf("pptx is not a zip: %v", err)
	}
	var slides int
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") {
			slides++
		}
	}
	if slides != 2 {
		t.Errorf("slides = %d, want 2", slides)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result.Artifacts["xlsx"]))
	if err != nil {
		t.Fatalf("xlsx open error: %v", err)
	}
	rows, err := f.GetRows("Positions")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 11 {
		t.Errorf("position rows = %d, want header + 10", len(rows))
	}

	again, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !again.CacheInfo.ExportHit {
		t.Error("second run should be served from the cache")
	}
	if !bytes.Equal(again.Artifacts["pdf"], result.Artifacts["pdf"]) {
		t.Error("cached pdf differs from the built one")
	}
}

func TestExecuteNotRenderableSheet(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	cfg, err := area.Decode(strings.NewReader(`{"drone_count": {"x_count": 4}}`), area.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	_, err = runner.Execute(context.Background(), Options{Area: cfg, Formats: []string{"xlsx"}})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Execute() error = %v, want INVALID_INPUT", err)
	}
}

func TestExecuteMissingTemplate(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Execute(context.Background(), Options{
		Area:     loadArea(t),
		Template: "/nonexistent/template.toml",
	})
	if !errors.Is(err, errors.ErrCodeTemplateLoad) {
		t.Errorf("Execute() error = %v, want TEMPLATE_LOAD", err)
	}
}

func TestFigure(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)

	svg, m, err := runner.Figure(ctx, FigureOptions{Area: loadArea(t)})
	if err != nil {
		t.Fatalf("Figure() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("Figure(svg) = %.60q, want SVG", svg)
	}
	if m.CountX != 4 {
		t.Errorf("CountX = %d, want 4", m.CountX)
	}

	png, _, err := runner.Figure(ctx, FigureOptions{Area: loadArea(t), Format: "png", Scale: 1})
	if err != nil {
		t.Fatalf("Figure(png) error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("Figure(png) should return PNG bytes")
	}
}
