// Package pipeline provides the export pipeline for dancespec.
//
// This package implements the complete model → figure → populate → capture
// → export pipeline used by the CLI and the HTTP API. By centralizing this
// logic, both entry points produce byte-identical deliverables.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Model: Reconcile the landing grid and draw the layout figure
//  2. Template: Load the sheet template and populate it with the area values
//  3. Capture: Rasterize the cover and detail pages concurrently
//  4. Export: Build the PDF, PPTX and XLSX files in memory
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Area:     cfg,
//	    Project:  "Tokyo Bay",
//	    Schedule: "Day 1",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pdf := result.Artifacts["pdf"]
package pipeline

import (
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dancespec/pkg/area"
	"github.com/matzehuels/dancespec/pkg/cache"
	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/figure"
	"github.com/matzehuels/dancespec/pkg/formation"
	"github.com/matzehuels/dancespec/pkg/texts"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultGradFrom is the start color of the title gradient.
	DefaultGradFrom = "#E00022"

	// DefaultGradTo is the end color of the title gradient.
	DefaultGradTo = "#FFD23A"

	// DefaultFigureScale is the pixel density of standalone figure PNGs.
	DefaultFigureScale = 2.0

	// MaxFigureScale caps the PNG density; 8 gives a 3680×1760 image.
	MaxFigureScale = 8.0
)

// Format constants for output formats.
const (
	FormatPDF  = "pdf"
	FormatPPTX = "pptx"
	FormatXLSX = "xlsx"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported document formats.
var ValidFormats = map[string]bool{
	FormatPDF:  true,
	FormatPPTX: true,
	FormatXLSX: true,
}

// ValidFigureFormats is the set of supported standalone figure formats.
var ValidFigureFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
}

// DefaultFormats are exported when none are requested.
var DefaultFormats = []string{FormatPDF, FormatPPTX}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one export.
// This struct supports JSON serialization for API requests.
type Options struct {
	Area *area.Config `json:"area"`

	// Sheet text
	Project  string `json:"project,omitempty"`
	Schedule string `json:"schedule,omitempty"`
	Heading  string `json:"heading,omitempty"` // combined "project　schedule" label
	Company  string `json:"company,omitempty"`
	Header   string `json:"page2_header,omitempty"`
	GradFrom string `json:"grad_from,omitempty"`
	GradTo   string `json:"grad_to,omitempty"`

	// Screenshot is the encoded map image (PNG or JPEG). Base64 in JSON.
	Screenshot []byte `json:"screenshot,omitempty"`

	// Template is a path or URL; empty uses the embedded template.
	Template string `json:"template,omitempty"`

	Formats []string `json:"formats,omitempty"`
	Refresh bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// FigureOptions configures a standalone figure render.
type FigureOptions struct {
	Area    *area.Config `json:"area"`
	Theme   string       `json:"theme,omitempty"`
	Format  string       `json:"format,omitempty"`
	Scale   float64      `json:"scale,omitempty"`
	Refresh bool         `json:"refresh,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Model is the reconciled layout.
	Model formation.Model

	// Drawing is the layout figure placed on the detail page.
	Drawing figure.Drawing

	// BaseName is the sanitized file name without extension.
	BaseName string

	// InputHash is the content hash of the area configuration.
	InputHash string

	// Formats lists the built formats in delivery order.
	Formats []string

	// Artifacts contains built files keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Filename returns the download name for format.
func (r *Result) Filename(format string) string {
	return r.BaseName + "." + format
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Drones       int
	TemplateTime time.Duration
	CaptureTime  time.Duration
	ExportTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ExportHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are valid document formats.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f, ValidFormats); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFigureFormat checks a standalone figure format.
func ValidateFigureFormat(format string) error {
	return errors.ValidateFormat(format, ValidFigureFormats)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Area == nil {
		return errors.New(errors.ErrCodeInvalidInput, "area configuration is required")
	}
	if err := formation.FromArea(o.Area).CheckLimits(); err != nil {
		return err
	}

	o.Project, o.Schedule = texts.ResolveProjectSchedule(o.Project, o.Schedule, o.Heading)
	o.Company = defaultText(o.Company, texts.DefaultCompany)
	o.Header = defaultText(o.Header, texts.DefaultPage2Header)
	o.GradFrom = defaultText(o.GradFrom, DefaultGradFrom)
	o.GradTo = defaultText(o.GradTo, DefaultGradTo)
	for _, c := range []string{o.GradFrom, o.GradTo} {
		if err := errors.ValidateColor(c); err != nil {
			return err
		}
	}

	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	slices.Sort(o.Formats)
	o.Formats = slices.Compact(o.Formats)
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Wants reports whether format was requested.
func (o *Options) Wants(format string) bool {
	return slices.Contains(o.Formats, format)
}

// ArtifactKeyOpts returns cache key options for artifact building.
func (o *Options) ArtifactKeyOpts(format, templateHash string) cache.ArtifactKeyOpts {
	var shot string
	if len(o.Screenshot) > 0 {
		shot = cache.Hash(o.Screenshot)
	}
	return cache.ArtifactKeyOpts{
		Format:       format,
		TemplateHash: templateHash,
		Project:      o.Project,
		Schedule:     o.Schedule,
		Company:      o.Company,
		Header:       o.Header,
		GradFrom:     o.GradFrom,
		GradTo:       o.GradTo,
		Screenshot:   shot,
	}
}

// ValidateAndSetDefaults checks the figure options and applies defaults.
func (o *FigureOptions) ValidateAndSetDefaults() error {
	if o.Area == nil {
		return errors.New(errors.ErrCodeInvalidInput, "area configuration is required")
	}
	if err := formation.FromArea(o.Area).CheckLimits(); err != nil {
		return err
	}
	if o.Theme == "" {
		o.Theme = figure.ThemeExport.Name
	}
	if _, ok := figure.ThemeByName(o.Theme); !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown theme %q", o.Theme)
	}
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if err := ValidateFigureFormat(o.Format); err != nil {
		return err
	}
	switch {
	case math.IsNaN(o.Scale) || o.Scale > MaxFigureScale:
		return errors.New(errors.ErrCodeInvalidInput, "figure scale %g is out of range (0, %g]", o.Scale, MaxFigureScale)
	case o.Scale <= 0:
		o.Scale = DefaultFigureScale
	}
	return nil
}

func defaultText(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
