// Package export turns the two captured instruction-sheet pages into the
// downloadable deliverables: a two-page PDF and a two-slide PPTX deck.
//
// All placement happens in the 1920×1080 design grid of the template and is
// converted to page units through the named [Target] descriptors, so the
// pixel → point and pixel → inch → EMU conversions live in one place.
//
// Both builders assemble the whole file in memory before anything is
// written, which means a failing export never leaves a partial file behind.
package export

import (
	"image"
	"math"

	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/template"
)

// EMUPerInch is the number of English Metric Units in one inch.
const EMUPerInch = 914400

// Target describes a page or slide coordinate space relative to the design grid.
type Target struct {
	Name       string
	W, H       float64 // page size in Unit
	Unit       string
	PxPerUnit  float64 // design pixels per Unit
	EMUPerUnit float64 // zero when the format has no EMU space
}

var (
	// DesignGrid is the template's pixel space.
	DesignGrid = Target{Name: "design", W: 1920, H: 1080, Unit: "px", PxPerUnit: 1}

	// PDFTarget is a 16:9 landscape page measured in points.
	PDFTarget = Target{Name: "pdf", W: 1280, H: 720, Unit: "pt", PxPerUnit: 1920.0 / 1280.0}

	// PPTXTarget is the LAYOUT_WIDE slide measured in inches.
	PPTXTarget = Target{Name: "pptx", W: 13.333, H: 7.5, Unit: "in", PxPerUnit: 1920.0 / 13.333, EMUPerUnit: EMUPerInch}
)

// Box converts a box in design pixels to the target's unit.
func (t Target) Box(px template.Box) template.Box {
	return template.Box{
		X: px.X / t.PxPerUnit,
		Y: px.Y / t.PxPerUnit,
		W: px.W / t.PxPerUnit,
		H: px.H / t.PxPerUnit,
	}
}

// EMU converts a length in the target's unit to rounded EMUs.
func (t Target) EMU(v float64) int64 {
	return int64(math.Round(v * t.EMUPerUnit))
}

// Align selects where a fitted image sits inside its box.
type Align int

const (
	AlignCenter Align = iota
	AlignBottomLeft
)

// FitContain scales an imgW×imgH image to the largest size that fits in box
// without cropping or stretching. A degenerate image or box yields a zero
// box at the box origin.
func FitContain(imgW, imgH float64, box template.Box, align Align) template.Box {
	if imgW <= 0 || imgH <= 0 || box.W <= 0 || box.H <= 0 {
		return template.Box{X: box.X, Y: box.Y}
	}
	scale := math.Min(box.W/imgW, box.H/imgH)
	w, h := imgW*scale, imgH*scale
	switch align {
	case AlignBottomLeft:
		return template.Box{X: box.X, Y: box.Bottom() - h, W: w, H: h}
	default:
		return template.Box{X: box.X + (box.W-w)/2, Y: box.Y + (box.H-h)/2, W: w, H: h}
	}
}

// Pages holds the two full-page rasters. Both are required.
type Pages struct {
	Cover  image.Image
	Detail image.Image
}

func (p Pages) validate() error {
	if p.Cover == nil {
		return errors.New(errors.ErrCodeTemplatePage, "cover page (#%s) was not captured", template.CoverPage)
	}
	if p.Detail == nil {
		return errors.New(errors.ErrCodeTemplatePage, "detail page (#%s) was not captured", template.DetailPage)
	}
	return nil
}

// Overlays are placed as separate pictures on the PPTX detail slide so they
// stay editable. Boxes are in design pixels.
type Overlays struct {
	// Screenshot is the encoded map image (PNG or JPEG). Empty skips it.
	Screenshot []byte
	// Figure is the standalone landing figure raster. Nil skips it.
	Figure image.Image
	Boxes  template.Boxes
}
