package capture

import (
	"context"

	"github.com/matzehuels/dancespec/pkg/figure"
	"github.com/matzehuels/dancespec/pkg/template"
)

// Standalone figure page, in design pixels.
const (
	FigureWidth  = 460
	FigureHeight = 220
	figurePageID = "landing-figure"
)

// CaptureFigure rasterizes a layout figure on its own white page, for
// placement as a separate overlay.
func (e *Engine) CaptureFigure(ctx context.Context, d figure.Drawing, family string) (*Bitmap, error) {
	doc := template.Document{
		Name:         figurePageID,
		DesignWidth:  FigureWidth,
		DesignHeight: FigureHeight,
		Pages: []template.Page{{
			ID:         figurePageID,
			Background: BackgroundDetail,
			Width:      FigureWidth,
			Height:     FigureHeight,
			Elements: []template.Element{{
				ID:      "landing-figure-slot",
				Kind:    template.KindSlot,
				Box:     template.Box{W: FigureWidth, H: FigureHeight},
				Family:  family,
				Drawing: &d,
			}},
		}},
	}
	return e.Capture(ctx, doc, figurePageID, Options{Background: BackgroundDetail})
}
