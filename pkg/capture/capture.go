// Package capture rasterizes populated template pages off-screen.
//
// Each call to [Engine.Capture] allocates a private host on the engine's
// [Surface], loads the page's stylesheets and images into it, fits the
// title onto one line and paints the page at twice its design size. The
// host is torn down when the call returns, whether it succeeded, failed or
// panicked.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"maps"
	"runtime"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/figure"
	"github.com/matzehuels/dancespec/pkg/fonts"
	"github.com/matzehuels/dancespec/pkg/observability"
	"github.com/matzehuels/dancespec/pkg/template"
)

// Defaults.
const (
	DefaultScale = 2

	// Title shrink-to-fit range, in design pixels.
	TitleMaxSize  = 50
	TitleMinSize  = 18
	TitleSizeStep = 1

	// extraHeight pads the raster below the content box.
	extraHeight = 8
)

// Page backgrounds.
const (
	BackgroundCover  = "#000"
	BackgroundDetail = "#fff"
)

// Scheduler yields between layout phases so pending work can settle.
type Scheduler interface {
	Yield(ctx context.Context)
}

type goschedScheduler struct{}

func (goschedScheduler) Yield(context.Context) { runtime.Gosched() }

// AssetOpener reads the bytes behind an asset reference.
type AssetOpener interface {
	Open(ctx context.Context, doc template.Document, ref string) ([]byte, error)
}

// Options configures a single capture.
type Options struct {
	// Background fills the raster behind the page, e.g. "#000".
	Background string
	// Vars overrides the template's CSS-style variables.
	Vars map[string]string
	// Scale is the pixel density; 0 means DefaultScale.
	Scale float64
}

// Engine captures pages. It is safe for concurrent use.
type Engine struct {
	Surface    *Surface
	Assets     AssetOpener
	Fonts      *fonts.Registry
	Scheduler  Scheduler
	Rasterizer Rasterizer
	Logger     *log.Logger
}

// NewEngine returns an engine with a fresh surface and the gg rasterizer.
// assets may be nil when pages reference no external files.
func NewEngine(assets AssetOpener, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		Surface:    NewSurface(),
		Assets:     assets,
		Fonts:      fonts.Default(),
		Scheduler:  goschedScheduler{},
		Rasterizer: GGRasterizer{},
		Logger:     logger,
	}
}

// Capture rasterizes the page pageID of doc.
func (e *Engine) Capture(ctx context.Context, doc template.Document, pageID string, opts Options) (bm *Bitmap, err error) {
	done := observability.Track(ctx, observability.StageCapture, pageID)
	defer func() { done(err) }()

	h := &host{
		doc:         doc,
		stylesheets: slices.Clone(doc.Stylesheets),
		vars:        maps.Clone(doc.Vars),
		fonts:       e.Fonts.Clone(),
		sheets:      make(map[string]image.Image),
		images:      make(map[int]image.Image),
	}
	if h.vars == nil {
		h.vars = map[string]string{}
	}
	maps.Copy(h.vars, opts.Vars)

	e.Surface.attach(h)
	defer e.Surface.detach(h)
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeCapture, "capture %s: %v", pageID, r)
		}
	}()

	page, ok := doc.Page(pageID)
	if !ok {
		return nil, errors.New(errors.ErrCodeTemplatePage, "template has no #%s", pageID)
	}
	h.page = page.Clone()

	e.loadStylesheets(ctx, h)
	e.decodeImages(ctx, h)
	e.Scheduler.Yield(ctx)

	if title := h.page.First("#title"); title != nil {
		fitOneLine(title, h.fonts, TitleMaxSize, TitleMinSize, TitleSizeStep)
	}
	placeAnchored(&h.page)
	e.Scheduler.Yield(ctx)

	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	w, sh := scrollSize(&h.page)
	scene := Scene{
		Page:       h.page,
		Vars:       h.vars,
		Fonts:      h.fonts,
		Images:     h.images,
		Background: figure.ParseHexColor(template.ResolveColor(opts.Background, h.vars)),
		Width:      w,
		Height:     sh + extraHeight,
		Scale:      scale,
	}
	img, err := e.Rasterizer.Rasterize(scene)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCapture, err, "rasterize %s", pageID)
	}
	e.Logger.Debug("captured page", "page", pageID, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return &Bitmap{Image: img, Scale: scale}, nil
}

// loadStylesheets loads font files and shared images. Failures are logged
// and otherwise ignored.
func (e *Engine) loadStylesheets(ctx context.Context, h *host) {
	var g errgroup.Group
	for _, s := range h.stylesheets {
		g.Go(func() error {
			data, err := e.open(ctx, h, s.Href)
			if err != nil {
				e.Logger.Debug("stylesheet unavailable", "href", s.Href, "err", err)
				return nil
			}
			switch s.Kind {
			case "font":
				if err := h.fonts.Register(s.Family, data); err != nil {
					e.Logger.Debug("font rejected", "family", s.Family, "err", err)
				}
			case "image":
				img, err := imaging.Decode(bytes.NewReader(data))
				if err != nil {
					e.Logger.Debug("image stylesheet rejected", "href", s.Href, "err", err)
					return nil
				}
				h.mu.Lock()
				h.sheets[s.Href] = img
				h.mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
}

// decodeImages decodes every visible image element. An element whose image
// cannot be loaded is hidden.
func (e *Engine) decodeImages(ctx context.Context, h *host) {
	var g errgroup.Group
	for i := range h.page.Elements {
		el := &h.page.Elements[i]
		if el.Kind != template.KindImage || el.Hidden {
			continue
		}
		if el.Src == "" {
			el.Hidden = true
			continue
		}
		h.mu.Lock()
		shared, ok := h.sheets[el.Src]
		if ok {
			h.images[i] = shared
		}
		h.mu.Unlock()
		if ok {
			continue
		}
		g.Go(func() error {
			img, err := e.decode(ctx, h, el.Src)
			h.mu.Lock()
			defer h.mu.Unlock()
			if err != nil {
				e.Logger.Debug("image hidden", "id", el.ID, "err", err)
				el.Hidden = true
				return nil
			}
			h.images[i] = img
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) decode(ctx context.Context, h *host, ref string) (image.Image, error) {
	data, err := e.open(ctx, h, ref)
	if err != nil {
		return nil, err
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

func (e *Engine) open(ctx context.Context, h *host, ref string) ([]byte, error) {
	if e.Assets == nil {
		if data, err := template.DecodeDataURI(ref); err == nil {
			return data, nil
		}
		return nil, fmt.Errorf("no asset source for %q", ref)
	}
	return e.Assets.Open(ctx, h.doc, ref)
}

// fitOneLine shrinks el's font until its text fits the box width.
func fitOneLine(el *template.Element, reg *fonts.Registry, maxSize, minSize, step float64) {
	size := maxSize
	for size > minSize && textWidth(reg, el.Family, size, el.Text) > el.W {
		size -= step
	}
	el.FontSize = size
}

func textWidth(reg *fonts.Registry, family string, size float64, s string) float64 {
	face := reg.Face(family, size)
	defer face.Close()
	return float64(font.MeasureString(face, s).Ceil())
}

// placeAnchored centers offset elements on their anchor.
func placeAnchored(p *template.Page) {
	for i := range p.Elements {
		el := &p.Elements[i]
		if el.Anchor == "" || el.Offset == nil {
			continue
		}
		anchor := p.First("#" + el.Anchor)
		if anchor == nil {
			continue
		}
		cx, cy := anchor.Center()
		el.X = cx + el.Offset.DX - el.W/2
		el.Y = cy + el.Offset.DY - el.H/2
	}
}

// scrollSize is the content box: the page size grown to cover every
// visible element.
func scrollSize(p *template.Page) (float64, float64) {
	w, h := p.Width, p.Height
	for _, el := range p.Elements {
		if el.Hidden {
			continue
		}
		w = max(w, el.Right())
		h = max(h, el.Bottom())
	}
	return w, h
}
