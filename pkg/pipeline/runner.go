package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/dancespec/pkg/cache"
	"github.com/matzehuels/dancespec/pkg/capture"
	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/export"
	"github.com/matzehuels/dancespec/pkg/figure"
	"github.com/matzehuels/dancespec/pkg/fonts"
	"github.com/matzehuels/dancespec/pkg/formation"
	"github.com/matzehuels/dancespec/pkg/httputil"
	"github.com/matzehuels/dancespec/pkg/observability"
	"github.com/matzehuels/dancespec/pkg/sheet"
	"github.com/matzehuels/dancespec/pkg/template"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, loader and engine - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Loader *template.Loader
	Engine *capture.Engine
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	return NewRunnerWithFetcher(c, keyer, nil, logger)
}

// NewRunnerWithFetcher is NewRunner with a custom fetcher for remote
// templates and assets.
func NewRunnerWithFetcher(c cache.Cache, keyer cache.Keyer, fetcher *httputil.Fetcher, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	loader := template.NewLoader(fetcher, logger)
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Loader: loader,
		Engine: capture.NewEngine(loader, logger),
		Logger: logger,
	}
}

// Execute runs the complete model → populate → capture → export pipeline.
// Artifacts are built fully in memory; nothing is written unless every
// requested format succeeds.
func (r *Runner) Execute(ctx context.Context, opts Options) (result *Result, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	done := observability.Track(ctx, observability.StageExport, strings.Join(opts.Formats, ","))
	defer func() { done(err) }()

	result = &Result{
		Formats:   opts.Formats,
		Artifacts: make(map[string][]byte),
		BaseName:  export.FileBaseName(opts.Project, opts.Schedule),
	}

	// Stage 1: Model
	result.Model = formation.Build(formation.FromArea(opts.Area))
	result.Drawing = figure.Render(result.Model, figure.ThemeExport)
	result.Stats.Drones = droneCount(result.Model)
	result.InputHash = cache.Hash(mustJSON(opts.Area))

	opts.Logger.Info("built layout",
		"x", result.Model.CountX,
		"rows", result.Model.ActualRows,
		"drones", result.Stats.Drones,
		"renderable", result.Model.CanRender)

	// Stage 2: Template
	tmplStart := time.Now()
	skeleton, err := r.Loader.Load(ctx, opts.Template)
	if err != nil {
		return nil, err
	}
	if err := template.RequirePages(skeleton); err != nil {
		return nil, err
	}
	result.Stats.TemplateTime = time.Since(tmplStart)
	tmplHash := templateHash(skeleton, opts.Template)

	if !opts.Refresh && r.fromCache(ctx, result, opts, tmplHash) {
		result.CacheInfo.ExportHit = true
		opts.Logger.Info("artifacts from cache", "formats", opts.Formats)
		return result, nil
	}

	doc, err := template.Populate(skeleton, BuildValues(opts, result.Drawing))
	if err != nil {
		return nil, err
	}

	// Stage 3: Capture
	captureStart := time.Now()
	var pages export.Pages
	var fig image.Image
	if opts.Wants(FormatPDF) || opts.Wants(FormatPPTX) {
		pages, fig, err = r.capture(ctx, doc, result.Drawing, opts)
		if err != nil {
			return nil, err
		}
	}
	result.Stats.CaptureTime = time.Since(captureStart)
	opts.Logger.Debug("captured pages", "duration", result.Stats.CaptureTime)

	// Stage 4: Export
	exportStart := time.Now()
	for _, format := range opts.Formats {
		var buf bytes.Buffer
		switch format {
		case FormatPDF:
			err = export.BuildPDF(&buf, pages)
		case FormatPPTX:
			err = export.BuildPPTX(&buf, pages, export.Overlays{
				Screenshot: opts.Screenshot,
				Figure:     fig,
				Boxes:      doc.Boxes,
			})
		case FormatXLSX:
			err = sheet.Write(&buf, result.Model)
		}
		if err != nil {
			return nil, err
		}
		result.Artifacts[format] = buf.Bytes()
	}
	result.Stats.ExportTime = time.Since(exportStart)

	for format, data := range result.Artifacts {
		key := r.Keyer.ArtifactKey(result.InputHash, opts.ArtifactKeyOpts(format, tmplHash))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache write failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	opts.Logger.Info("exported",
		"formats", opts.Formats,
		"template", result.Stats.TemplateTime,
		"capture", result.Stats.CaptureTime,
		"export", result.Stats.ExportTime)
	return result, nil
}

// capture rasterizes both pages and, for PPTX, the standalone figure. The
// captures run concurrently on the shared surface; the first failure
// cancels the rest.
func (r *Runner) capture(ctx context.Context, doc template.Document, d figure.Drawing, opts Options) (export.Pages, image.Image, error) {
	var (
		cover, detail, fig *capture.Bitmap
		pages              export.Pages
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cover, err = r.Engine.Capture(gctx, doc, template.CoverPage, capture.Options{
			Background: capture.BackgroundCover,
		})
		return err
	})
	g.Go(func() (err error) {
		detail, err = r.Engine.Capture(gctx, doc, template.DetailPage, capture.Options{
			Background: capture.BackgroundDetail,
		})
		return err
	})
	if opts.Wants(FormatPPTX) {
		g.Go(func() (err error) {
			fig, err = r.Engine.CaptureFigure(gctx, d, fonts.FamilyRegular)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return pages, nil, err
	}
	pages = export.Pages{Cover: cover.Image, Detail: detail.Image}
	if fig == nil {
		return pages, nil, nil
	}
	return pages, fig.Image, nil
}

// fromCache fills result from the artifact cache. It reports true only if
// every requested format was found.
func (r *Runner) fromCache(ctx context.Context, result *Result, opts Options, tmplHash string) bool {
	hooks := observability.Cache()
	found := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(result.InputHash, opts.ArtifactKeyOpts(format, tmplHash))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			hooks.OnCacheMiss(ctx, "artifact")
			return false
		}
		hooks.OnCacheHit(ctx, "artifact")
		found[format] = data
	}
	result.Artifacts = found
	return true
}

// Figure renders the layout figure on its own, as SVG or PNG.
func (r *Runner) Figure(ctx context.Context, opts FigureOptions) ([]byte, formation.Model, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, formation.Model{}, err
	}
	m := formation.Build(formation.FromArea(opts.Area))
	theme, _ := figure.ThemeByName(opts.Theme)

	key := r.Keyer.FigureKey(cache.Hash(mustJSON(opts.Area)), cache.FigureKeyOpts{
		Theme:  opts.Theme,
		Format: opts.Format,
		Scale:  opts.Scale,
	})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "figure")
			return data, m, nil
		}
		observability.Cache().OnCacheMiss(ctx, "figure")
	}

	d := figure.Render(m, theme)
	var data []byte
	switch opts.Format {
	case FormatSVG:
		data = figure.RenderSVG(d)
	case FormatPNG:
		bg := figure.ParseHexColor(capture.BackgroundDetail)
		if theme.Name == figure.ThemeUI.Name {
			bg = figure.ParseHexColor(capture.BackgroundCover)
		}
		img := figure.Rasterize(d, opts.Scale, bg, figure.WithFonts(r.Engine.Fonts, fonts.FamilyRegular))
		bm := capture.Bitmap{Image: img}
		b, err := bm.Bytes(true)
		if err != nil {
			return nil, m, errors.Wrap(errors.ErrCodeExport, err, "encode figure")
		}
		data = b
	}

	if err := r.Cache.Set(ctx, key, data, cache.TTLFigure); err == nil {
		observability.Cache().OnCacheSet(ctx, "figure", len(data))
	}
	return data, m, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func droneCount(m formation.Model) int {
	if m.HasTotal {
		return m.Total
	}
	return m.FullRect
}

// templateHash identifies a template by content. Documents that cannot be
// marshaled fall back to their reference.
func templateHash(doc template.Document, ref string) string {
	data, err := json.Marshal(doc)
	if err != nil {
		return cache.Hash([]byte(fmt.Sprintf("ref:%s", ref)))
	}
	return cache.Hash(data)
}

func mustJSON(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
