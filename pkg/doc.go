// Package pkg provides the core libraries for Dancespec landing instruction
// sheets.
//
// # Overview
//
// Dancespec turns the flight-area configuration of a drone show into the
// documents the landing crew works from: a two-page instruction sheet
// (cover and landing detail) as PDF and PPTX, the landing layout figure, and
// a table of drone positions. The pkg directory is organized into three
// main areas:
//
//  1. Geometry - [area], [spacing], [formation], [orientation], [figure]
//  2. Documents - [template], [capture], [export], [sheet], [texts], [fonts]
//  3. Infrastructure - [pipeline], [cache], [httputil], [errors], [observability]
//
// # Architecture
//
// The typical data flow:
//
//	Area configuration (JSON/YAML/TOML or catalog)
//	         ↓
//	    [formation] package (reconcile counts, rows, extents)
//	         ↓
//	    [figure] package (layout drawing: SVG or raster)
//	         ↓
//	    [template] package (load pages, populate slots)
//	         ↓
//	    [capture] package (rasterize pages)
//	         ↓
//	    PDF/PPTX/XLSX output
//
// # Quick Start
//
// Build the instruction sheet for one schedule:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/dancespec/pkg/area"
//	    "github.com/matzehuels/dancespec/pkg/cache"
//	    "github.com/matzehuels/dancespec/pkg/pipeline"
//	)
//
//	cfg, _ := area.Load("area.json")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	defer runner.Close()
//
//	result, _ := runner.Execute(context.Background(), pipeline.Options{
//	    Area:     cfg,
//	    Project:  "東京湾",
//	    Schedule: "1日目",
//	})
//	pdf := result.Artifacts[pipeline.FormatPDF]
//
// Inspect the landing grid without rendering anything:
//
//	m := formation.Build(formation.FromArea(cfg))
//	if !m.CanRender {
//	    fmt.Println(m.Message)
//	}
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test -short ./pkg/...    # Skip full document renders
//
// [area]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/area
// [spacing]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/spacing
// [formation]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/formation
// [orientation]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/orientation
// [figure]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/figure
// [template]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/template
// [capture]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/capture
// [export]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/export
// [sheet]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/sheet
// [texts]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/texts
// [fonts]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/fonts
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/dancespec/pkg/observability
package pkg
