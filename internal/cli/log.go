// Package cli implements the dancespec command-line interface.
//
// This package provides commands for turning a flight-area configuration
// into landing instruction documents, rendering the layout figure on its
// own, and serving the same pipeline over HTTP. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - export: Build the two-page instruction sheet as PDF, PPTX or XLSX
//   - figure: Render the landing layout figure as SVG or PNG
//   - layout: Inspect the landing grid, optionally in an interactive editor
//   - sheet: Write the drone position table
//   - serve: Run the HTTP API
//   - cache: Manage the artifact and asset cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/matzehuels/dancespec/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(ctx, os.Stderr, os.Args[1:]); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger writes level-filtered, timestamped ("15:04:05.00") records to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress measures one command run. mark logs the time since the previous
// mark at debug level; done logs the total at info level.
type progress struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, last: now}
}

func (p *progress) mark(stage string) {
	now := time.Now()
	p.logger.Debug(stage, "took", now.Sub(p.last).Round(time.Millisecond))
	p.last = now
}

func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

// withLogger attaches l to ctx for loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the attached logger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
