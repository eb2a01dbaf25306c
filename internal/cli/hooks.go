package cli

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/dancespec/pkg/observability"
)

// stageHooks shows the running pipeline stage on the export spinner.
type stageHooks struct {
	spin *spinner
}

func (h stageHooks) OnStageStart(ctx context.Context, stage observability.Stage, subject string) {
	switch stage {
	case observability.StageTemplate:
		h.spin.setMessage("Loading template...")
	case observability.StageCapture:
		h.spin.setMessage("Capturing " + subject + "...")
	case observability.StageExport:
		h.spin.setMessage("Building " + strings.ReplaceAll(subject, ",", ", ") + "...")
	}
}

func (h stageHooks) OnStageComplete(ctx context.Context, stage observability.Stage, subject string, d time.Duration, err error) {
	loggerFromContext(ctx).Debug("stage done", "stage", stage, "subject", subject, "duration", d.Round(time.Millisecond), "err", err)
}

// logHooks writes cache and asset fetch events to the debug log of the
// logger carried by the context.
type logHooks struct{}

func (logHooks) OnCacheHit(ctx context.Context, kind string) {
	loggerFromContext(ctx).Debug("cache hit", "kind", kind)
}

func (logHooks) OnCacheMiss(ctx context.Context, kind string) {
	loggerFromContext(ctx).Debug("cache miss", "kind", kind)
}

func (logHooks) OnCacheSet(ctx context.Context, kind string, size int) {
	loggerFromContext(ctx).Debug("cache set", "kind", kind, "bytes", size)
}

func (logHooks) OnRequest(ctx context.Context, method, host, path string) {
	loggerFromContext(ctx).Debug("fetch", "method", method, "host", host, "path", path)
}

func (logHooks) OnResponse(ctx context.Context, method, host, path string, status int, d time.Duration) {
	loggerFromContext(ctx).Debug("fetched", "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (logHooks) OnError(ctx context.Context, method, host, path string, err error) {
	loggerFromContext(ctx).Warn("fetch failed", "host", host, "path", path, "err", err)
}

var (
	_ observability.PipelineHooks = stageHooks{}
	_ observability.CacheHooks    = logHooks{}
	_ observability.HTTPHooks     = logHooks{}
)
