// Package observability lets callers watch exports without the libraries
// depending on a metrics or tracing backend.
//
// Three hook sets exist: pipeline stages (template load, page capture,
// document build), cache lookups, and outgoing asset requests. All default
// to no-ops. Register replacements once at startup:
//
//	observability.SetCacheHooks(myCacheHooks{})
//
// Libraries time a stage with [Track]:
//
//	done := observability.Track(ctx, observability.StageCapture, "page1")
//	defer func() { done(err) }()
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Stage names a timed pipeline step.
type Stage string

const (
	StageTemplate Stage = "template" // subject: template source
	StageCapture  Stage = "capture"  // subject: page id
	StageExport   Stage = "export"   // subject: comma-separated formats
)

// PipelineHooks receives the start and end of every pipeline stage. Capture
// stages of different pages may run concurrently.
type PipelineHooks interface {
	OnStageStart(ctx context.Context, stage Stage, subject string)
	OnStageComplete(ctx context.Context, stage Stage, subject string, d time.Duration, err error)
}

// CacheHooks receives cache lookups. kind is "figure", "artifact" or "asset".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

// HTTPHooks receives outgoing asset requests.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, status int, d time.Duration)
	// OnError reports transport failures; error statuses go to OnResponse.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopPipelineHooks ignores every event. Embed it to handle a subset.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, Stage, string)                            {}
func (NoopPipelineHooks) OnStageComplete(context.Context, Stage, string, time.Duration, error) {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// hookSet is replaced as a whole on every Set call, so readers never lock.
type hookSet struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var (
	current atomic.Pointer[hookSet]
	writeMu sync.Mutex
)

func init() {
	Reset()
}

func update(fn func(*hookSet)) {
	writeMu.Lock()
	defer writeMu.Unlock()
	next := *current.Load()
	fn(&next)
	current.Store(&next)
}

// SetPipelineHooks registers h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(s *hookSet) { s.pipeline = h })
	}
}

// SetCacheHooks registers h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return current.Load().pipeline }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return current.Load().http }

// Reset restores the no-op hooks.
func Reset() {
	writeMu.Lock()
	defer writeMu.Unlock()
	current.Store(&hookSet{
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		http:     NoopHTTPHooks{},
	})
}

// Track reports the start of stage and returns the function that reports
// its completion with the elapsed time.
func Track(ctx context.Context, stage Stage, subject string) func(error) {
	hooks := Pipeline()
	hooks.OnStageStart(ctx, stage, subject)
	start := time.Now()
	return func(err error) {
		hooks.OnStageComplete(ctx, stage, subject, time.Since(start), err)
	}
}
