package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type stageEvent struct {
	Start   bool
	Stage   Stage
	Subject string
	Err     string
}

type recordingPipelineHooks struct {
	mu     sync.Mutex
	events []stageEvent
}

func (r *recordingPipelineHooks) OnStageStart(_ context.Context, stage Stage, subject string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, stageEvent{Start: true, Stage: stage, Subject: subject})
}

func (r *recordingPipelineHooks) OnStageComplete(_ context.Context, stage Stage, subject string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := stageEvent{Stage: stage, Subject: subject}
	if err != nil {
		e.Err = err.Error()
	}
	r.events = append(r.events, e)
}

type countingCacheHooks struct {
	NoopCacheHooks
	hits int
}

func (c *countingCacheHooks) OnCacheHit(context.Context, string) { c.hits++ }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}

	// Must not panic.
	done := Track(context.Background(), StageCapture, "page1")
	done(nil)
	HTTP().OnError(context.Background(), "GET", "assets.example.com", "/dance-spec.toml", nil)
}

func TestTrack(t *testing.T) {
	t.Cleanup(Reset)
	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)

	ctx := context.Background()
	Track(ctx, StageTemplate, "embedded")(nil)
	Track(ctx, StageExport, "pdf,pptx")(errors.New("boom"))

	want := []stageEvent{
		{Start: true, Stage: StageTemplate, Subject: "embedded"},
		{Stage: StageTemplate, Subject: "embedded"},
		{Start: true, Stage: StageExport, Subject: "pdf,pptx"},
		{Stage: StageExport, Subject: "pdf,pptx", Err: "boom"},
	}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestSetIgnoresNil(t *testing.T) {
	t.Cleanup(Reset)
	c := &countingCacheHooks{}
	SetCacheHooks(c)
	SetCacheHooks(nil)
	SetPipelineHooks(nil)
	SetHTTPHooks(nil)

	Cache().OnCacheHit(context.Background(), "figure")
	if c.hits != 1 {
		t.Errorf("hits = %d, want 1", c.hits)
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("SetPipelineHooks(nil) should keep the previous hooks")
	}
}

func TestConcurrentTrack(t *testing.T) {
	t.Cleanup(Reset)
	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)

	var wg sync.WaitGroup
	for _, page := range []string{"page1", "page2", "figure"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Track(context.Background(), StageCapture, page)(nil)
		}()
	}
	wg.Wait()

	if len(rec.events) != 6 {
		t.Errorf("got %d events, want 6", len(rec.events))
	}
}
