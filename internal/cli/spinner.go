package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"◐", "◓", "◑", "◒"}

const spinnerInterval = 120 * time.Millisecond

// spinner animates one status line on w. The message may change while it
// spins; pipeline stages use that to report where an export is. Cancelling
// the context clears the line and ends the animation.
type spinner struct {
	w   io.Writer
	ctx context.Context

	mu      sync.Mutex
	message string
	width   int // widest line drawn so far

	quit     chan struct{}
	finished chan struct{}
	once     sync.Once
}

func newSpinner(ctx context.Context, w io.Writer, message string) *spinner {
	return &spinner{
		w:        w,
		ctx:      ctx,
		message:  message,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// start runs the animation until stop or context cancellation.
func (s *spinner) start() {
	go func() {
		defer close(s.finished)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			s.draw(spinnerFrames[i%len(spinnerFrames)])
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-s.quit:
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *spinner) setMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := frame + " " + s.message
	s.width = max(s.width, len(line))
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+2))
}

// stop ends the animation and clears the line. Safe to call more than once.
func (s *spinner) stop() {
	s.once.Do(func() {
		close(s.quit)
		<-s.finished
		s.clear()
	})
}

// fail stops the spinner and prints msg as an error.
func (s *spinner) fail(msg string) {
	s.stop()
	printError("%s", msg)
}

// cancelled reports whether the context ended the spinner.
func (s *spinner) cancelled() bool {
	return s.ctx.Err() != nil
}
