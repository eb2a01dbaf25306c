package capture

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/dancespec/pkg/fonts"
	"github.com/matzehuels/dancespec/pkg/template"
)

// Surface tracks the off-screen hosts of in-flight captures. Each capture
// gets its own host; hosts never share pages, fonts or decoded images.
type Surface struct {
	mu    sync.Mutex
	hosts map[uint64]*host
	next  atomic.Uint64
}

// NewSurface returns an empty surface.
func NewSurface() *Surface {
	return &Surface{hosts: make(map[uint64]*host)}
}

// Len returns the number of live hosts.
func (s *Surface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hosts)
}

func (s *Surface) attach(h *host) {
	h.id = s.next.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts[h.id] = h
}

func (s *Surface) detach(h *host) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hosts, h.id)
}

// host is the isolated layout context of one capture.
type host struct {
	id          uint64
	doc         template.Document
	page        template.Page
	stylesheets []template.Stylesheet
	vars        map[string]string
	fonts       *fonts.Registry

	mu     sync.Mutex
	sheets map[string]image.Image // image stylesheets by href
	images map[int]image.Image    // decoded image elements by index
}
