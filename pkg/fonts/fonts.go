// Package fonts provides the font faces used to rasterize figures and
// instruction sheets.
//
// The Go font family is always available, compiled into the binary. Other
// families (typically a Japanese face for the sheet labels) are registered
// at runtime from TrueType data; a family that was never registered, or
// failed to parse, resolves to the Go fallback.
package fonts

import (
	"fmt"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Family names that are always registered.
const (
	FamilyRegular = "go"
	FamilyBold    = "go-bold"
)

// Registry maps family names to parsed fonts. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	fonts map[string]*truetype.Font
}

// NewRegistry returns a registry preloaded with the Go font family.
func NewRegistry() *Registry {
	r := &Registry{fonts: make(map[string]*truetype.Font)}
	r.fonts[FamilyRegular] = mustParse(goregular.TTF)
	r.fonts[FamilyBold] = mustParse(gobold.TTF)
	return r
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register parses TrueType data and makes it available under name.
func (r *Registry) Register(name string, data []byte) error {
	f, err := truetype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fonts[name] = f
	return nil
}

// RegisterFile reads a .ttf file and registers it under name.
func (r *Registry) RegisterFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return r.Register(name, data)
}

// Clone returns an independent registry holding the same families.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &Registry{fonts: make(map[string]*truetype.Font, len(r.fonts))}
	for k, v := range r.fonts {
		out.fonts[k] = v
	}
	return out
}

// Has reports whether a family is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.fonts[name]
	return ok
}

// Face returns a face of the given family at size pixels (72 DPI).
// Unknown families resolve to the regular Go font.
func (r *Registry) Face(name string, size float64) font.Face {
	r.mu.RLock()
	f, ok := r.fonts[name]
	if !ok {
		f = r.fonts[FamilyRegular]
	}
	r.mu.RUnlock()
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

func mustParse(data []byte) *truetype.Font {
	f, err := truetype.Parse(data)
	if err != nil {
		panic(fmt.Sprintf("fonts: embedded font is invalid: %v", err))
	}
	return f
}
