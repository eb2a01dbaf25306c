package template

import (
	"context"
	"embed"
	"encoding/base64"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/httputil"
	"github.com/matzehuels/dancespec/pkg/observability"
)

//go:embed assets
var embedded embed.FS

const (
	// EmbeddedBase marks documents whose assets live in the binary.
	EmbeddedBase = "embed:"
	defaultFile  = "dance-spec.toml"
)

// Design size used when a template does not declare one.
const (
	DefaultDesignWidth  = 1920
	DefaultDesignHeight = 1080
)

// Default returns the embedded template.
func Default() (Document, error) {
	data, err := embedded.ReadFile("assets/" + defaultFile)
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeTemplateLoad, err, "read embedded template")
	}
	return Parse(data, EmbeddedBase)
}

// Parse decodes a TOML template. base resolves the template's relative
// asset references.
func Parse(data []byte, base string) (Document, error) {
	var doc Document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeTemplateLoad, err, "parse template")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Debug("template has unknown keys", "keys", undecoded)
	}

	doc.Base = base
	if doc.DesignWidth <= 0 {
		doc.DesignWidth = DefaultDesignWidth
	}
	if doc.DesignHeight <= 0 {
		doc.DesignHeight = DefaultDesignHeight
	}
	if doc.Vars == nil {
		doc.Vars = map[string]string{}
	}
	for i := range doc.Pages {
		p := &doc.Pages[i]
		if p.Width <= 0 {
			p.Width = doc.DesignWidth
		}
		if p.Height <= 0 {
			p.Height = doc.DesignHeight
		}
		for j := range p.Elements {
			if p.Elements[j].Kind == "" {
				p.Elements[j].Kind = KindText
			}
		}
	}
	return doc, nil
}

// Loader reads templates and their assets from the embedded default, the
// filesystem, or HTTP.
type Loader struct {
	Fetcher *httputil.Fetcher
	Logger  *log.Logger
}

// NewLoader returns a Loader. fetcher may be nil, in which case remote
// references use an uncached fetcher.
func NewLoader(fetcher *httputil.Fetcher, logger *log.Logger) *Loader {
	if fetcher == nil {
		fetcher = httputil.NewFetcher(nil)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loader{Fetcher: fetcher, Logger: logger}
}

// Load reads the template at ref: empty for the embedded default, an
// http(s) URL, or a file path.
func (l *Loader) Load(ctx context.Context, ref string) (doc Document, err error) {
	source := ref
	if source == "" {
		source = "embedded"
	}
	done := observability.Track(ctx, observability.StageTemplate, source)
	defer func() { done(err) }()

	switch {
	case ref == "":
		return Default()
	case isURL(ref):
		data, err := l.Fetcher.Fetch(ctx, ref)
		if err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeTemplateLoad, err, "fetch template")
		}
		base := ref
		if i := strings.LastIndex(base, "/"); i >= 0 {
			base = base[:i+1]
		}
		l.Logger.Debug("template fetched", "url", ref, "bytes", len(data))
		return Parse(data, base)
	default:
		data, err := os.ReadFile(ref)
		if err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeTemplateLoad, err, "read template")
		}
		return Parse(data, filepath.Dir(ref))
	}
}

// Open returns the bytes of an asset referenced by doc: a data URI, an
// absolute URL or path, or a path relative to the document base.
func (l *Loader) Open(ctx context.Context, doc Document, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty asset reference")
	case strings.HasPrefix(ref, "data:"):
		return DecodeDataURI(ref)
	case isURL(ref):
		return l.Fetcher.Fetch(ctx, ref)
	case filepath.IsAbs(ref):
		return readFile(ref)
	}

	switch base := doc.Base; {
	case base == EmbeddedBase:
		data, err := embedded.ReadFile(path.Join("assets", ref))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "embedded asset %s", ref)
		}
		return data, nil
	case isURL(base):
		u, err := url.Parse(base)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "template base")
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "asset %s", ref)
		}
		return l.Fetcher.Fetch(ctx, u.ResolveReference(rel).String())
	default:
		return readFile(filepath.Join(base, ref))
	}
}

// DecodeDataURI returns the payload of a base64 or percent-encoded data URI.
func DecodeDataURI(uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "data URI has no payload")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode data URI")
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode data URI")
	}
	return []byte(s), nil
}

func readFile(p string) ([]byte, error) {
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "asset %s", p)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "asset %s", p)
	}
	return data, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
