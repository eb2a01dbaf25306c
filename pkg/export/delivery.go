package export

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dancespec/pkg/errors"
)

// PreviewTTL is how long a preview file lives before it is removed.
const PreviewTTL = 60 * time.Second

// Artifact is a fully built deliverable.
type Artifact struct {
	Name string // file name including extension
	Data []byte
}

// Delivery decides where finished artifacts go. With Preview set the PDF is
// written to a temporary file, opened in the system viewer and removed after
// TTL. Every other artifact, and the PDF without Preview, is written to Dir.
type Delivery struct {
	Preview bool
	Dir     string
	TTL     time.Duration
	Logger  *log.Logger

	// Open shows a file to the user. Defaults to the platform viewer.
	Open func(path string) error
}

// Deliver writes every artifact and returns the written paths in order.
// The caller builds all artifacts first, so a failure here is a write
// failure and never a half-built file.
func (d Delivery) Deliver(artifacts ...Artifact) ([]string, error) {
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		var (
			p   string
			err error
		)
		preview := d.Preview && Previewable(a.Name)
		if preview {
			p, err = d.preview(a, logger)
		} else {
			p, err = d.download(a)
		}
		if err != nil {
			return paths, err
		}
		logger.Debug("delivered", "file", p, "bytes", len(a.Data), "preview", preview)
		paths = append(paths, p)
	}
	return paths, nil
}

// Previewable reports whether the named artifact is shown inline under
// Preview. Only the paged PDF is; decks and sheets are always saved.
func Previewable(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func (d Delivery) download(a Artifact) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := errors.ValidateOutputDir(dir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeExport, err, "create %s", dir)
	}
	p := filepath.Join(dir, a.Name)
	if err := os.WriteFile(p, a.Data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeExport, err, "write %s", p)
	}
	return p, nil
}

func (d Delivery) preview(a Artifact, logger *log.Logger) (string, error) {
	f, err := os.CreateTemp("", "dancespec-*-"+a.Name)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExport, err, "create preview file")
	}
	p := f.Name()
	_, werr := f.Write(a.Data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(p)
		if werr == nil {
			werr = cerr
		}
		return "", errors.Wrap(errors.ErrCodeExport, werr, "write preview file")
	}

	ttl := d.TTL
	if ttl <= 0 {
		ttl = PreviewTTL
	}
	time.AfterFunc(ttl, func() {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Debug("preview cleanup failed", "file", p, "error", err)
		}
	})

	open := d.Open
	if open == nil {
		open = openViewer
	}
	if err := open(p); err != nil {
		logger.Warn("could not open preview", "file", p, "error", err)
	}
	return p, nil
}

func openViewer(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
