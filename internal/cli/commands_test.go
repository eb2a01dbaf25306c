package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/dancespec/internal/server"
	"github.com/matzehuels/dancespec/pkg/errors"
)

// runCommand executes the root command with isolated config and cache
// directories and returns what the command wrote to Out.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.Out = &out
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeArea(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "area.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLayoutCommandJSON(t *testing.T) {
	out, err := runCommand(t, "layout", "--json", writeArea(t, sampleArea))
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	var got server.LayoutResponse
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !got.CanRender || got.CountX != 4 || got.Total != 10 || got.ActualRows != 3 {
		t.Errorf("layout = %+v, want 4 wide, 10 drones in 3 rows", got)
	}
}

func TestLayoutCommandMissingInput(t *testing.T) {
	_, err := runCommand(t, "layout")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("layout error = %v, want INVALID_INPUT", err)
	}

	_, err = runCommand(t, "layout", filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("layout error = %v, want NOT_FOUND", err)
	}
}

func TestCatalogNeedsNames(t *testing.T) {
	_, err := runCommand(t, "layout", "--catalog")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("layout --catalog error = %v, want INVALID_INPUT", err)
	}
}

func TestSheetCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.xlsx")
	if _, err := runCommand(t, "sheet", "-o", path, writeArea(t, sampleArea)); err != nil {
		t.Fatalf("sheet error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("sheet should be a zip package")
	}
}

func TestFigureCommand(t *testing.T) {
	out, err := runCommand(t, "figure", "--no-cache", writeArea(t, sampleArea))
	if err != nil {
		t.Fatalf("figure error: %v", err)
	}
	if !strings.Contains(out, "<svg") {
		t.Errorf("figure output = %.60q, want SVG", out)
	}

	_, err = runCommand(t, "figure", "--no-cache", "--format", "gif", writeArea(t, sampleArea))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("figure --format gif error = %v, want INVALID_FORMAT", err)
	}
}

func TestExportCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("renders the full document")
	}
	dir := t.TempDir()
	_, err := runCommand(t, "export", "--no-cache", "-f", "pdf,xlsx", "-o", dir,
		"--project", "Tokyo", "--schedule", "Day1", writeArea(t, sampleArea))
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	for _, ext := range []string{".pdf", ".xlsx"} {
		name := filepath.Join(dir, "Tokyo_Day1_ダンスファイル指示書"+ext)
		if _, err := os.Stat(name); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestConfigFlagMissing(t *testing.T) {
	_, err := runCommand(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "layout", writeArea(t, sampleArea))
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("error = %v, want INVALID_PATH", err)
	}
}

func TestCacheInfoCommand(t *testing.T) {
	buf := captureStdout(t)
	if _, err := runCommand(t, "cache", "info"); err != nil {
		t.Fatalf("cache info error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Directory", "Artifacts", "0 (0 B)"} {
		if !strings.Contains(out, want) {
			t.Errorf("cache info output missing %q:\n%s", want, out)
		}
	}
}
