package httputil

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCachePutGet(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	const u = "https://assets.example.com/dance-spec.toml?v=2"
	want := []byte("[[pages]]\nid = \"page1\"\n")
	if err := c.Put(u, want); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, ok, err := c.Get(u)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get() = %q, want %q", got, want)
	}

	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".toml") {
		t.Errorf("entries = %v, want one .toml file", entries)
	}
}

func TestCacheMiss(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	data, ok, err := c.Get("https://example.com/missing.png")
	if ok || err != nil || data != nil {
		t.Errorf("Get(missing) = %v, %v, %v, want miss", data, ok, err)
	}
}

func TestCacheExpired(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Minute)
	const u = "https://example.com/bg.png"
	if err := c.Put(u, []byte("png")); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(c.path(u), old, old); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(u); ok || !errors.Is(err, ErrExpired) {
		t.Errorf("Get(stale) = %v, %v, want ErrExpired", ok, err)
	}

	// Put refreshes the entry.
	if err := c.Put(u, []byte("png2")); err != nil {
		t.Fatal(err)
	}
	if got, ok, _ := c.Get(u); !ok || string(got) != "png2" {
		t.Errorf("Get(refreshed) = %q, %v", got, ok)
	}
}

func TestCacheNoTTL(t *testing.T) {
	c, _ := NewCache(t.TempDir(), 0)
	const u = "https://example.com/font.ttf"
	_ = c.Put(u, []byte("ttf"))
	old := time.Now().Add(-365 * 24 * time.Hour)
	_ = os.Chtimes(c.path(u), old, old)
	if _, ok, err := c.Get(u); !ok || err != nil {
		t.Errorf("Get() with TTL 0 = %v, %v, want hit", ok, err)
	}
}

func TestNewCacheCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if _, err := NewCache(dir, time.Hour); err != nil {
		t.Fatalf("NewCache() error: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
	if _, err := NewCache("", time.Hour); err == nil {
		t.Error("NewCache(\"\") should fail")
	}
}

func TestCacheClear(t *testing.T) {
	c, err := NewCache(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range []string{"https://a.example/t.toml", "https://a.example/icon.png"} {
		if err := c.Put(u, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil || n != 2 {
		t.Fatalf("Clear() = %d, %v, want 2, nil", n, err)
	}
	if _, ok, _ := c.Get("https://a.example/t.toml"); ok {
		t.Error("Get after Clear should miss")
	}
}
