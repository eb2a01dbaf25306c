package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrExpired is returned by [Cache.Get] for an entry older than the TTL.
// The stale file stays until the next Put overwrites it.
var ErrExpired = errors.New("asset expired")

// Cache keeps downloaded asset bodies as files. A file is named by the
// SHA-256 of the asset URL plus the URL's extension, and ages by its
// modification time. A TTL of 0 never expires.
//
// Writes go through a temporary file and a rename, so several processes
// may share a directory.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache creates dir if needed.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("asset cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Get returns the body stored for rawURL. A miss is (nil, false, nil).
func (c *Cache) Get(rawURL string) ([]byte, bool, error) {
	p := c.path(rawURL)
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false, ErrExpired
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put stores body for rawURL and restarts its TTL.
func (c *Cache) Put(rawURL string, body []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".asset-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path(rawURL))
}

// Clear removes every cached asset and returns how many files went.
func (c *Cache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return n, err
		}
		n++
	}
	return n, nil
}

func (c *Cache) path(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:])
	if ext := path.Ext(strings.SplitN(rawURL, "?", 2)[0]); len(ext) > 1 && len(ext) <= 6 {
		name += ext
	}
	return filepath.Join(c.dir, name)
}
