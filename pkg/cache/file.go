package cache

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// entryMagic prefixes every artifact file. The header is the magic followed
// by the expiry as big-endian Unix nanoseconds (0 for no expiry); the
// artifact bytes follow unchanged so large PDFs are not re-encoded.
var entryMagic = []byte("DSC1")

const (
	entryHeader = 12
	entryExt    = ".bin"
)

// FileCache stores artifacts as files below a directory, sharded by the
// first byte of the key hash. It is the CLI default.
type FileCache struct {
	dir string
}

// DefaultDir returns ~/.cache/dancespec/artifacts, honoring XDG_CACHE_HOME.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "dancespec", "artifacts"), nil
}

// NewFileCache creates dir if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get returns the artifact stored under key. Expired and unreadable entries
// are removed and reported as a miss.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	expires, body, ok := decodeEntry(raw)
	if !ok || (!expires.IsZero() && time.Now().After(expires)) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return body, true, nil
}

// Set stores data under key. A zero ttl never expires.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	path := c.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Readers see either the old file or the new one, never a partial write.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(encodeEntry(expires, data))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes key. Missing keys are not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Usage summarizes the entries currently on disk.
type Usage struct {
	Entries int
	Bytes   int64
	Expired int
}

// Usage walks the cache directory. Expired entries are counted but left in
// place; Get removes them lazily.
func (c *FileCache) Usage() (Usage, error) {
	var u Usage
	now := time.Now()
	err := c.walk(func(path string, info fs.FileInfo) error {
		u.Entries++
		u.Bytes += info.Size()
		if exp, ok := readExpiry(path); ok && !exp.IsZero() && now.After(exp) {
			u.Expired++
		}
		return nil
	})
	return u, err
}

// Clear removes every entry and returns how many were deleted.
func (c *FileCache) Clear() (int, error) {
	n := 0
	err := c.walk(func(path string, _ fs.FileInfo) error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) walk(fn func(path string, info fs.FileInfo) error) error {
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != entryExt {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(path, info)
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *FileCache) path(key string) string {
	sum := Hash([]byte(key))
	return filepath.Join(c.dir, sum[:2], sum[2:]+entryExt)
}

func encodeEntry(expires time.Time, data []byte) []byte {
	buf := make([]byte, entryHeader, entryHeader+len(data))
	copy(buf, entryMagic)
	if !expires.IsZero() {
		binary.BigEndian.PutUint64(buf[4:entryHeader], uint64(expires.UnixNano()))
	}
	return append(buf, data...)
}

func decodeEntry(raw []byte) (time.Time, []byte, bool) {
	if len(raw) < entryHeader || !bytes.Equal(raw[:4], entryMagic) {
		return time.Time{}, nil, false
	}
	var expires time.Time
	if ns := binary.BigEndian.Uint64(raw[4:entryHeader]); ns != 0 {
		expires = time.Unix(0, int64(ns))
	}
	return expires, raw[entryHeader:], true
}

func readExpiry(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()
	head := make([]byte, entryHeader)
	if _, err := io.ReadFull(f, head); err != nil {
		return time.Time{}, false
	}
	exp, _, ok := decodeEntry(head)
	return exp, ok
}

var _ Cache = (*FileCache)(nil)
