package errors

import (
	"net/url"
	"os"
	"slices"
	"strings"
	"unicode"
)

// ValidateFormat checks that an export format is one of the supported kinds.
func ValidateFormat(format string, valid map[string]bool) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !valid[format] {
		names := make([]string, 0, len(valid))
		for k := range valid {
			names = append(names, k)
		}
		slices.Sort(names)
		return New(ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(names, ", "))
	}
	return nil
}

// ValidateOutputDir checks that dir is usable as an output directory.
// A missing directory is accepted because exports create it on demand.
func ValidateOutputDir(dir string) error {
	if dir == "" {
		return New(ErrCodeInvalidPath, "output directory cannot be empty")
	}
	for _, r := range dir {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output directory contains invalid characters")
		}
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return Wrap(ErrCodeInvalidPath, err, "stat %s", dir)
	}
	if !info.IsDir() {
		return New(ErrCodeInvalidPath, "output path %s is not a directory", dir)
	}
	return nil
}

// ValidateURL checks that a template or asset location is an absolute
// http(s) URL with a host. Local paths are rejected so that API callers
// cannot make the server read its own filesystem.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", rawURL)
	}
	return nil
}

// ValidateColor checks a #RGB or #RRGGBB hex color.
func ValidateColor(c string) error {
	if !strings.HasPrefix(c, "#") || (len(c) != 4 && len(c) != 7) {
		return New(ErrCodeInvalidInput, "invalid color %q (want #RGB or #RRGGBB)", c)
	}
	for _, r := range c[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return New(ErrCodeInvalidInput, "invalid color %q", c)
		}
	}
	return nil
}
