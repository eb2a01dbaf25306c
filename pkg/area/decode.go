package area

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/dancespec/pkg/errors"
)

// Format identifies an input encoding.
type Format string

// Supported input encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath guesses the encoding from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Load reads a configuration file, choosing the decoder by extension.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "area file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f, FormatFromPath(path))
}

// Decode reads a configuration in the given format. A schedule document
// whose configuration sits under an "area" key is unwrapped.
func Decode(r io.Reader, format Format) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read area config")
	}
	switch format {
	case FormatYAML:
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse yaml")
		}
		return fromMap(doc)
	case FormatTOML:
		var doc map[string]any
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse toml")
		}
		return fromMap(doc)
	default:
		return decodeJSON(data)
	}
}

func fromMap(doc map[string]any) (*Config, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "normalize area config")
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (*Config, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return &Config{}, nil
	}
	var wrapper struct {
		Area json.RawMessage `json:"area"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse area config")
	}
	if len(wrapper.Area) > 0 && string(wrapper.Area) != "null" {
		data = wrapper.Area
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse area config")
	}
	return &cfg, nil
}
