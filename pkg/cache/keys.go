package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer generates cache keys. Implementations must be deterministic: the
// same inputs always produce the same key.
type Keyer interface {
	// FigureKey keys a rendered landing figure.
	FigureKey(inputHash string, opts FigureKeyOpts) string
	// ArtifactKey keys a built PDF, PPTX or XLSX file.
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string
}

// FigureKeyOpts are the options that change a rendered figure.
type FigureKeyOpts struct {
	Theme  string  `json:"theme"`
	Format string  `json:"format"`
	Scale  float64 `json:"scale"`
}

// ArtifactKeyOpts are the options that change an exported document.
type ArtifactKeyOpts struct {
	Format       string `json:"format"`
	TemplateHash string `json:"template_hash"`
	Project      string `json:"project"`
	Schedule     string `json:"schedule"`
	Company      string `json:"company"`
	Header       string `json:"header"`
	GradFrom     string `json:"grad_from"`
	GradTo       string `json:"grad_to"`
	Screenshot   string `json:"screenshot"` // hash of the screenshot bytes
}

// DefaultKeyer hashes option structs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FigureKey returns "figure:<sha256>".
func (DefaultKeyer) FigureKey(inputHash string, opts FigureKeyOpts) string {
	return hashKey("figure", inputHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", inputHash, opts)
}

// hashKey returns "<kind>:<sha256 of the JSON-encoded parts>". The full
// digest is kept so distinct option sets never share an entry.
func hashKey(kind string, parts ...any) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(parts)
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 digest of data. Input hashes of area
// configurations, screenshots and templates all use it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
