package capture

import (
	"bytes"
	"encoding/base64"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// JPEGQuality is used for lossy encodings.
const JPEGQuality = 95

// Bitmap is a captured raster.
type Bitmap struct {
	Image image.Image
	Scale float64
}

// Width returns the raster width in pixels.
func (b *Bitmap) Width() int { return b.Image.Bounds().Dx() }

// Height returns the raster height in pixels.
func (b *Bitmap) Height() int { return b.Image.Bounds().Dy() }

// Encode writes the bitmap as PNG when preferPNG is set, and as JPEG at
// quality 95 otherwise.
func (b *Bitmap) Encode(w io.Writer, preferPNG bool) error {
	if preferPNG {
		return imaging.Encode(w, b.Image, imaging.PNG)
	}
	return imaging.Encode(w, b.Image, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
}

// Bytes returns the encoded bitmap.
func (b *Bitmap) Bytes(preferPNG bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.Encode(&buf, preferPNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURI returns the encoded bitmap as a base64 data URI.
func (b *Bitmap) DataURI(preferPNG bool) (string, error) {
	data, err := b.Bytes(preferPNG)
	if err != nil {
		return "", err
	}
	mime := "image/jpeg"
	if preferPNG {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
