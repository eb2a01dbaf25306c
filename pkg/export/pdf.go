package export

import (
	"bytes"
	"image"
	"io"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"

	"github.com/matzehuels/dancespec/pkg/errors"
)

// JPEGQuality is the encoder quality of full-page PDF images.
const JPEGQuality = 95

// BuildPDF writes a two-page landscape PDF with each page raster placed
// full bleed. Nothing is written to w unless the whole document builds.
func BuildPDF(w io.Writer, pages Pages) error {
	if err := pages.validate(); err != nil {
		return err
	}

	// fpdf swaps width and height for landscape documents.
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        PDFTarget.Unit,
		Size:           fpdf.SizeType{Wd: PDFTarget.H, Ht: PDFTarget.W},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("dancespec", true)

	for i, img := range []image.Image{pages.Cover, pages.Detail} {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
			return errors.Wrap(errors.ErrCodeExport, err, "encode page %d", i+1)
		}
		name := pageImageName(i)
		opt := fpdf.ImageOptions{ImageType: "JPG"}
		pdf.AddPage()
		pdf.RegisterImageOptionsReader(name, opt, &buf)
		pdf.ImageOptions(name, 0, 0, PDFTarget.W, PDFTarget.H, false, opt, 0, "")
		if pdf.Err() {
			return errors.Wrap(errors.ErrCodeExport, pdf.Error(), "place page %d", i+1)
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "render pdf")
	}
	if _, err := w.Write(out.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write pdf")
	}
	return nil
}

func pageImageName(i int) string {
	return "page" + strconv.Itoa(i+1)
}
