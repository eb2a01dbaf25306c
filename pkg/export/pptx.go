package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/template"
)

// Slide size of LAYOUT_WIDE in EMU.
const (
	SlideCX = 12192000
	SlideCY = 6858000
)

const (
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	relOffice   = nsR + "/officeDocument"
	relSlide    = nsR + "/slide"
	relMaster   = nsR + "/slideMaster"
	relLayout   = nsR + "/slideLayout"
	relTheme    = nsR + "/theme"
	relImage    = nsR + "/image"
	relPresProp = nsR + "/presProps"
	relApp      = nsR + "/extended-properties"
	relCore     = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// picture is one image placed on a slide, in EMU.
type picture struct {
	name       string
	png        []byte
	x, y, w, h int64
}

type slide struct {
	pictures []picture
}

// BuildPPTX writes a two-slide LAYOUT_WIDE deck. Slide 1 is the cover raster
// full bleed. Slide 2 is the detail raster full bleed with the screenshot
// fitted into the top span and the figure fitted bottom-left into the left
// pane. A screenshot that cannot be decoded aborts the export.
func BuildPPTX(w io.Writer, pages Pages, overlays Overlays) error {
	if err := pages.validate(); err != nil {
		return err
	}

	cover, err := encodePNG(pages.Cover)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "encode cover slide")
	}
	detail, err := encodePNG(pages.Detail)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "encode detail slide")
	}

	slides := []slide{
		{pictures: []picture{fullBleed("Cover", cover)}},
		{pictures: []picture{fullBleed("Detail", detail)}},
	}

	if len(overlays.Screenshot) > 0 {
		shot, err := imaging.Decode(bytes.NewReader(overlays.Screenshot), imaging.AutoOrientation(true))
		if err != nil {
			return errors.Wrap(errors.ErrCodeScreenshot, err, "decode map screenshot")
		}
		data, err := encodePNG(shot)
		if err != nil {
			return errors.Wrap(errors.ErrCodeScreenshot, err, "encode map screenshot")
		}
		box := FitContain(float64(shot.Bounds().Dx()), float64(shot.Bounds().Dy()), overlays.Boxes.TopSpan(), AlignCenter)
		slides[1].pictures = append(slides[1].pictures, placed("Map screenshot", data, box))
	}

	if overlays.Figure != nil {
		data, err := encodePNG(overlays.Figure)
		if err != nil {
			return errors.Wrap(errors.ErrCodeExport, err, "encode landing figure")
		}
		b := overlays.Figure.Bounds()
		box := FitContain(float64(b.Dx()), float64(b.Dy()), overlays.Boxes.LeftPane, AlignBottomLeft)
		slides[1].pictures = append(slides[1].pictures, placed("Landing figure", data, box))
	}

	var buf bytes.Buffer
	if err := writePackage(&buf, slides); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "build pptx")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write pptx")
	}
	return nil
}

func fullBleed(name string, data []byte) picture {
	return picture{name: name, png: data, w: SlideCX, h: SlideCY}
}

// placed converts a box in design pixels to slide EMUs.
func placed(name string, data []byte, px template.Box) picture {
	in := PPTXTarget.Box(px)
	return picture{
		name: name,
		png:  data,
		x:    PPTXTarget.EMU(in.X),
		y:    PPTXTarget.EMU(in.Y),
		w:    PPTXTarget.EMU(in.W),
		h:    PPTXTarget.EMU(in.H),
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePackage(w io.Writer, slides []slide) error {
	zw := zip.NewWriter(w)
	add := func(name, body string) error {
		f, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = io.WriteString(f, body)
		return err
	}

	media := 0
	files := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypes(len(slides))},
		{"_rels/.rels", rels(
			rel{"rId1", relOffice, "ppt/presentation.xml"},
			rel{"rId2", relCore, "docProps/core.xml"},
			rel{"rId3", relApp, "docProps/app.xml"},
		)},
		{"docProps/core.xml", coreXML},
		{"docProps/app.xml", fmt.Sprintf(appXML, len(slides))},
		{"ppt/presentation.xml", presentation(len(slides))},
		{"ppt/_rels/presentation.xml.rels", presentationRels(len(slides))},
		{"ppt/presProps.xml", presPropsXML},
		{"ppt/slideMasters/slideMaster1.xml", masterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", rels(
			rel{"rId1", relLayout, "../slideLayouts/slideLayout1.xml"},
			rel{"rId2", relTheme, "../theme/theme1.xml"},
		)},
		{"ppt/slideLayouts/slideLayout1.xml", layoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", rels(
			rel{"rId1", relMaster, "../slideMasters/slideMaster1.xml"},
		)},
		{"ppt/theme/theme1.xml", themeXML},
	}
	for _, f := range files {
		if err := add(f.name, f.body); err != nil {
			return err
		}
	}

	for i, s := range slides {
		slideRels := []rel{{"rId1", relLayout, "../slideLayouts/slideLayout1.xml"}}
		var tree strings.Builder
		for j, p := range s.pictures {
			media++
			mediaName := fmt.Sprintf("image%d.png", media)
			f, err := zw.Create("ppt/media/" + mediaName)
			if err != nil {
				return err
			}
			if _, err := f.Write(p.png); err != nil {
				return err
			}
			rid := fmt.Sprintf("rId%d", j+2)
			slideRels = append(slideRels, rel{rid, relImage, "../media/" + mediaName})
			writePicture(&tree, j+2, rid, p)
		}
		n := i + 1
		if err := add(fmt.Sprintf("ppt/slides/slide%d.xml", n), fmt.Sprintf(slideXML, tree.String())); err != nil {
			return err
		}
		if err := add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), rels(slideRels...)); err != nil {
			return err
		}
	}
	return zw.Close()
}

type rel struct {
	id, typ, target string
}

func rels(rs ...rel) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<Relationships xmlns="%s">`, nsRel)
	for _, r := range rs {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, r.typ, r.target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func contentTypes(slides int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	override := func(part, typ string) {
		fmt.Fprintf(&b, `<Override PartName="%s" ContentType="%s"/>`, part, typ)
	}
	override("/ppt/presentation.xml", "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml")
	override("/ppt/presProps.xml", "application/vnd.openxmlformats-officedocument.presentationml.presProps+xml")
	override("/ppt/slideMasters/slideMaster1.xml", "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml")
	override("/ppt/slideLayouts/slideLayout1.xml", "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml")
	override("/ppt/theme/theme1.xml", "application/vnd.openxmlformats-officedocument.theme+xml")
	for i := 1; i <= slides; i++ {
		override(fmt.Sprintf("/ppt/slides/slide%d.xml", i), "application/vnd.openxmlformats-officedocument.presentationml.slide+xml")
	}
	override("/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml")
	override("/docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml")
	b.WriteString(`</Types>`)
	return b.String()
}

func presentation(slides int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" saveSubsetFonts="1">`, nsA, nsR, nsP)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	b.WriteString(`<p:sldIdLst>`)
	for i := 0; i < slides; i++ {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+3)
	}
	b.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/>`, SlideCX, SlideCY)
	b.WriteString(`<p:notesSz cx="6858000" cy="9144000"/>`)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

// presentationRels numbers slides from rId3; rId1 and rId2 are the master
// and theme, and presProps follows the slides.
func presentationRels(slides int) string {
	rs := []rel{
		{"rId1", relMaster, "slideMasters/slideMaster1.xml"},
		{"rId2", relTheme, "theme/theme1.xml"},
	}
	for i := 1; i <= slides; i++ {
		rs = append(rs, rel{fmt.Sprintf("rId%d", i+2), relSlide, fmt.Sprintf("slides/slide%d.xml", i)})
	}
	rs = append(rs, rel{fmt.Sprintf("rId%d", slides+3), relPresProp, "presProps.xml"})
	return rels(rs...)
}

func writePicture(b *strings.Builder, id int, rid string, p picture) {
	fmt.Fprintf(b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="`, id)
	_ = xml.EscapeText(b, []byte(p.name))
	b.WriteString(`"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`)
	fmt.Fprintf(b, `<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, rid)
	fmt.Fprintf(b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, p.x, p.y, p.w, p.h)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`)
}
