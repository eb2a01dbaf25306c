package template

import (
	"maps"
	"slices"

	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/figure"
)

// Transform rotates an element and, for anchored elements, places it.
type Transform struct {
	Rotate float64
	Offset *Offset
}

// Values are the per-export contents keyed by "#id" or ".class" selectors.
type Values struct {
	Text       map[string]string
	Images     map[string]string // src; empty hides the element
	Drawings   map[string]figure.Drawing
	Transforms map[string]Transform
	Vars       map[string]string
}

// Populate returns a copy of skeleton with v applied. The skeleton is not
// modified. Both the cover and the detail page must be present.
func Populate(skeleton Document, v Values) (Document, error) {
	if err := RequirePages(skeleton); err != nil {
		return Document{}, err
	}

	doc := skeleton.Clone()
	maps.Copy(doc.Vars, v.Vars)

	for i := range doc.Pages {
		p := &doc.Pages[i]
		for _, sel := range sortedKeys(v.Text) {
			for _, el := range p.Find(sel) {
				el.Text = v.Text[sel]
			}
		}
		for _, sel := range sortedKeys(v.Images) {
			for _, el := range p.Find(sel) {
				el.Src = v.Images[sel]
				el.Hidden = el.Src == ""
			}
		}
		for _, sel := range sortedKeys(v.Drawings) {
			for _, el := range p.Find(sel) {
				d := v.Drawings[sel]
				d.Shapes = slices.Clone(d.Shapes)
				el.Drawing = &d
			}
		}
		for _, sel := range sortedKeys(v.Transforms) {
			for _, el := range p.Find(sel) {
				t := v.Transforms[sel]
				el.Rotate = t.Rotate
				if t.Offset != nil {
					o := *t.Offset
					el.Offset = &o
				}
			}
		}
	}
	return doc, nil
}

// RequirePages reports a TEMPLATE_PAGE error when the cover or the detail
// page is missing.
func RequirePages(d Document) error {
	for _, id := range []string{CoverPage, DetailPage} {
		if _, ok := d.Page(id); !ok {
			return errors.New(errors.ErrCodeTemplatePage, "template %q has no #%s", d.Name, id)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
