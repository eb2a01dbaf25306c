package pipeline

import (
	"encoding/base64"
	"net/http"

	"github.com/matzehuels/dancespec/pkg/figure"
	"github.com/matzehuels/dancespec/pkg/orientation"
	"github.com/matzehuels/dancespec/pkg/template"
	"github.com/matzehuels/dancespec/pkg/texts"
)

// Template selectors filled by an export.
const (
	SelTitle       = "#title"
	SelCompany     = "#company"
	SelPage2Header = "#page2-header"
	SelAircraft    = "#v-aircraft"
	SelAltitude    = "#v-altitude"
	SelMove        = "#v-move"
	SelTurn        = "#v-turn"
	SelObstacles   = "#v-obstacles"
	SelShow        = "#v-show"
	SelAnim        = "#v-anim"
	SelSpacingL    = ".spacing-label--left"
	SelSpacingB    = ".spacing-label--bottom"
	SelFigure      = "#landing-figure-slot"
	SelScreenshot  = "#map-screenshot"
	SelDroneIcon   = "#drone1-orientation-icon"
	SelAntenna     = ".drone-label--antenna"
	SelBattery     = ".drone-label--battery"
)

// BuildValues maps validated options and the layout figure to template
// values.
func BuildValues(opts Options, d figure.Drawing) template.Values {
	cfg := opts.Area
	left, bottom := texts.Spacing(cfg)

	place := orientation.Resolve(orientation.FromArea(cfg), orientation.Export)

	return template.Values{
		Text: map[string]string{
			SelTitle:       texts.Title(opts.Project, opts.Schedule),
			SelCompany:     opts.Company,
			SelPage2Header: opts.Header,
			SelAircraft:    texts.Aircraft(cfg),
			SelAltitude:    texts.Altitude(cfg),
			SelMove:        texts.Move(cfg),
			SelTurn:        texts.Turn(cfg.Geometry.Turn),
			SelObstacles:   texts.Obstacles(cfg),
			SelShow:        texts.Show(cfg),
			SelAnim:        texts.Anim(cfg),
			SelSpacingL:    left,
			SelSpacingB:    bottom,
		},
		Images: map[string]string{
			SelScreenshot: screenshotURI(opts.Screenshot),
		},
		Drawings: map[string]figure.Drawing{
			SelFigure: d,
		},
		Transforms: map[string]template.Transform{
			SelDroneIcon: {Rotate: place.Rotation},
			SelAntenna:   {Offset: &template.Offset{DX: place.Antenna.X, DY: place.Antenna.Y}},
			SelBattery:   {Offset: &template.Offset{DX: place.Battery.X, DY: place.Battery.Y}},
		},
		Vars: map[string]string{
			"--grad-from": opts.GradFrom,
			"--grad-to":   opts.GradTo,
		},
	}
}

// screenshotURI embeds the screenshot as a data URI. An empty screenshot
// hides the map element.
func screenshotURI(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
