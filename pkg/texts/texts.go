// Package texts builds the Japanese value strings shown on the instruction
// sheet from an area configuration.
//
// Every builder is total: missing or unparseable inputs produce a
// placeholder ("—", or "なし" for obstacles) rather than an error.
package texts

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/matzehuels/dancespec/pkg/area"
	"github.com/matzehuels/dancespec/pkg/spacing"
)

// Placeholder marks a value that was not provided.
const Placeholder = "—"

// Defaults for the sheet chrome.
const (
	DefaultProject     = "案件名"
	DefaultCompany     = "株式会社レッドクリフ"
	DefaultPage2Header = "離発着情報"
	DocumentSuffix     = "ダンスファイル指示書"
	NoObstacles        = "なし"
)

// headingSep separates project and schedule in a combined heading.
const headingSep = "　"

var (
	jaPrinter = message.NewPrinter(language.Japanese)
	strict    = bluemonday.StrictPolicy()
)

// Aircraft describes the drone count, e.g. "X1：1,200機" or "4 × 3 機".
func Aircraft(cfg *area.Config) string {
	dc := cfg.DroneCount
	var v string
	switch {
	case dc.Count.Valid():
		v = grouped(dc.Count.Float()) + "機"
	case dc.XCount.Valid() && dc.YCount.Valid():
		v = fmt.Sprintf("%s × %s 機", grouped(dc.XCount.Float()), grouped(dc.YCount.Float()))
	default:
		return Placeholder
	}
	if model := strings.TrimSpace(dc.Model); model != "" {
		v = model + "：" + v
	}
	return v
}

// Altitude describes the altitude band on two lines. The flight area band
// wins; the geometry band and then the single geometry altitude fill in
// missing ends.
func Altitude(cfg *area.Config) string {
	g := cfg.Geometry
	lo := firstNumber(cfg.FlightArea.AltitudeMin, g.FlightAltitudeMin, g.FlightAltitude)
	hi := firstNumber(cfg.FlightArea.AltitudeMax, g.FlightAltitudeMax, g.FlightAltitude)
	return fmt.Sprintf("最低高度: %s m\n最高高度: %s m", lo, hi)
}

// Move is the liftoff movement note.
func Move(cfg *area.Config) string {
	return textOr(cfg.Actions.Liftoff, Placeholder)
}

// Turn describes the formation turn, e.g. "時計回りに90度回転".
func Turn(t *area.Turn) string {
	if t == nil {
		return Placeholder
	}
	angle := numberOr(t.AngleDeg, Placeholder)
	if t.Direction == "ccw" {
		return "反時計回りに" + angle + "度回転"
	}
	return "時計回りに" + angle + "度回転"
}

// Obstacles is the obstacle note, or "なし".
func Obstacles(cfg *area.Config) string {
	return textOr(cfg.ObstacleNote, NoObstacles)
}

// Show describes the takeoff and landing light cues and the return note.
func Show(cfg *area.Config) string {
	return fmt.Sprintf("離陸: %s\n着陸: %s\n %s",
		textOr(cfg.Lights.Takeoff, Placeholder),
		textOr(cfg.Lights.Landing, Placeholder),
		textOr(cfg.ReturnNote, Placeholder))
}

// Anim describes the animation footprint, e.g. "W40m × L30m". Missing
// dimensions are taken from the drawn flight area's diameters.
func Anim(cfg *area.Config) string {
	w, d := cfg.Animation.Width, cfg.Animation.Depth
	if fa := cfg.Geometry.FlightAreaShape; fa != nil {
		if !w.Valid() && fa.RadiusX.Valid() {
			w = area.NewNumber(fa.RadiusX.Float() * 2)
		}
		if !d.Valid() && fa.RadiusY.Valid() {
			d = area.NewNumber(fa.RadiusY.Float() * 2)
		}
	}
	ws, ds := numberOr(w, ""), numberOr(d, "")
	switch {
	case ws != "" && ds != "":
		return "W" + ws + "m × L" + ds + "m"
	case ws != "":
		return "W" + ws + "m"
	case ds != "":
		return "L" + ds + "m"
	}
	return Placeholder
}

// Spacing returns the left (horizontal) and bottom (vertical) spacing labels.
func Spacing(cfg *area.Config) (left, bottom string) {
	return spacing.Describe(string(cfg.Spacing.Horizontal)), spacing.Describe(string(cfg.Spacing.Vertical))
}

// Title is the cover title, with full-width separators.
func Title(project, schedule string) string {
	return project + headingSep + schedule + headingSep + DocumentSuffix
}

// ResolveProjectSchedule trims project and schedule, fills either from a
// combined heading ("project　schedule") when empty, and defaults the
// project to 案件名.
func ResolveProjectSchedule(project, schedule, heading string) (string, string) {
	project, schedule = strings.TrimSpace(project), strings.TrimSpace(schedule)
	if project == "" || schedule == "" {
		var parts []string
		for _, p := range strings.Split(heading, headingSep) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if project == "" && len(parts) > 0 {
			project = parts[0]
		}
		if schedule == "" && len(parts) > 1 {
			schedule = parts[1]
		}
	}
	if project == "" {
		project = DefaultProject
	}
	return project, schedule
}

// Plain strips markup from free text.
func Plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

func textOr(s, fallback string) string {
	if s = Plain(s); s != "" {
		return s
	}
	return fallback
}

func numberOr(n area.Number, fallback string) string {
	if !n.Valid() {
		return fallback
	}
	if s := n.String(); s != "" {
		return s
	}
	return strconv.FormatFloat(n.Float(), 'f', -1, 64)
}

func firstNumber(ns ...area.Number) string {
	for _, n := range ns {
		if n.Valid() {
			return numberOr(n, Placeholder)
		}
	}
	return Placeholder
}

// grouped formats v with ja-JP digit grouping and up to three decimals.
func grouped(v float64) string {
	return jaPrinter.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}
