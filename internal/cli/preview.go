package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/dancespec/pkg/figure"
	"github.com/matzehuels/dancespec/pkg/formation"
	"github.com/matzehuels/dancespec/pkg/spacing"
)

// Grid preview limits, in drones.
const (
	previewMaxCols = 40
	previewMaxRows = 20
)

var (
	styleDrone   = lipgloss.NewStyle().Foreground(colorBrand)
	styleGridBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

const (
	glyphDrone = "●"
	glyphEmpty = "·"
	glyphMore  = "…"
)

// renderGrid draws the landing grid as seen from above, front row at the
// bottom. The partial last row sits at the top, centered for hexagonal
// layouts. Large grids are clipped with an ellipsis.
func renderGrid(m formation.Model) string {
	if !m.CanRender {
		msg := m.Message
		if msg == "" {
			msg = figure.Prompt
		}
		return styleGridBox.Render(StyleWarning.Render(msg))
	}

	cols := min(m.CountX, previewMaxCols)
	rows := min(m.ActualRows, previewMaxRows)

	lines := make([]string, 0, rows+1)
	for r := rows - 1; r >= 0; r-- {
		n := m.CountX
		if r == m.ActualRows-1 {
			n = m.LastRowCount
		}
		lines = append(lines, gridRow(n, cols, m.CountX, m.IsHexagon))
	}
	if m.ActualRows > rows {
		lines = append([]string{StyleDim.Render(glyphMore)}, lines...)
	}
	return styleGridBox.Render(strings.Join(lines, "\n"))
}

// gridRow renders n drones in a row of width slots, clipped to cols.
func gridRow(n, cols, width int, center bool) string {
	lead := 0
	if center && n < width {
		lead = (width - n) / 2
	}
	cells := make([]string, 0, cols+1)
	for i := 0; i < cols; i++ {
		if i >= lead && i < lead+n {
			cells = append(cells, styleDrone.Render(glyphDrone))
		} else {
			cells = append(cells, StyleDim.Render(glyphEmpty))
		}
	}
	if width > cols {
		cells = append(cells, StyleDim.Render(glyphMore))
	}
	return strings.Join(cells, " ")
}

// modelSummary lists the derived layout values as label/value pairs.
func modelSummary(m formation.Model) [][2]string {
	shape := "rectangle"
	if m.IsHexagon {
		shape = "hexagon"
	}
	return [][2]string{
		{"Drones", fmt.Sprintf("%d", droneTotal(m))},
		{"Grid", fmt.Sprintf("%d × %d", m.CountX, m.CountY)},
		{"Rows", fmt.Sprintf("%d (last %d)", m.ActualRows, m.LastRowCount)},
		{"Width", fmt.Sprintf("%sm", spacing.FormatMeters(m.WidthM))},
		{"Depth", fmt.Sprintf("%sm", spacing.FormatMeters(m.HeightM))},
		{"Shape", shape},
	}
}

// droneTotal is the explicit total, or the full rectangle without one.
func droneTotal(m formation.Model) int {
	if m.HasTotal {
		return m.Total
	}
	return m.FullRect
}
