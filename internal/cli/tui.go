package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/dancespec/pkg/area"
	"github.com/matzehuels/dancespec/pkg/formation"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// LayoutExplorer - Interactive drone count editing
// =============================================================================

// countField is one editable drone count.
type countField struct {
	label string
	get   func(*area.DroneCount) *area.Number
}

var countFields = []countField{
	{"x機体数", func(d *area.DroneCount) *area.Number { return &d.XCount }},
	{"y機体数", func(d *area.DroneCount) *area.Number { return &d.YCount }},
	{"総機体数", func(d *area.DroneCount) *area.Number { return &d.Count }},
}

// LayoutExplorer is the bubbletea model for exploring drone counts. It edits
// a private copy of the area and rebuilds the layout on every change.
type LayoutExplorer struct {
	Area     area.Config
	Model    formation.Model
	Cursor   int
	Accepted bool
}

// NewLayoutExplorer creates an explorer starting from cfg.
func NewLayoutExplorer(cfg *area.Config) LayoutExplorer {
	m := LayoutExplorer{Area: *cfg}
	m.rebuild()
	return m
}

func (m *LayoutExplorer) rebuild() {
	m.Model = formation.Build(formation.FromArea(&m.Area))
}

// adjust changes the selected count by delta. Counts below one are unset.
func (m *LayoutExplorer) adjust(delta int) {
	n := countFields[m.Cursor].get(&m.Area.DroneCount)
	v := 0
	if n.Valid() {
		v = int(n.Float())
	}
	v += delta
	if v < 1 {
		*n = area.Number{}
	} else {
		*n = area.NewNumber(float64(v))
	}
	m.rebuild()
}

func (m LayoutExplorer) Init() tea.Cmd {
	return nil
}

func (m LayoutExplorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		m.Accepted = true
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(countFields)-1 {
			m.Cursor++
		}
	case "left", "h", "-":
		m.adjust(-1)
	case "right", "l", "+":
		m.adjust(1)
	case "pgdown":
		m.adjust(-10)
	case "pgup":
		m.adjust(10)
	case "x", "backspace":
		*countFields[m.Cursor].get(&m.Area.DroneCount) = area.Number{}
		m.rebuild()
	}
	return m, nil
}

func (m LayoutExplorer) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Landing Layout"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ field  ←/→ ±1  pgup/pgdn ±10  x clear  ⏎ accept  q quit"))
	b.WriteString("\n\n")

	for i, f := range countFields {
		cursor := "  "
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		v := countFields[i].get(&m.Area.DroneCount).String()
		if v == "" {
			v = "—"
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%-8s %s", cursor, f.label, v)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.Model.CanRender {
		b.WriteString(summaryTable(m.Model))
		b.WriteString("\n")
	}
	b.WriteString(renderGrid(m.Model))
	b.WriteString("\n")

	return b.String()
}

// summaryTable renders the model summary in the rounded table style.
func summaryTable(m formation.Model) string {
	var rows [][]string
	for _, kv := range modelSummary(m) {
		rows = append(rows, []string{kv[0], kv[1]})
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Layout", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	return t.Render()
}
