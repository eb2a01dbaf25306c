package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m LayoutExplorer, keys ...string) (LayoutExplorer, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "pgup":
			msg = tea.KeyMsg{Type: tea.KeyPgUp}
		case "pgdown":
			msg = tea.KeyMsg{Type: tea.KeyPgDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(LayoutExplorer)
	}
	return m, cmd
}

func TestLayoutExplorerAdjust(t *testing.T) {
	cfg, _ := buildModel(t, sampleArea)
	m := NewLayoutExplorer(cfg)
	if !m.Model.CanRender {
		t.Fatalf("initial model should render, reason %q", m.Model.Reason)
	}

	tests := []struct {
		name   string
		keys   []string
		cursor int
		x, y   string
		total  string
	}{
		{"increment x", []string{"right"}, 0, "5", "3", "10"},
		{"decrement x", []string{"left", "-"}, 0, "2", "3", "10"},
		{"move and bump y", []string{"down", "pgup"}, 1, "4", "13", "10"},
		{"cursor stops at top", []string{"up", "up"}, 0, "4", "3", "10"},
		{"clear total", []string{"down", "down", "x"}, 2, "4", "3", ""},
		{"below one unsets", []string{"down", "down", "pgdown"}, 2, "4", "3", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := press(m, tt.keys...)
			dc := got.Area.DroneCount
			if got.Cursor != tt.cursor {
				t.Errorf("Cursor = %d, want %d", got.Cursor, tt.cursor)
			}
			if dc.XCount.String() != tt.x || dc.YCount.String() != tt.y || dc.Count.String() != tt.total {
				t.Errorf("counts = %q/%q/%q, want %q/%q/%q",
					dc.XCount, dc.YCount, dc.Count, tt.x, tt.y, tt.total)
			}
		})
	}

	// The explorer edits a copy.
	if cfg.DroneCount.XCount.String() != "4" {
		t.Errorf("source XCount = %q, want 4", cfg.DroneCount.XCount)
	}
}

func TestLayoutExplorerRebuilds(t *testing.T) {
	cfg, _ := buildModel(t, sampleArea)
	m, _ := press(NewLayoutExplorer(cfg), "down", "down", "x")
	if m.Model.HasTotal {
		t.Error("clearing the total should rebuild without one")
	}
	if m.Model.ActualRows != 3 || m.Model.LastRowCount != 4 {
		t.Errorf("rows = %d, last = %d, want 3, 4", m.Model.ActualRows, m.Model.LastRowCount)
	}
}

func TestLayoutExplorerQuit(t *testing.T) {
	cfg, _ := buildModel(t, sampleArea)

	m, cmd := press(NewLayoutExplorer(cfg), "enter")
	if !m.Accepted {
		t.Error("enter should accept")
	}
	if cmd == nil {
		t.Error("enter should quit")
	}

	m, cmd = press(NewLayoutExplorer(cfg), "q")
	if m.Accepted {
		t.Error("q should not accept")
	}
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestLayoutExplorerView(t *testing.T) {
	cfg, _ := buildModel(t, sampleArea)
	view := NewLayoutExplorer(cfg).View()
	for _, want := range []string{"Landing Layout", "x機体数", "総機体数", glyphDrone} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
