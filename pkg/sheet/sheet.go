// Package sheet lists every drone of a landing formation with its offset
// from the bottom-left drone and writes the table as an Excel workbook.
//
// Drones are numbered row-major from the bottom-left corner, the same order
// the figure uses for its corner labels. Offsets follow the cumulative
// spacing sequences, so a partial last row keeps the column offsets of the
// full rows below it.
package sheet

import (
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/figure"
	"github.com/matzehuels/dancespec/pkg/formation"
	"github.com/matzehuels/dancespec/pkg/spacing"
)

// Sheet names of the workbook.
const (
	PositionsSheet = "Positions"
	SummarySheet   = "Summary"
)

// Position is one drone of the formation.
type Position struct {
	Number int     // 1-based
	Row    int     // 0 is the bottom row
	Column int     // 0 is the left column
	X      float64 // meters right of the bottom-left drone
	Y      float64 // meters above the bottom-left drone
}

// Positions returns every drone of a renderable model. A model that cannot
// be drawn has no positions; its Message (or a generic prompt) is returned
// as an INVALID_INPUT error.
func Positions(m formation.Model) ([]Position, error) {
	if !m.CanRender {
		msg := m.Message
		if msg == "" {
			msg = figure.Prompt
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s", msg)
	}

	count := m.FullRect
	if m.HasTotal {
		count = m.Total
	}
	if count > formation.MaxDrones {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%d drones exceed the sheet limit of %d", count, formation.MaxDrones)
	}
	fb := m.View.Fallback
	xs := spacing.Offsets(m.CountX, m.AlongRows, fb)
	ys := spacing.Offsets(m.ActualRows, m.AlongColumns, fb)

	out := make([]Position, 0, count)
	for i := range count {
		row, col := i/m.CountX, i%m.CountX
		out = append(out, Position{
			Number: i + 1,
			Row:    row,
			Column: col,
			X:      xs[col],
			Y:      ys[row],
		})
	}
	return out, nil
}

// Write renders the positions workbook for m to w.
func Write(w io.Writer, m formation.Model) error {
	positions, err := Positions(m)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PositionsSheet); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "rename sheet")
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E00022"}},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "create header style")
	}

	if err := f.SetSheetRow(PositionsSheet, "A1", &[]any{"No.", "Row", "Column", "X (m)", "Y (m)"}); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write header")
	}
	for i, p := range positions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(errors.ErrCodeExport, err, "cell for drone %d", p.Number)
		}
		row := []any{p.Number, p.Row + 1, p.Column + 1, round(p.X), round(p.Y)}
		if err := f.SetSheetRow(PositionsSheet, cell, &row); err != nil {
			return errors.Wrap(errors.ErrCodeExport, err, "write drone %d", p.Number)
		}
	}
	if err := f.SetCellStyle(PositionsSheet, "A1", "E1", header); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "style header")
	}
	if err := f.SetColWidth(PositionsSheet, "A", "E", 12); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "set column width")
	}
	if err := f.SetPanes(PositionsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "freeze header")
	}

	if err := writeSummary(f, m, header); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write workbook")
	}
	return nil
}

func writeSummary(f *excelize.File, m formation.Model, header int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "add summary sheet")
	}
	shape := "長方形"
	if m.IsHexagon {
		shape = "六角形"
	}
	count := m.FullRect
	if m.HasTotal {
		count = m.Total
	}
	rows := [][]any{
		{"項目", "値"},
		{"総機体数", count},
		{"x機体数", m.CountX},
		{"y機体数", m.CountY},
		{"行数", m.ActualRows},
		{"最終行の機体数", m.LastRowCount},
		{"幅 (m)", round(m.WidthM)},
		{"奥行 (m)", round(m.HeightM)},
		{"形状", shape},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &r); err != nil {
			return errors.Wrap(errors.ErrCodeExport, err, "write summary")
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", header); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "style summary")
	}
	return f.SetColWidth(SummarySheet, "A", "A", 18)
}

// round keeps centimeter precision so accumulated float error does not leak
// into the workbook.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
