package cli

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dancespec/pkg/export"
	"github.com/matzehuels/dancespec/pkg/formation"
	"github.com/matzehuels/dancespec/pkg/sheet"
	"github.com/matzehuels/dancespec/pkg/texts"
)

// sheetCommand creates the sheet command that writes the drone position table.
func (c *CLI) sheetCommand() *cobra.Command {
	var (
		input    areaInput
		project  string
		schedule string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "sheet [area.json|-]",
		Short: "Write the drone position table as XLSX",
		Long: `Write every drone's landing position as an XLSX workbook.

Drones are numbered row by row from the bottom-left corner. Offsets are in
meters from that corner and follow the same spacing sequences as the layout
figure. A second sheet summarizes the grid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := input.load(ctx, c, args, project, schedule)
			if err != nil {
				return err
			}
			m := formation.Build(formation.FromArea(cfg))

			var buf bytes.Buffer
			if err := sheet.Write(&buf, m); err != nil {
				return err
			}

			if output == "" {
				p, s := texts.ResolveProjectSchedule(project, schedule, "")
				output = export.FileBaseName(p, s) + ".xlsx"
			}
			dir, name := filepath.Split(output)
			if dir == "" {
				dir = firstNonEmpty(c.Config.Output, ".")
			}
			paths, err := export.Delivery{Dir: dir, Logger: c.Logger}.Deliver(export.Artifact{Name: name, Data: buf.Bytes()})
			if err != nil {
				return err
			}

			printSuccess("Position sheet written")
			printFile(paths[0])
			printStatsLine([]string{
				fmt.Sprintf("%d drones", droneTotal(m)),
				formatBytes(buf.Len()),
			})
			return nil
		},
	}

	input.addFlags(cmd)
	cmd.Flags().StringVar(&project, "project", "", "project name")
	cmd.Flags().StringVar(&schedule, "schedule", "", "schedule name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <project>_<schedule>_ダンスファイル指示書.xlsx)")

	return cmd
}
