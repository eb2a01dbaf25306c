package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/pipeline"
)

// figureCommand creates the figure command that renders the layout figure.
func (c *CLI) figureCommand() *cobra.Command {
	var (
		input    areaInput
		project  string
		schedule string
		output   string
		noCache  bool
	)
	opts := pipeline.FigureOptions{}

	cmd := &cobra.Command{
		Use:   "figure [area.json|-]",
		Short: "Render the landing layout figure as SVG or PNG",
		Long: `Render the landing layout figure on its own.

The export theme draws black labels for the white instruction sheet; the ui
theme draws white labels for dark backgrounds. Without --output the figure
is written to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := input.load(ctx, c, args, project, schedule)
			if err != nil {
				return err
			}
			opts.Area = cfg

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			data, m, err := runner.Figure(ctx, opts)
			if err != nil {
				return err
			}
			if !m.CanRender {
				c.Logger.Warn("layout cannot be drawn; the figure shows a prompt", "reason", m.Reason)
			}

			if output == "" {
				_, err := c.Out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeExport, err, "write %s", output)
			}
			printSuccess("Figure rendered")
			printFile(output)
			return nil
		},
	}

	input.addFlags(cmd)
	cmd.Flags().StringVar(&project, "project", "", "project name (catalog lookups)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "schedule name (catalog lookups)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", pipeline.FormatSVG, "output format: svg, png")
	cmd.Flags().StringVarP(&opts.Theme, "theme", "t", "export", "color theme: export, ui")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultFigureScale, "PNG pixel density")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
