package cli

import (
	"context"
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dancespec/internal/server"
	"github.com/matzehuels/dancespec/pkg/formation"
)

// layoutCommand creates the layout command for inspecting the landing grid.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		input       areaInput
		project     string
		schedule    string
		interactive bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "layout [area.json|-]",
		Short: "Show the landing grid derived from an area configuration",
		Long: `Show the landing grid derived from an area configuration.

The layout command reconciles the x/y drone counts with the total, reports
contradictions, and prints the resulting rows, extents and shape together
with a preview of the grid.

With --interactive the counts can be edited live in the terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := input.load(ctx, c, args, project, schedule)
			if err != nil {
				return err
			}
			if interactive {
				return c.runLayoutExplorer(ctx, NewLayoutExplorer(cfg))
			}
			m := formation.Build(formation.FromArea(cfg))
			if asJSON {
				return c.printLayoutJSON(m)
			}
			printLayout(m)
			return nil
		},
	}

	input.addFlags(cmd)
	cmd.Flags().StringVar(&project, "project", "", "project name (catalog lookups)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "schedule name (catalog lookups)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "edit the drone counts interactively")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the layout model as JSON")

	return cmd
}

// runLayoutExplorer runs the interactive explorer and prints the accepted
// layout.
func (c *CLI) runLayoutExplorer(ctx context.Context, explorer LayoutExplorer) error {
	final, err := tea.NewProgram(explorer, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("layout explorer: %w", err)
	}
	result, ok := final.(LayoutExplorer)
	if !ok || !result.Accepted {
		return nil
	}
	printLayout(result.Model)
	printNewline()
	dc := result.Area.DroneCount
	printNextStep("Counts", fmt.Sprintf("x_count=%s y_count=%s count=%s", dc.XCount, dc.YCount, dc.Count))
	return nil
}

// printLayout prints the model summary and the grid preview.
func printLayout(m formation.Model) {
	if m.CanRender {
		printSuccess("Layout")
		for _, kv := range modelSummary(m) {
			printKeyValue(kv[0], kv[1])
		}
	} else {
		printWarning("Layout cannot be drawn")
	}
	fmt.Fprintln(stdout, renderGrid(m))
}

func (c *CLI) printLayoutJSON(m formation.Model) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(server.NewLayoutResponse(m))
}
