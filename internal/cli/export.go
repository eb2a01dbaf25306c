package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dancespec/pkg/export"
	"github.com/matzehuels/dancespec/pkg/observability"
	"github.com/matzehuels/dancespec/pkg/pipeline"
)

// exportFlags holds the flags of the export command.
type exportFlags struct {
	input      areaInput
	screenshot string
	formats    string
	output     string
	preview    bool
	noCache    bool
}

// exportCommand creates the export command that builds the instruction sheet.
func (c *CLI) exportCommand() *cobra.Command {
	var flags exportFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "export [area.json|-]",
		Short: "Build the landing instruction sheet as PDF and PPTX",
		Long: `Build the two-page landing instruction sheet for one schedule.

The area configuration is read from a JSON, YAML or TOML file, from stdin
("-"), or from the schedule catalog with --catalog. Both documents are built
in memory and written only when every requested format succeeded.

With --preview the PDF is opened in the system viewer and removed after a
minute instead of being written to the output directory. The PPTX is saved
either way.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args, opts, flags)
		},
	}

	flags.input.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Project, "project", "", "project name")
	cmd.Flags().StringVar(&opts.Schedule, "schedule", "", "schedule name")
	cmd.Flags().StringVar(&opts.Heading, "heading", "", "combined \"project　schedule\" heading used to fill missing names")
	cmd.Flags().StringVar(&opts.Company, "company", "", "company name on the cover (default: config or 株式会社レッドクリフ)")
	cmd.Flags().StringVar(&opts.Header, "header", "", "detail page header (default: config or 離発着情報)")
	cmd.Flags().StringVar(&opts.GradFrom, "grad-from", "", "title gradient start color")
	cmd.Flags().StringVar(&opts.GradTo, "grad-to", "", "title gradient end color")
	cmd.Flags().StringVar(&opts.Template, "template", "", "template file or URL (default: embedded)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "rebuild even if cached artifacts exist")
	cmd.Flags().StringVar(&flags.screenshot, "screenshot", "", "map screenshot image (PNG or JPEG)")
	cmd.Flags().StringVarP(&flags.formats, "formats", "f", "", "comma-separated formats: pdf, pptx, xlsx (default: pdf,pptx)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory (default: config or current directory)")
	cmd.Flags().BoolVar(&flags.preview, "preview", false, "open the PDF in the system viewer instead of saving it")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")

	return cmd
}

// runExport loads the area, runs the pipeline, and delivers the artifacts.
func (c *CLI) runExport(ctx context.Context, args []string, opts pipeline.Options, flags exportFlags) error {
	cfg, err := flags.input.load(ctx, c, args, opts.Project, opts.Schedule)
	if err != nil {
		return err
	}
	opts.Area = cfg
	opts.Formats = parseFormats(flags.formats)
	opts.Logger = c.Logger
	c.applyConfig(&opts)

	if flags.screenshot != "" {
		data, err := os.ReadFile(flags.screenshot)
		if err != nil {
			return fmt.Errorf("read screenshot: %w", err)
		}
		opts.Screenshot = data
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spin := newSpinner(ctx, os.Stderr, "Building instruction sheet...")
	observability.SetPipelineHooks(stageHooks{spin: spin})
	defer observability.SetPipelineHooks(observability.NoopPipelineHooks{})
	spin.start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spin.fail("Export failed")
		return err
	}
	spin.stop()
	prog.mark("pipeline")

	if spin.cancelled() {
		return ctx.Err()
	}

	var artifacts []export.Artifact
	for _, format := range result.Formats {
		artifacts = append(artifacts, export.Artifact{
			Name: result.Filename(format),
			Data: result.Artifacts[format],
		})
	}

	delivery := export.Delivery{
		Preview: flags.preview,
		Dir:     firstNonEmpty(flags.output, c.Config.Output, "."),
		Logger:  c.Logger,
	}
	paths, err := delivery.Deliver(artifacts...)
	if err != nil {
		return err
	}

	prog.mark("deliver")
	prog.done("Export complete")
	for _, p := range paths {
		printFile(p)
	}
	printExportStats(result)
	var previews []string
	for i, a := range artifacts {
		if flags.preview && export.Previewable(a.Name) {
			previews = append(previews, paths[i])
		}
	}
	if len(previews) > 0 {
		printDetail("The preview is removed after %s (Ctrl+C to remove now)", export.PreviewTTL)
		waitPreview(ctx, previews)
	}
	return nil
}

// waitPreview keeps the process alive while the viewer reads the preview
// paths, and removes them early on interrupt.
func waitPreview(ctx context.Context, paths []string) {
	select {
	case <-time.After(export.PreviewTTL + time.Second):
	case <-ctx.Done():
		for _, p := range paths {
			_ = os.Remove(p)
		}
	}
}
