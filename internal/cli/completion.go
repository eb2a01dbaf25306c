package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/dancespec/pkg/area"
	"github.com/matzehuels/dancespec/pkg/pipeline"
)

// completionCommand prints shell completion scripts to c.Out.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for dancespec.

  $ source <(dancespec completion bash)
  $ dancespec completion zsh > "${fpath[1]}/_dancespec"
  $ dancespec completion fish > ~/.config/fish/completions/dancespec.fish
  PS> dancespec completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(c.Out, true)
			case "zsh":
				return root.GenZshCompletion(c.Out)
			case "fish":
				return root.GenFishCompletion(c.Out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(c.Out)
			}
		},
	}
}

// completeValues offers a fixed set of flag values.
func completeValues(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// registerCompletions attaches value completion to the flags every command
// shares.
func registerCompletions(cmd *cobra.Command) {
	complete := func(flag string, values ...string) {
		if cmd.Flags().Lookup(flag) != nil {
			_ = cmd.RegisterFlagCompletionFunc(flag, completeValues(values...))
		}
	}
	complete("input-format", string(area.FormatJSON), string(area.FormatYAML), string(area.FormatTOML))
	complete("formats", pipeline.FormatPDF, pipeline.FormatPPTX, pipeline.FormatXLSX)
	complete("format", pipeline.FormatSVG, pipeline.FormatPNG)
	complete("theme", "export", "ui")
}
