// Package cli implements the dancespec command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dancespec/pkg/buildinfo"
	"github.com/matzehuels/dancespec/pkg/cache"
	"github.com/matzehuels/dancespec/pkg/httputil"
	"github.com/matzehuels/dancespec/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "dancespec"

	// Subdirectories of the cache directory.
	artifactsSubdir = "artifacts"
	assetsSubdir    = "assets"

	// assetTTL bounds how long fetched templates and images are reused.
	assetTTL = 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	// Out receives command output. Defaults to stdout.
	Out io.Writer

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Dancespec builds drone-show landing instruction sheets",
		Long:         `Dancespec turns a flight-area configuration into the two-page landing instruction sheet (PDF and PPTX), the layout figure, and a drone position table.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.config/dancespec/config.toml)")

	// Register all subcommands
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.figureCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.sheetCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	for _, cmd := range root.Commands() {
		registerCompletions(cmd)
	}
	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	artifacts, err := cache.Open(ctx, c.Config.cacheConfig(noCache))
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunnerWithFetcher(artifacts, nil, newFetcher(noCache), c.Logger), nil
}

// newFetcher returns a fetcher backed by the asset cache. Caching is skipped
// when disabled or when the directory is unusable.
func newFetcher(noCache bool) *httputil.Fetcher {
	if noCache {
		return httputil.NewFetcher(nil)
	}
	dir, err := cacheDir()
	if err != nil {
		return httputil.NewFetcher(nil)
	}
	assets, err := httputil.NewCache(filepath.Join(dir, assetsSubdir), assetTTL)
	if err != nil {
		return httputil.NewFetcher(nil)
	}
	return httputil.NewFetcher(assets)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/dancespec/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// applyConfig fills options the user left empty from the config file.
func (c *CLI) applyConfig(opts *pipeline.Options) {
	opts.Company = firstNonEmpty(opts.Company, c.Config.Company)
	opts.Header = firstNonEmpty(opts.Header, c.Config.Header)
	opts.GradFrom = firstNonEmpty(opts.GradFrom, c.Config.GradFrom)
	opts.GradTo = firstNonEmpty(opts.GradTo, c.Config.GradTo)
	opts.Template = firstNonEmpty(opts.Template, c.Config.Template)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
