package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dancespec/pkg/cache"
	"github.com/matzehuels/dancespec/pkg/httputil"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local artifact and asset cache",
	}

	cmd.AddCommand(c.cacheInfoCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show how many artifacts the local cache holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			artifacts, err := cache.NewFileCache(filepath.Join(dir, artifactsSubdir))
			if err != nil {
				return fmt.Errorf("open artifact cache: %w", err)
			}
			u, err := artifacts.Usage()
			if err != nil {
				return fmt.Errorf("read artifact cache: %w", err)
			}

			printKeyValue("Directory", dir)
			printKeyValue("Backend", firstNonEmpty(c.Config.Cache.Backend, cache.BackendFile))
			printKeyValue("Artifacts", fmt.Sprintf("%d (%s)", u.Entries, formatBytes(int(u.Bytes))))
			if u.Expired > 0 {
				printWarning("%d expired entries are removed on next access", u.Expired)
				printNextStep("Remove everything now", "dancespec cache clear")
			}
			return nil
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear cached documents, figures and fetched assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			artifacts, err := cache.NewFileCache(filepath.Join(dir, artifactsSubdir))
			if err != nil {
				return fmt.Errorf("open artifact cache: %w", err)
			}
			count, err := artifacts.Clear()
			if err != nil {
				return fmt.Errorf("clear artifacts: %w", err)
			}

			fetched, err := httputil.NewCache(filepath.Join(dir, assetsSubdir), assetTTL)
			if err != nil {
				return fmt.Errorf("open asset cache: %w", err)
			}
			assets, err := fetched.Clear()
			if err != nil {
				return fmt.Errorf("clear assets: %w", err)
			}

			printSuccess("Cleared %d cached entries", count+assets)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}
}
