package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dancespec/internal/server"
	"github.com/matzehuels/dancespec/pkg/area"
	"github.com/matzehuels/dancespec/pkg/cache"
	"github.com/matzehuels/dancespec/pkg/pipeline"
)

// serverKeyPrefix scopes API cache entries so a shared Redis can also hold
// CLI entries.
const serverKeyPrefix = "api"

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		mongoURI string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export API over HTTP",
		Long: `Serve layouts, figures, position sheets and instruction documents over HTTP.

The artifact cache follows the [cache] section of the config file; a Redis
backend lets several instances share rendered documents. When a catalog is
configured, documents can be exported by project and schedule name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), firstNonEmpty(addr, c.Config.Server.Addr, defaultServerAddr), mongoURI, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: "+defaultServerAddr+")")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "schedule catalog connection string")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, mongoURI string, noCache bool) error {
	artifacts, err := cache.Open(ctx, c.Config.cacheConfig(noCache))
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), serverKeyPrefix)
	runner := pipeline.NewRunnerWithFetcher(artifacts, keyer, newFetcher(noCache), c.Logger)
	defer runner.Close()

	opts := server.Options{
		Company:  c.Config.Company,
		Header:   c.Config.Header,
		GradFrom: c.Config.GradFrom,
		GradTo:   c.Config.GradTo,
		Template: c.Config.Template,
		Logger:   c.Logger,
	}
	if uri := firstNonEmpty(mongoURI, c.Config.Mongo.URI); uri != "" {
		store, err := area.NewMongoStore(ctx, area.MongoConfig{
			URI:        uri,
			Database:   c.Config.Mongo.Database,
			Collection: c.Config.Mongo.Collection,
		})
		if err != nil {
			return err
		}
		defer store.Close(context.Background())
		opts.Store = store
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(runner, opts).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	c.Logger.Info("listening", "addr", addr, "catalog", opts.Store != nil)

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
