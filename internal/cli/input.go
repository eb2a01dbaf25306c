package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dancespec/pkg/area"
	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/formation"
)

// areaInput selects where a command reads the area configuration from: a
// file argument, stdin ("-"), or the schedule catalog.
type areaInput struct {
	catalog  bool
	mongoURI string
	format   string
}

// addFlags registers the input flags on cmd.
func (in *areaInput) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&in.catalog, "catalog", false, "load the area from the schedule catalog (needs --project and --schedule)")
	cmd.Flags().StringVar(&in.mongoURI, "mongo-uri", "", "catalog connection URI (default: config mongo.uri)")
	cmd.Flags().StringVar(&in.format, "input-format", "", "format of stdin input: json (default), yaml, toml")
}

// load reads the configuration and rejects grids over formation.MaxDrones.
// project and schedule are only used for catalog lookups.
func (in *areaInput) load(ctx context.Context, c *CLI, args []string, project, schedule string) (*area.Config, error) {
	cfg, err := in.read(ctx, c, args, project, schedule)
	if err != nil {
		return nil, err
	}
	if err := formation.FromArea(cfg).CheckLimits(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (in *areaInput) read(ctx context.Context, c *CLI, args []string, project, schedule string) (*area.Config, error) {
	if in.catalog {
		return in.loadCatalog(ctx, c, project, schedule)
	}
	if len(args) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "an area file, \"-\" for stdin, or --catalog is required")
	}
	if args[0] == "-" {
		format := area.Format(in.format)
		if format == "" {
			format = area.FormatJSON
		}
		return area.Decode(os.Stdin, format)
	}
	return area.Load(args[0])
}

func (in *areaInput) loadCatalog(ctx context.Context, c *CLI, project, schedule string) (*area.Config, error) {
	if project == "" || schedule == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "--catalog needs --project and --schedule")
	}
	store, err := area.NewMongoStore(ctx, area.MongoConfig{
		URI:        firstNonEmpty(in.mongoURI, c.Config.Mongo.URI),
		Database:   c.Config.Mongo.Database,
		Collection: c.Config.Mongo.Collection,
	})
	if err != nil {
		return nil, err
	}
	defer store.Close(context.Background())

	cfg, err := store.Load(ctx, project, schedule)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", project, schedule, err)
	}
	loggerFromContext(ctx).Debug("loaded area from catalog", "project", project, "schedule", schedule)
	return cfg, nil
}
