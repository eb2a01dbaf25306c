package area

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/dancespec/pkg/errors"
)

// Store looks up the area configuration of a project schedule.
type Store interface {
	Load(ctx context.Context, project, schedule string) (*Config, error)
	Close(ctx context.Context) error
}

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Default catalog location.
const (
	DefaultMongoDatabase   = "rdhub"
	DefaultMongoCollection = "schedules"
	defaultMongoTimeout    = 10 * time.Second
)

// MongoStore reads schedule documents from the project catalog. Documents
// are matched on their "project" and "schedule" fields; the area sits under
// the "area" key or at the top level.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoStore connects to the catalog and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultMongoTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to catalog")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping catalog")
	}

	return &MongoStore{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		timeout: cfg.Timeout,
	}, nil
}

// Load fetches the schedule document and decodes its area configuration.
func (s *MongoStore) Load(ctx context.Context, project, schedule string) (*Config, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc bson.M
	err := s.coll.FindOne(ctx, scheduleFilter(project, schedule)).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "schedule %s/%s not found", project, schedule)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "load schedule %s/%s", project, schedule)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "load schedule %s/%s", project, schedule)
	}
	return fromDocument(doc)
}

// Close disconnects from the catalog.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func scheduleFilter(project, schedule string) bson.D {
	return bson.D{{Key: "project", Value: project}, {Key: "schedule", Value: schedule}}
}

// fromDocument converts a catalog document through relaxed extended JSON so
// that the lenient JSON decoders of Config apply.
func fromDocument(doc bson.M) (*Config, error) {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "convert catalog document")
	}
	return decodeJSON(data)
}

var _ Store = (*MongoStore)(nil)
