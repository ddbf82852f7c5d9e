package sink

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ppiankov/claimharvest/internal/model"
)

const mongoTimeout = 10 * time.Second

// document is the stored form of a claim
type document struct {
	model.Claim `bson:",inline"`
	RunID       string    `bson:"run_id"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

// MongoSink upserts claims keyed by review URL and claim text, so re-runs
// replace earlier rows instead of duplicating them
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
	runID  string
	log    *zap.Logger
}

// NewMongoSink connects, pings and ensures the unique key index
func NewMongoSink(ctx context.Context, uri, database, collection, runID string, log *zap.Logger) (*MongoSink, error) {
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}, {Key: "claim", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}

	log.Info("Connected to MongoDB", zap.String("database", database), zap.String("collection", collection))
	return &MongoSink{client: client, coll: coll, runID: runID, log: log}, nil
}

// Write upserts one claim
func (s *MongoSink) Write(ctx context.Context, claim model.Claim) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	filter := bson.D{{Key: "url", Value: claim.URL}, {Key: "claim", Value: claim.Claim}}
	doc := document{Claim: claim, RunID: s.runID, UpdatedAt: time.Now().UTC()}

	if _, err := s.coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert claim %s: %w", claim.URL, err)
	}
	return nil
}

// Close disconnects the client
func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect from MongoDB: %w", err)
	}
	return nil
}
