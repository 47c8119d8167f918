// Package mongo wraps the official mongo-driver client, providing the
// connection and the two collections the projector owns: the
// authoritative published_offerings document and the offerings_search
// full-text index.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appcfg "github.com/productcatalog/platform/pkg/config"
)

// Connection owns the mongo client and the database handle.
type Connection struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect dials uri, pings, and selects cfg.Database.
func Connect(ctx context.Context, cfg appcfg.Mongo) (*Connection, error) {
	opts := options.Client().ApplyURI(cfg.URI).SetMaxPoolSize(cfg.MaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo: ping failed: %w", err)
	}

	return &Connection{Client: client, Database: client.Database(cfg.Database)}, nil
}

const (
	// PublishedOfferingsCollection is the authoritative denormalized
	// document store, keyed by offering id.
	PublishedOfferingsCollection = "published_offerings"

	// SearchCollection mirrors PublishedOfferingsCollection with a $text
	// index, standing in for a dedicated search engine.
	SearchCollection = "offerings_search"
)

// EnsureIndexes creates the $text index on SearchCollection and the
// dependency-lookup indexes on PublishedOfferingsCollection that the
// projector's fan-out recomposition queries rely on. It is idempotent.
func (c *Connection) EnsureIndexes(ctx context.Context) error {
	search := c.Database.Collection(SearchCollection)

	_, err := search.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "name", Value: "text"},
			{Key: "description", Value: "text"},
		},
	})
	if err != nil {
		return fmt.Errorf("mongo: failed to create text index: %w", err)
	}

	published := c.Database.Collection(PublishedOfferingsCollection)

	_, err = published.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "specs.id", Value: 1}}},
		{Keys: bson.D{{Key: "pricing.id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: failed to create reference indexes: %w", err)
	}

	return nil
}

// Close disconnects the client.
func (c *Connection) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}
