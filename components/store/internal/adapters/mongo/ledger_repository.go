package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	platmongo "github.com/productcatalog/platform/pkg/mongo"
)

// ProcessedEventsCollection records every event_id the projector has
// already applied, the Go equivalent of the original system's
// mongodb.events idempotency collection.
const ProcessedEventsCollection = "processed_events"

// LedgerRepository implements services.Ledger against Mongo.
type LedgerRepository struct {
	db *platmongo.Connection
}

// NewLedgerRepository builds a LedgerRepository bound to db.
func NewLedgerRepository(db *platmongo.Connection) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) collection() *mongodriver.Collection {
	return r.db.Database.Collection(ProcessedEventsCollection)
}

// IsProcessed reports whether eventID has already been recorded.
func (r *LedgerRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	err := r.collection().FindOne(ctx, bson.M{"_id": eventID}).Err()
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("mongo: failed to check processed event %s: %w", eventID, err)
	}

	return true, nil
}

// MarkProcessed records eventID as applied. A duplicate insert (the same
// event redelivered concurrently) is not an error.
func (r *LedgerRepository) MarkProcessed(ctx context.Context, eventID string) error {
	_, err := r.collection().InsertOne(ctx, bson.M{"_id": eventID, "processed_at": time.Now().UTC()})
	if mongodriver.IsDuplicateKeyError(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("mongo: failed to mark event %s processed: %w", eventID, err)
	}

	return nil
}
