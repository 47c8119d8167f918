// Package mongo implements the store component's read-model repository
// and processed-event ledger against the two Mongo collections owned by
// the projector: the authoritative document store and its full-text
// search mirror.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/mmodel"
	platmongo "github.com/productcatalog/platform/pkg/mongo"
)

// OfferingRepository implements services.Repository against Mongo.
type OfferingRepository struct {
	db *platmongo.Connection
}

// NewOfferingRepository builds an OfferingRepository bound to db.
func NewOfferingRepository(db *platmongo.Connection) *OfferingRepository {
	return &OfferingRepository{db: db}
}

func (r *OfferingRepository) published() *mongodriver.Collection {
	return r.db.Database.Collection(platmongo.PublishedOfferingsCollection)
}

func (r *OfferingRepository) search() *mongodriver.Collection {
	return r.db.Database.Collection(platmongo.SearchCollection)
}

// Upsert replaces doc in both the authoritative collection and the search
// mirror, keyed by its id.
func (r *OfferingRepository) Upsert(ctx context.Context, doc mmodel.DenormalizedOffering) error {
	filter := bson.M{"_id": doc.ID}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.published().ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("mongo: failed to upsert offering %s: %w", doc.ID, err)
	}

	if _, err := r.search().ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("mongo: failed to upsert search entry %s: %w", doc.ID, err)
	}

	return nil
}

// Delete removes id from both collections.
func (r *OfferingRepository) Delete(ctx context.Context, id string) error {
	filter := bson.M{"_id": id}

	if _, err := r.published().DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("mongo: failed to delete offering %s: %w", id, err)
	}

	if _, err := r.search().DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("mongo: failed to delete search entry %s: %w", id, err)
	}

	return nil
}

// Get returns the authoritative document for id.
func (r *OfferingRepository) Get(ctx context.Context, id string) (mmodel.DenormalizedOffering, error) {
	var doc mmodel.DenormalizedOffering

	err := r.published().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return mmodel.DenormalizedOffering{}, apperrors.NotFoundError{EntityType: "offering", ID: id}
	}

	if err != nil {
		return mmodel.DenormalizedOffering{}, fmt.Errorf("mongo: failed to get offering %s: %w", id, err)
	}

	return doc, nil
}

// List returns every published offering.
func (r *OfferingRepository) List(ctx context.Context) ([]mmodel.DenormalizedOffering, error) {
	cur, err := r.published().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to list offerings: %w", err)
	}
	defer cur.Close(ctx)

	var result []mmodel.DenormalizedOffering
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("mongo: failed to decode offerings: %w", err)
	}

	return result, nil
}

// Search runs a $text query against the search mirror.
func (r *OfferingRepository) Search(ctx context.Context, query string) ([]mmodel.DenormalizedOffering, error) {
	cur, err := r.search().Find(ctx, bson.M{"$text": bson.M{"$search": query}})
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to search offerings: %w", err)
	}
	defer cur.Close(ctx)

	var result []mmodel.DenormalizedOffering
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("mongo: failed to decode search results: %w", err)
	}

	return result, nil
}

// FindAffected matches the array-path exactly as the system's original
// "find offerings affected by an entity change" query: specs.id,
// specs.characteristics.id, pricing.id.
func (r *OfferingRepository) FindAffected(ctx context.Context, entityType, entityID string) ([]string, error) {
	var path string

	switch entityType {
	case "characteristic":
		path = "specs.characteristics.id"
	case "specification":
		path = "specs.id"
	case "price":
		path = "pricing.id"
	default:
		return nil, nil
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cur, err := r.published().Find(ctx, bson.M{path: entityID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to find offerings affected by %s %s: %w", entityType, entityID, err)
	}
	defer cur.Close(ctx)

	var ids []string

	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}

		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("mongo: failed to decode affected offering id: %w", err)
		}

		ids = append(ids, row.ID)
	}

	return ids, cur.Err()
}
