// Package services implements the read-model projector: composing a
// denormalized offering document from the four writer services and
// keeping it current as the entities it references change, plus the
// plain read accessors the store's HTTP API exposes.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/productcatalog/platform/pkg/mlog"
	"github.com/productcatalog/platform/pkg/mmodel"
)

// Repository is the denormalized read-model storage boundary.
type Repository interface {
	Upsert(ctx context.Context, doc mmodel.DenormalizedOffering) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (mmodel.DenormalizedOffering, error)
	List(ctx context.Context) ([]mmodel.DenormalizedOffering, error)
	Search(ctx context.Context, query string) ([]mmodel.DenormalizedOffering, error)

	// FindAffected returns the ids of every offering whose composed
	// document references entityID through entityType ("characteristic",
	// "specification", or "price").
	FindAffected(ctx context.Context, entityType, entityID string) ([]string, error)
}

// Ledger is the ProcessedEventLedger: an idempotency guard so a
// redelivered event is never applied twice.
type Ledger interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// Composer performs the read-through composition of one offering's full
// denormalized document from the offering, specification, characteristic,
// and pricing services.
type Composer interface {
	Compose(ctx context.Context, offeringID string) (mmodel.DenormalizedOffering, error)
}

// UseCase implements the projector.
type UseCase struct {
	Repo     Repository
	Ledger   Ledger
	Composer Composer
	Logger   mlog.Logger
}

// HandleEvent applies one domain event to the read model, guarded by the
// processed-event ledger so redelivery is a no-op.
func (u *UseCase) HandleEvent(ctx context.Context, event mmodel.DomainEvent) error {
	processed, err := u.Ledger.IsProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("store: failed to check processed-event ledger: %w", err)
	}

	if processed {
		u.Logger.Debugf("store: event %s already processed, skipping", event.EventID)
		return nil
	}

	if err := u.apply(ctx, event); err != nil {
		return err
	}

	return u.Ledger.MarkProcessed(ctx, event.EventID)
}

func (u *UseCase) apply(ctx context.Context, event mmodel.DomainEvent) error {
	switch event.EventType {
	case mmodel.EventOfferingPublished:
		return u.Sync(ctx, event.EntityID)
	case mmodel.EventOfferingRetired:
		return u.Retire(ctx, event.EntityID)
	case mmodel.EventCharacteristicUpdated, mmodel.EventCharacteristicDeleted:
		return u.recompose(ctx, "characteristic", event.EntityID)
	case mmodel.EventSpecificationUpdated, mmodel.EventSpecificationDeleted:
		return u.recompose(ctx, "specification", event.EntityID)
	case mmodel.EventPriceUpdated, mmodel.EventPriceDeleted:
		return u.recompose(ctx, "price", event.EntityID)
	default:
		// EventCharacteristicCreated, EventSpecificationCreated,
		// EventPriceCreated, and the offering's intermediate lifecycle
		// events carry nothing a published read model needs to react to.
		return nil
	}
}

// Sync composes offeringID's full document and upserts it. It is called
// both off OfferingPublished and by the create-store-entry saga step, so
// it must be idempotent and safe to call outside the event stream.
func (u *UseCase) Sync(ctx context.Context, offeringID string) error {
	doc, err := u.Composer.Compose(ctx, offeringID)
	if err != nil {
		return fmt.Errorf("store: failed to compose offering %s: %w", offeringID, err)
	}

	return u.Repo.Upsert(ctx, doc)
}

// Retire removes offeringID from the read model.
func (u *UseCase) Retire(ctx context.Context, offeringID string) error {
	return u.Repo.Delete(ctx, offeringID)
}

// recompose finds every offering referencing entityID through entityType
// and resyncs each. A single offering's recomposition failure is logged
// and does not abort the others, but recompose still reports the failure
// to its caller: the event must not be marked processed, and must be
// redelivered, until every affected offering's document is current.
func (u *UseCase) recompose(ctx context.Context, entityType, entityID string) error {
	affected, err := u.Repo.FindAffected(ctx, entityType, entityID)
	if err != nil {
		return fmt.Errorf("store: failed to find offerings affected by %s %s: %w", entityType, entityID, err)
	}

	var errs []error

	for _, offeringID := range affected {
		if err := u.Sync(ctx, offeringID); err != nil {
			u.Logger.Errorf("store: failed to recompose offering %s after %s %s changed: %v", offeringID, entityType, entityID, err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Get returns the composed document for id.
func (u *UseCase) Get(ctx context.Context, id string) (mmodel.DenormalizedOffering, error) {
	return u.Repo.Get(ctx, id)
}

// List returns every published offering.
func (u *UseCase) List(ctx context.Context) ([]mmodel.DenormalizedOffering, error) {
	return u.Repo.List(ctx)
}

// Search runs a full-text query over the search index.
func (u *UseCase) Search(ctx context.Context, query string) ([]mmodel.DenormalizedOffering, error) {
	return u.Repo.Search(ctx, query)
}
