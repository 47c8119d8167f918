// Package services implements the offering writer's use cases: DRAFT-only
// CRUD plus the publication lifecycle (DRAFT -> PUBLISHING -> PUBLISHED,
// with PUBLISHING -> DRAFT as the saga's compensation, and PUBLISHED ->
// RETIRED as a direct operation that needs no saga).
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/mmodel"
	"github.com/productcatalog/platform/pkg/outbox"
	"github.com/productcatalog/platform/pkg/saga/publication"
	"github.com/productcatalog/platform/pkg/writer"
)

// Repository is the relational storage boundary for offerings.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, o mmodel.Offering) error
	Update(ctx context.Context, tx pgx.Tx, o mmodel.Offering) error
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Offering, error)
	Get(ctx context.Context, id string) (mmodel.Offering, error)
	List(ctx context.Context) ([]mmodel.Offering, error)
}

// TxRunner abstracts pkg/writer.Runner.
type TxRunner interface {
	Transact(ctx context.Context, fn writer.MutateFunc) error
}

// SagaStarter abstracts pkg/saga/publication.Starter so the offering
// writer owns the one call that kicks off a publication saga instance.
type SagaStarter interface {
	Start(ctx context.Context, vars publication.Variables) (string, error)
}

const outboxTopic = "offering.events"

// UseCase implements the offering writer.
type UseCase struct {
	Repo Repository
	Tx   TxRunner
	Saga SagaStarter
}

// Create inserts a new DRAFT offering. Create, Update and Delete each write
// their outbox row with the EventOfferingPublishing event type; there is no
// separate created/updated/deleted offering event type, and the projector
// ignores EventOfferingPublishing.
func (u *UseCase) Create(ctx context.Context, name, description string, specRefs, priceRefs, channels []string) (mmodel.Offering, error) {
	o := mmodel.Offering{
		ID:                uuid.NewString(),
		Name:              name,
		Description:       description,
		SpecificationRefs: specRefs,
		PriceRefs:         priceRefs,
		SalesChannels:     channels,
		LifecycleStatus:   mmodel.LifecycleDraft,
		Version:           1,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}

	err := u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		if err := u.Repo.Create(ctx, tx, o); err != nil {
			return outbox.Record{}, err
		}

		return u.buildRecord(mmodel.EventOfferingPublishing, o)
	})

	return o, err
}

// Update mutates a DRAFT offering's fields. Only DRAFT permits mutation.
func (u *UseCase) Update(ctx context.Context, id, name, description string, specRefs, priceRefs, channels []string) (mmodel.Offering, error) {
	var updated mmodel.Offering

	err := u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "offering", ID: id}
		}

		if !current.CanUpdate() {
			return outbox.Record{}, apperrors.LifecycleError{EntityType: "offering", State: string(current.LifecycleStatus), Operation: "update"}
		}

		current.Name = name
		current.Description = description
		current.SpecificationRefs = specRefs
		current.PriceRefs = priceRefs
		current.SalesChannels = channels
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		updated = current

		return u.buildRecord(mmodel.EventOfferingPublishing, current)
	})

	return updated, err
}

// Delete removes a DRAFT offering.
func (u *UseCase) Delete(ctx context.Context, id string) error {
	return u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "offering", ID: id}
		}

		if !current.CanUpdate() {
			return outbox.Record{}, apperrors.LifecycleError{EntityType: "offering", State: string(current.LifecycleStatus), Operation: "delete"}
		}

		if err := u.Repo.Delete(ctx, tx, id); err != nil {
			return outbox.Record{}, err
		}

		current.Version++

		return u.buildRecord(mmodel.EventOfferingPublishing, current)
	})
}

// Get returns an offering by id.
func (u *UseCase) Get(ctx context.Context, id string) (mmodel.Offering, error) {
	o, err := u.Repo.Get(ctx, id)
	if err != nil {
		return mmodel.Offering{}, apperrors.NotFoundError{EntityType: "offering", ID: id}
	}

	return o, nil
}

// List returns all offerings.
func (u *UseCase) List(ctx context.Context) ([]mmodel.Offering, error) {
	return u.Repo.List(ctx)
}

// Publish moves a DRAFT offering to PUBLISHING and starts the
// publication saga. If the saga fails to start, the transition is
// reverted synchronously so the offering never sits in PUBLISHING
// without an in-flight saga behind it.
func (u *UseCase) Publish(ctx context.Context, id string) (mmodel.Offering, error) {
	var transitioned mmodel.Offering

	err := u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "offering", ID: id}
		}

		if !current.CanPublish() {
			return outbox.Record{}, apperrors.LifecycleError{
				EntityType: "offering",
				State:      string(current.LifecycleStatus),
				Operation:  "publish (requires DRAFT with at least one specification, price, and sales channel)",
			}
		}

		current.LifecycleStatus = mmodel.LifecyclePublishing
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		transitioned = current

		return u.buildRecord(mmodel.EventOfferingPublishing, current)
	})
	if err != nil {
		return mmodel.Offering{}, err
	}

	_, err = u.Saga.Start(ctx, publication.Variables{
		OfferingID:       transitioned.ID,
		PricingIDs:       transitioned.PriceRefs,
		SpecificationIDs: transitioned.SpecificationRefs,
	})
	if err != nil {
		if revertErr := u.RevertToDraft(ctx, id); revertErr != nil {
			return mmodel.Offering{}, fmt.Errorf("offering: failed to start publication saga (%w) and failed to revert to draft: %v", err, revertErr)
		}

		return mmodel.Offering{}, fmt.Errorf("offering: failed to start publication saga: %w", err)
	}

	return transitioned, nil
}

// ConfirmPublication moves a PUBLISHING offering to PUBLISHED. It is
// called by the confirm-publication saga step, never directly over HTTP.
func (u *UseCase) ConfirmPublication(ctx context.Context, id string) error {
	return u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "offering", ID: id}
		}

		if current.LifecycleStatus != mmodel.LifecyclePublishing {
			return outbox.Record{}, apperrors.LifecycleError{EntityType: "offering", State: string(current.LifecycleStatus), Operation: "confirm-publication"}
		}

		current.LifecycleStatus = mmodel.LifecyclePublished
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		return u.buildRecord(mmodel.EventOfferingPublished, current)
	})
}

// RevertToDraft moves a PUBLISHING offering back to DRAFT. It is called
// both by Publish on a failed saga start and by the
// revert-offering-to-draft saga compensation step.
func (u *UseCase) RevertToDraft(ctx context.Context, id string) error {
	return u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "offering", ID: id}
		}

		if current.LifecycleStatus != mmodel.LifecyclePublishing {
			return outbox.Record{}, apperrors.LifecycleError{EntityType: "offering", State: string(current.LifecycleStatus), Operation: "revert-to-draft"}
		}

		current.LifecycleStatus = mmodel.LifecycleDraft
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		return u.buildRecord(mmodel.EventOfferingRevertedToDraft, current)
	})
}

// Retire moves a PUBLISHED offering to RETIRED. No saga is involved: the
// read model removes the offering from the search index directly off
// this event.
func (u *UseCase) Retire(ctx context.Context, id string) error {
	return u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "offering", ID: id}
		}

		if current.LifecycleStatus != mmodel.LifecyclePublished {
			return outbox.Record{}, apperrors.LifecycleError{EntityType: "offering", State: string(current.LifecycleStatus), Operation: "retire"}
		}

		current.LifecycleStatus = mmodel.LifecycleRetired
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		return u.buildRecord(mmodel.EventOfferingRetired, current)
	})
}

func (u *UseCase) buildRecord(eventType string, o mmodel.Offering) (outbox.Record, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return outbox.Record{}, fmt.Errorf("offering: failed to encode payload: %w", err)
	}

	event := mmodel.DomainEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		SchemaVersion: 1,
		EntityID:      o.ID,
		EntityVersion: o.Version,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}

	return outbox.NewRecord(outboxTopic, event)
}
