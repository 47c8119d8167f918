// Package services implements the specification writer's use cases. A
// specification's characteristic_refs are validated against a locally
// maintained cache rather than a synchronous call to the characteristic
// service, so the writer never depends on another writer's availability.
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
	"github.com/productcatalog/platform/pkg/writer"
)

// Repository is the relational storage boundary for specifications.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, s mmodel.Specification) error
	Update(ctx context.Context, tx pgx.Tx, s mmodel.Specification) error
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Specification, error)
	Get(ctx context.Context, id string) (mmodel.Specification, error)
	List(ctx context.Context) ([]mmodel.Specification, error)
}

// ValidationCache reports which characteristic ids are currently known to
// exist, as tracked from the characteristic writer's event stream.
type ValidationCache interface {
	MissingRefs(ctx context.Context, tx pgx.Tx, ids []string) ([]string, error)
}

// TxRunner abstracts pkg/writer.Runner.
type TxRunner interface {
	Transact(ctx context.Context, fn writer.MutateFunc) error
}

const outboxTopic = "specification.events"

// UseCase implements the specification writer.
type UseCase struct {
	Repo  Repository
	Cache ValidationCache
	Tx    TxRunner
}

// Create inserts a new specification after confirming every
// characteristic_ref currently exists.
func (u *UseCase) Create(ctx context.Context, name string, refs []string) (mmodel.Specification, error) {
	s := mmodel.Specification{
		ID:                 uuid.NewString(),
		Name:               name,
		CharacteristicRefs: refs,
		Version:            1,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}

	err := u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		if err := u.checkRefs(ctx, tx, refs); err != nil {
			return outbox.Record{}, err
		}

		if err := u.Repo.Create(ctx, tx, s); err != nil {
			return outbox.Record{}, err
		}

		return u.buildRecord(mmodel.EventSpecificationCreated, s)
	})

	return s, err
}

// Update mutates an existing specification, re-validating
// characteristic_refs and bumping the version.
func (u *UseCase) Update(ctx context.Context, id, name string, refs []string) (mmodel.Specification, error) {
	var updated mmodel.Specification

	err := u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "specification", ID: id}
		}

		if err := u.checkRefs(ctx, tx, refs); err != nil {
			return outbox.Record{}, err
		}

		current.Name = name
		current.CharacteristicRefs = refs
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		updated = current

		return u.buildRecord(mmodel.EventSpecificationUpdated, current)
	})

	return updated, err
}

// Delete removes a specification and emits SpecificationDeleted.
func (u *UseCase) Delete(ctx context.Context, id string) error {
	return u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "specification", ID: id}
		}

		if err := u.Repo.Delete(ctx, tx, id); err != nil {
			return outbox.Record{}, err
		}

		current.Version++

		return u.buildRecord(mmodel.EventSpecificationDeleted, current)
	})
}

// Get returns a specification by id.
func (u *UseCase) Get(ctx context.Context, id string) (mmodel.Specification, error) {
	s, err := u.Repo.Get(ctx, id)
	if err != nil {
		return mmodel.Specification{}, apperrors.NotFoundError{EntityType: "specification", ID: id}
	}

	return s, nil
}

// List returns all specifications.
func (u *UseCase) List(ctx context.Context) ([]mmodel.Specification, error) {
	return u.Repo.List(ctx)
}

func (u *UseCase) checkRefs(ctx context.Context, tx pgx.Tx, refs []string) error {
	if len(refs) == 0 {
		return apperrors.ValidationError{Field: "characteristic_refs", Reason: "must reference at least one characteristic"}
	}

	missing, err := u.Cache.MissingRefs(ctx, tx, refs)
	if err != nil {
		return err
	}

	if len(missing) > 0 {
		return apperrors.ValidationError{
			Field:  "characteristic_refs",
			Reason: fmt.Sprintf("unknown characteristic ids: %v", missing),
		}
	}

	return nil
}

func (u *UseCase) buildRecord(eventType string, s mmodel.Specification) (outbox.Record, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return outbox.Record{}, fmt.Errorf("specification: failed to encode payload: %w", err)
	}

	event := mmodel.DomainEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		SchemaVersion: 1,
		EntityID:      s.ID,
		EntityVersion: s.Version,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}

	return outbox.NewRecord(outboxTopic, event)
}
