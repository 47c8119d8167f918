// Package services implements the characteristic writer's use cases:
// create, update, and delete, each going through the domain writer shell
// so every mutation is paired with exactly one outbox record.
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

// Repository is the relational storage boundary for characteristics.
// Create/Update/Delete run against the transaction TxRunner opens;
// Get/List run against the pool directly for plain reads.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, c mmodel.Characteristic) error
	Update(ctx context.Context, tx pgx.Tx, c mmodel.Characteristic) error
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Characteristic, error)
	Get(ctx context.Context, id string) (mmodel.Characteristic, error)
	List(ctx context.Context) ([]mmodel.Characteristic, error)
}

// TxRunner abstracts pkg/writer.Runner so this package depends on a small
// interface rather than *pgxpool.Pool directly.
type TxRunner interface {
	Transact(ctx context.Context, fn writer.MutateFunc) error
}

const outboxTopic = "characteristic.events"

// UseCase implements the characteristic writer.
type UseCase struct {
	Repo Repository
	Tx   TxRunner
}

// Create inserts a new characteristic and its CharacteristicCreated event.
func (u *UseCase) Create(ctx context.Context, name, value, unit string) (mmodel.Characteristic, error) {
	c := mmodel.Characteristic{
		ID:        uuid.NewString(),
		Name:      name,
		Value:     value,
		Unit:      unit,
		Version:   1,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	err := u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		if err := u.Repo.Create(ctx, tx, c); err != nil {
			return outbox.Record{}, err
		}

		return u.buildRecord(mmodel.EventCharacteristicCreated, c)
	})

	return c, err
}

// Update mutates an existing characteristic, bumping its version, and
// emits CharacteristicUpdated.
func (u *UseCase) Update(ctx context.Context, id, name, value, unit string) (mmodel.Characteristic, error) {
	var updated mmodel.Characteristic

	err := u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "characteristic", ID: id}
		}

		current.Name = name
		current.Value = value
		current.Unit = unit
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		updated = current

		return u.buildRecord(mmodel.EventCharacteristicUpdated, current)
	})

	return updated, err
}

// Delete removes a characteristic and emits CharacteristicDeleted.
func (u *UseCase) Delete(ctx context.Context, id string) error {
	return u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "characteristic", ID: id}
		}

		if err := u.Repo.Delete(ctx, tx, id); err != nil {
			return outbox.Record{}, err
		}

		current.Version++

		return u.buildRecord(mmodel.EventCharacteristicDeleted, current)
	})
}

// Get returns a characteristic by id.
func (u *UseCase) Get(ctx context.Context, id string) (mmodel.Characteristic, error) {
	c, err := u.Repo.Get(ctx, id)
	if err != nil {
		return mmodel.Characteristic{}, apperrors.NotFoundError{EntityType: "characteristic", ID: id}
	}

	return c, nil
}

// List returns all characteristics.
func (u *UseCase) List(ctx context.Context) ([]mmodel.Characteristic, error) {
	return u.Repo.List(ctx)
}

func (u *UseCase) buildRecord(eventType string, c mmodel.Characteristic) (outbox.Record, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return outbox.Record{}, fmt.Errorf("characteristic: failed to encode payload: %w", err)
	}

	event := mmodel.DomainEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		SchemaVersion: 1,
		EntityID:      c.ID,
		EntityVersion: c.Version,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}

	return outbox.NewRecord(outboxTopic, event)
}
