// Package services implements the pricing writer's use cases: ordinary
// CRUD plus the exclusive lock/unlock pair the publication saga uses to
// prevent a second publication from racing over the same price while one
// is already in flight.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/mlog"
	"github.com/productcatalog/platform/pkg/mmodel"
	"github.com/productcatalog/platform/pkg/outbox"
	"github.com/productcatalog/platform/pkg/writer"
)

// Repository is the relational storage boundary for prices.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, p mmodel.Price) error
	Update(ctx context.Context, tx pgx.Tx, p mmodel.Price) error
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Price, error)
	Get(ctx context.Context, id string) (mmodel.Price, error)
	List(ctx context.Context) ([]mmodel.Price, error)
}

// TxRunner abstracts pkg/writer.Runner.
type TxRunner interface {
	Transact(ctx context.Context, fn writer.MutateFunc) error
}

const outboxTopic = "pricing.events"

// UseCase implements the pricing writer.
type UseCase struct {
	Repo   Repository
	Tx     TxRunner
	Logger mlog.Logger
}

// Create inserts a new price and emits PriceCreated.
func (u *UseCase) Create(ctx context.Context, name string, value decimal.Decimal, unit, currency string) (mmodel.Price, error) {
	p := mmodel.Price{
		ID:        uuid.NewString(),
		Name:      name,
		Value:     value,
		Unit:      unit,
		Currency:  currency,
		Version:   1,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	err := u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		if err := u.Repo.Create(ctx, tx, p); err != nil {
			return outbox.Record{}, err
		}

		return u.buildRecord(mmodel.EventPriceCreated, p)
	})

	return p, err
}

// Update mutates a price's name/value/unit/currency. Locked prices
// cannot be changed while a publication saga holds them.
func (u *UseCase) Update(ctx context.Context, id, name string, value decimal.Decimal, unit, currency string) (mmodel.Price, error) {
	var updated mmodel.Price

	err := u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "price", ID: id}
		}

		if current.Locked {
			return outbox.Record{}, apperrors.LockedError{EntityType: "price", ID: id, HolderSaga: current.LockedBy}
		}

		current.Name = name
		current.Value = value
		current.Unit = unit
		current.Currency = currency
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		updated = current

		return u.buildRecord(mmodel.EventPriceUpdated, current)
	})

	return updated, err
}

// Delete removes a price and emits PriceDeleted. A locked price cannot be
// deleted out from under an in-flight saga.
func (u *UseCase) Delete(ctx context.Context, id string) error {
	return u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "price", ID: id}
		}

		if current.Locked {
			return outbox.Record{}, apperrors.LockedError{EntityType: "price", ID: id, HolderSaga: current.LockedBy}
		}

		if err := u.Repo.Delete(ctx, tx, id); err != nil {
			return outbox.Record{}, err
		}

		current.Version++

		return u.buildRecord(mmodel.EventPriceDeleted, current)
	})
}

// Get returns a price by id.
func (u *UseCase) Get(ctx context.Context, id string) (mmodel.Price, error) {
	p, err := u.Repo.Get(ctx, id)
	if err != nil {
		return mmodel.Price{}, apperrors.NotFoundError{EntityType: "price", ID: id}
	}

	return p, nil
}

// List returns all prices.
func (u *UseCase) List(ctx context.Context) ([]mmodel.Price, error) {
	return u.Repo.List(ctx)
}

// Lock exclusively locks every price in ids for sagaID. It is idempotent
// per saga: re-locking a price already held by sagaID succeeds without
// change. Locking a price held by a different saga fails with
// LockedError, which the caller (the saga handler) turns into a business
// error that drives the saga's compensation path.
func (u *UseCase) Lock(ctx context.Context, ids []string, sagaID string) error {
	for _, id := range ids {
		if err := u.lockOne(ctx, id, sagaID); err != nil && !errors.Is(err, errNoOp) {
			return err
		}
	}

	return nil
}

func (u *UseCase) lockOne(ctx context.Context, id, sagaID string) error {
	return u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "price", ID: id}
		}

		if current.Locked && current.LockedBy == sagaID {
			return outbox.Record{}, errNoOp
		}

		if current.Locked {
			return outbox.Record{}, apperrors.LockedError{EntityType: "price", ID: id, HolderSaga: current.LockedBy}
		}

		current.Locked = true
		current.LockedBy = sagaID
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		return u.buildRecord(mmodel.EventPriceUpdated, current)
	})
}

// errNoOp signals a lock/unlock call that required no state change (the
// price was already in the requested state for this saga); it aborts the
// transaction without writing an outbox row but is not itself a failure.
var errNoOp = errors.New("pricing: no-op")

// Unlock releases every price in ids held by sagaID. It is best-effort:
// a price not currently locked by sagaID is left untouched rather than
// failing, since unlock runs as saga compensation and must not itself
// fail the rollback. A real failure to unlock a given price is logged and
// does not abort the rest of the batch.
func (u *UseCase) Unlock(ctx context.Context, ids []string, sagaID string) error {
	for _, id := range ids {
		if err := u.unlockOne(ctx, id, sagaID); err != nil && !errors.Is(err, errNoOp) {
			u.Logger.Errorf("pricing: failed to unlock price %s for saga %s: %v", id, sagaID, err)
		}
	}

	return nil
}

func (u *UseCase) unlockOne(ctx context.Context, id, sagaID string) error {
	return u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, err
		}

		if !current.Locked || current.LockedBy != sagaID {
			return outbox.Record{}, errNoOp
		}

		current.Locked = false
		current.LockedBy = ""
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		return u.buildRecord(mmodel.EventPriceUpdated, current)
	})
}

// ForceUnlock clears a price's lock regardless of which saga holds it,
// an operational escape hatch for a saga that died without ever reaching
// its compensation step. Unlike Unlock it is not scoped to a sagaID. A
// price that is not locked is left untouched: no outbox row is written and
// the current price is returned without error.
func (u *UseCase) ForceUnlock(ctx context.Context, id string) (mmodel.Price, error) {
	var updated mmodel.Price

	err := u.Tx.Transact(ctx, func(ctx context.Context, tx pgx.Tx) (outbox.Record, error) {
		current, err := u.Repo.GetTx(ctx, tx, id)
		if err != nil {
			return outbox.Record{}, apperrors.NotFoundError{EntityType: "price", ID: id}
		}

		if !current.Locked {
			return outbox.Record{}, errNoOp
		}

		current.Locked = false
		current.LockedBy = ""
		current.Version++
		current.UpdatedAt = time.Now().UTC()

		if err := u.Repo.Update(ctx, tx, current); err != nil {
			return outbox.Record{}, err
		}

		updated = current

		return u.buildRecord(mmodel.EventPriceUpdated, current)
	})

	if errors.Is(err, errNoOp) {
		return u.Get(ctx, id)
	}

	return updated, err
}

func (u *UseCase) buildRecord(eventType string, p mmodel.Price) (outbox.Record, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return outbox.Record{}, fmt.Errorf("pricing: failed to encode payload: %w", err)
	}

	event := mmodel.DomainEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		SchemaVersion: 1,
		EntityID:      p.ID,
		EntityVersion: p.Version,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}

	return outbox.NewRecord(outboxTopic, event)
}
