// Package outbox implements the transactional outbox: a durable record
// written in the same transaction as the entity mutation it describes,
// later drained and published by the Dispatcher.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/productcatalog/platform/pkg/mmodel"
)

// Status is the outbox row state machine: PENDING -> SENT on ack,
// PENDING -> FAILED on terminal logical error. No other transitions exist.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// Record is a durable outbox row. It is created only inside the writer
// transaction that mutated the owning entity and is mutated only by the
// Dispatcher thereafter.
type Record struct {
	ID           string
	Topic        string
	Payload      []byte
	Status       Status
	CreatedAt    time.Time
	ProcessedAt  *time.Time
	ErrorMessage *string
}

// NewRecord builds a pending Record from a DomainEvent, assigning a fresh
// row id and JSON-encoding the event as the payload.
func NewRecord(topic string, event mmodel.DomainEvent) (Record, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Record{}, fmt.Errorf("outbox: failed to encode event: %w", err)
	}

	return Record{
		ID:      uuid.NewString(),
		Topic:   topic,
		Payload: payload,
		Status:  StatusPending,
	}, nil
}

// InsertTx inserts r in the given transaction. It must be called from
// inside the same transaction that mutated the owning entity.
func InsertTx(ctx context.Context, tx pgx.Tx, r Record) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_records (id, topic, payload, status, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, r.ID, r.Topic, r.Payload, r.Status)
	if err != nil {
		return fmt.Errorf("outbox: failed to insert record: %w", err)
	}

	return nil
}

// Store is the Dispatcher's view of the outbox table: draining pending
// rows and recording their terminal state.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore builds a Store bound to pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListPending returns all PENDING rows ordered by created_at ascending,
// preserving per-writer FIFO publication order.
func (s *Store) ListPending(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, topic, payload, status, created_at
		FROM outbox_records
		WHERE status = $1
		ORDER BY created_at ASC
	`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("outbox: failed to list pending records: %w", err)
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		var r Record

		if err := rows.Scan(&r.ID, &r.Topic, &r.Payload, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("outbox: failed to scan record: %w", err)
		}

		records = append(records, r)
	}

	return records, rows.Err()
}

// MarkSent transitions id from PENDING to SENT, committing on its own so a
// crash mid-drain cannot lose or double-mark adjacent rows.
func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox_records SET status = $1, processed_at = now()
		WHERE id = $2
	`, StatusSent, id)
	if err != nil {
		return fmt.Errorf("outbox: failed to mark record sent: %w", err)
	}

	return nil
}

// MarkFailed transitions id from PENDING to FAILED with reason. This is
// reserved for terminal logical errors (unparseable payload, exhausted
// retry budget) — never for plain transport failures, which must leave
// the row PENDING for the next drain.
func (s *Store) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox_records SET status = $1, processed_at = now(), error_message = $2
		WHERE id = $3
	`, StatusFailed, reason, id)
	if err != nil {
		return fmt.Errorf("outbox: failed to mark record failed: %w", err)
	}

	return nil
}
