package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/productcatalog/platform/pkg/mmodel"
	"github.com/productcatalog/platform/pkg/postgres"
)

// PriceRepository implements services.Repository against Postgres.
type PriceRepository struct {
	pool postgres.Querier
}

// NewPriceRepository builds a PriceRepository bound to pool.
func NewPriceRepository(pool postgres.Querier) *PriceRepository {
	return &PriceRepository{pool: pool}
}

func scanPrice(row pgx.Row) (mmodel.Price, error) {
	var p mmodel.Price

	err := row.Scan(&p.ID, &p.Name, &p.Value, &p.Unit, &p.Currency, &p.Locked, &p.LockedBy, &p.Version, &p.CreatedAt, &p.UpdatedAt)

	return p, err
}

// Create inserts a new price row.
func (r *PriceRepository) Create(ctx context.Context, tx pgx.Tx, p mmodel.Price) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO prices (id, name, value, unit, currency, locked, locked_by_saga, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Name, p.Value, p.Unit, p.Currency, p.Locked, nullable(p.LockedBy), p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create price: %w", err)
	}

	return nil
}

// Update overwrites an existing price row, including its lock state.
func (r *PriceRepository) Update(ctx context.Context, tx pgx.Tx, p mmodel.Price) error {
	_, err := tx.Exec(ctx, `
		UPDATE prices
		SET name = $1, value = $2, unit = $3, currency = $4, locked = $5, locked_by_saga = $6, version = $7, updated_at = $8
		WHERE id = $9
	`, p.Name, p.Value, p.Unit, p.Currency, p.Locked, nullable(p.LockedBy), p.Version, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update price: %w", err)
	}

	return nil
}

// Delete removes a price row by id.
func (r *PriceRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	_, err := tx.Exec(ctx, `DELETE FROM prices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete price: %w", err)
	}

	return nil
}

// GetTx reads a price row within tx.
func (r *PriceRepository) GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Price, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, name, value, unit, currency, locked, COALESCE(locked_by_saga, ''), version, created_at, updated_at
		FROM prices WHERE id = $1
	`, id)

	p, err := scanPrice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return mmodel.Price{}, fmt.Errorf("postgres: price %s not found: %w", id, err)
	}

	return p, err
}

// Get reads a price row outside any transaction.
func (r *PriceRepository) Get(ctx context.Context, id string) (mmodel.Price, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, value, unit, currency, locked, COALESCE(locked_by_saga, ''), version, created_at, updated_at
		FROM prices WHERE id = $1
	`, id)

	return scanPrice(row)
}

// List returns every price ordered by name.
func (r *PriceRepository) List(ctx context.Context) ([]mmodel.Price, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, value, unit, currency, locked, COALESCE(locked_by_saga, ''), version, created_at, updated_at
		FROM prices ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list prices: %w", err)
	}
	defer rows.Close()

	var result []mmodel.Price

	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan price: %w", err)
		}

		result = append(result, p)
	}

	return result, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}
