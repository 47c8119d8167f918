package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/productcatalog/platform/pkg/mmodel"
	"github.com/productcatalog/platform/pkg/postgres"
)

// CharacteristicRepository implements services.Repository against
// Postgres.
type CharacteristicRepository struct {
	pool postgres.Querier
}

// NewCharacteristicRepository builds a CharacteristicRepository bound to
// pool.
func NewCharacteristicRepository(pool postgres.Querier) *CharacteristicRepository {
	return &CharacteristicRepository{pool: pool}
}

func scanCharacteristic(row pgx.Row) (mmodel.Characteristic, error) {
	var c mmodel.Characteristic

	err := row.Scan(&c.ID, &c.Name, &c.Value, &c.Unit, &c.Version, &c.CreatedAt, &c.UpdatedAt)

	return c, err
}

// Create inserts a new characteristic row.
func (r *CharacteristicRepository) Create(ctx context.Context, tx pgx.Tx, c mmodel.Characteristic) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO characteristics (id, name, value, unit, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.Value, c.Unit, c.Version, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create characteristic: %w", err)
	}

	return nil
}

// Update overwrites an existing characteristic row.
func (r *CharacteristicRepository) Update(ctx context.Context, tx pgx.Tx, c mmodel.Characteristic) error {
	_, err := tx.Exec(ctx, `
		UPDATE characteristics
		SET name = $1, value = $2, unit = $3, version = $4, updated_at = $5
		WHERE id = $6
	`, c.Name, c.Value, c.Unit, c.Version, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update characteristic: %w", err)
	}

	return nil
}

// Delete removes a characteristic row by id.
func (r *CharacteristicRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	_, err := tx.Exec(ctx, `DELETE FROM characteristics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete characteristic: %w", err)
	}

	return nil
}

// GetTx reads a characteristic row within tx, for use in a read-modify-write
// sequence.
func (r *CharacteristicRepository) GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Characteristic, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, name, value, unit, version, created_at, updated_at
		FROM characteristics WHERE id = $1
	`, id)

	c, err := scanCharacteristic(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return mmodel.Characteristic{}, fmt.Errorf("postgres: characteristic %s not found: %w", id, err)
	}

	return c, err
}

// Get reads a characteristic row outside any transaction.
func (r *CharacteristicRepository) Get(ctx context.Context, id string) (mmodel.Characteristic, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, value, unit, version, created_at, updated_at
		FROM characteristics WHERE id = $1
	`, id)

	return scanCharacteristic(row)
}

// List returns every characteristic ordered by name.
func (r *CharacteristicRepository) List(ctx context.Context) ([]mmodel.Characteristic, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, value, unit, version, created_at, updated_at
		FROM characteristics ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list characteristics: %w", err)
	}
	defer rows.Close()

	var result []mmodel.Characteristic

	for rows.Next() {
		c, err := scanCharacteristic(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan characteristic: %w", err)
		}

		result = append(result, c)
	}

	return result, rows.Err()
}
