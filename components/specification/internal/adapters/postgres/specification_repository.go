package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/productcatalog/platform/pkg/mmodel"
	"github.com/productcatalog/platform/pkg/postgres"
)

// SpecificationRepository implements services.Repository against
// Postgres.
type SpecificationRepository struct {
	pool postgres.Querier
}

// NewSpecificationRepository builds a SpecificationRepository bound to
// pool.
func NewSpecificationRepository(pool postgres.Querier) *SpecificationRepository {
	return &SpecificationRepository{pool: pool}
}

func scanSpecification(row pgx.Row) (mmodel.Specification, error) {
	var s mmodel.Specification

	err := row.Scan(&s.ID, &s.Name, &s.CharacteristicRefs, &s.Version, &s.CreatedAt, &s.UpdatedAt)

	return s, err
}

// Create inserts a new specification row.
func (r *SpecificationRepository) Create(ctx context.Context, tx pgx.Tx, s mmodel.Specification) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO specifications (id, name, characteristic_refs, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.Name, s.CharacteristicRefs, s.Version, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create specification: %w", err)
	}

	return nil
}

// Update overwrites an existing specification row.
func (r *SpecificationRepository) Update(ctx context.Context, tx pgx.Tx, s mmodel.Specification) error {
	_, err := tx.Exec(ctx, `
		UPDATE specifications
		SET name = $1, characteristic_refs = $2, version = $3, updated_at = $4
		WHERE id = $5
	`, s.Name, s.CharacteristicRefs, s.Version, s.UpdatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update specification: %w", err)
	}

	return nil
}

// Delete removes a specification row by id.
func (r *SpecificationRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	_, err := tx.Exec(ctx, `DELETE FROM specifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete specification: %w", err)
	}

	return nil
}

// GetTx reads a specification row within tx.
func (r *SpecificationRepository) GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Specification, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, name, characteristic_refs, version, created_at, updated_at
		FROM specifications WHERE id = $1
	`, id)

	s, err := scanSpecification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return mmodel.Specification{}, fmt.Errorf("postgres: specification %s not found: %w", id, err)
	}

	return s, err
}

// Get reads a specification row outside any transaction.
func (r *SpecificationRepository) Get(ctx context.Context, id string) (mmodel.Specification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, characteristic_refs, version, created_at, updated_at
		FROM specifications WHERE id = $1
	`, id)

	return scanSpecification(row)
}

// List returns every specification ordered by name.
func (r *SpecificationRepository) List(ctx context.Context) ([]mmodel.Specification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, characteristic_refs, version, created_at, updated_at
		FROM specifications ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list specifications: %w", err)
	}
	defer rows.Close()

	var result []mmodel.Specification

	for rows.Next() {
		s, err := scanSpecification(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan specification: %w", err)
		}

		result = append(result, s)
	}

	return result, rows.Err()
}
