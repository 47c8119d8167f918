package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/productcatalog/platform/pkg/mmodel"
	"github.com/productcatalog/platform/pkg/postgres"
)

// OfferingRepository implements services.Repository against Postgres.
type OfferingRepository struct {
	pool postgres.Querier
}

// NewOfferingRepository builds an OfferingRepository bound to pool.
func NewOfferingRepository(pool postgres.Querier) *OfferingRepository {
	return &OfferingRepository{pool: pool}
}

func scanOffering(row pgx.Row) (mmodel.Offering, error) {
	var o mmodel.Offering
	var status string

	err := row.Scan(&o.ID, &o.Name, &o.Description, &o.SpecificationRefs, &o.PriceRefs, &o.SalesChannels,
		&status, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	o.LifecycleStatus = mmodel.LifecycleStatus(status)

	return o, err
}

// Create inserts a new offering row.
func (r *OfferingRepository) Create(ctx context.Context, tx pgx.Tx, o mmodel.Offering) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO offerings (id, name, description, specification_refs, price_refs, sales_channels, lifecycle_status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, o.ID, o.Name, o.Description, o.SpecificationRefs, o.PriceRefs, o.SalesChannels, string(o.LifecycleStatus), o.Version, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create offering: %w", err)
	}

	return nil
}

// Update overwrites an existing offering row, including its lifecycle
// status.
func (r *OfferingRepository) Update(ctx context.Context, tx pgx.Tx, o mmodel.Offering) error {
	_, err := tx.Exec(ctx, `
		UPDATE offerings
		SET name = $1, description = $2, specification_refs = $3, price_refs = $4, sales_channels = $5,
		    lifecycle_status = $6, version = $7, updated_at = $8
		WHERE id = $9
	`, o.Name, o.Description, o.SpecificationRefs, o.PriceRefs, o.SalesChannels, string(o.LifecycleStatus), o.Version, o.UpdatedAt, o.ID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update offering: %w", err)
	}

	return nil
}

// Delete removes an offering row by id.
func (r *OfferingRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	_, err := tx.Exec(ctx, `DELETE FROM offerings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete offering: %w", err)
	}

	return nil
}

// GetTx reads an offering row within tx.
func (r *OfferingRepository) GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Offering, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, name, description, specification_refs, price_refs, sales_channels, lifecycle_status, version, created_at, updated_at
		FROM offerings WHERE id = $1
	`, id)

	o, err := scanOffering(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return mmodel.Offering{}, fmt.Errorf("postgres: offering %s not found: %w", id, err)
	}

	return o, err
}

// Get reads an offering row outside any transaction.
func (r *OfferingRepository) Get(ctx context.Context, id string) (mmodel.Offering, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, specification_refs, price_refs, sales_channels, lifecycle_status, version, created_at, updated_at
		FROM offerings WHERE id = $1
	`, id)

	return scanOffering(row)
}

// List returns every offering ordered by name.
func (r *OfferingRepository) List(ctx context.Context) ([]mmodel.Offering, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, specification_refs, price_refs, sales_channels, lifecycle_status, version, created_at, updated_at
		FROM offerings ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list offerings: %w", err)
	}
	defer rows.Close()

	var result []mmodel.Offering

	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan offering: %w", err)
		}

		result = append(result, o)
	}

	return result, rows.Err()
}
