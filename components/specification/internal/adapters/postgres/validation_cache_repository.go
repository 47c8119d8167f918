package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/productcatalog/platform/pkg/postgres"
)

// ValidationCacheRepository implements services.ValidationCache and the
// write side the characteristic event consumer uses to keep it current.
type ValidationCacheRepository struct {
	pool postgres.Querier
}

// NewValidationCacheRepository builds a ValidationCacheRepository bound
// to pool.
func NewValidationCacheRepository(pool postgres.Querier) *ValidationCacheRepository {
	return &ValidationCacheRepository{pool: pool}
}

// MissingRefs returns the subset of ids absent from the cache.
func (r *ValidationCacheRepository) MissingRefs(ctx context.Context, tx pgx.Tx, ids []string) ([]string, error) {
	rows, err := tx.Query(ctx, `SELECT id FROM valid_characteristics WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query valid_characteristics: %w", err)
	}
	defer rows.Close()

	present := make(map[string]struct{}, len(ids))

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan valid_characteristics row: %w", err)
		}

		present[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string

	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}

	return missing, nil
}

// Upsert records that id exists as of entityVersion, unless a newer
// version is already stored.
func (r *ValidationCacheRepository) Upsert(ctx context.Context, id string, entityVersion int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO valid_characteristics (id, entity_version)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET entity_version = EXCLUDED.entity_version
		WHERE valid_characteristics.entity_version < EXCLUDED.entity_version
	`, id, entityVersion)
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert valid_characteristics: %w", err)
	}

	return nil
}

// Remove deletes id from the cache, ignoring stale deletes for an id
// already removed.
func (r *ValidationCacheRepository) Remove(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM valid_characteristics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete valid_characteristics row: %w", err)
	}

	return nil
}
