package postgres_test

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	adapter "github.com/productcatalog/platform/components/specification/internal/adapters/postgres"
)

func TestValidationCacheRepository_MissingRefs(t *testing.T) {
	t.Parallel()

	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	repo := adapter.NewValidationCacheRepository(m)

	m.ExpectBegin()
	rows := pgxmock.NewRows([]string{"id"}).AddRow("c1")
	m.ExpectQuery("SELECT id FROM valid_characteristics").
		WithArgs([]string{"c1", "c2"}).
		WillReturnRows(rows)

	tx, err := m.Begin(context.Background())
	require.NoError(t, err)

	missing, err := repo.MissingRefs(context.Background(), tx, []string{"c1", "c2"})
	require.NoError(t, err)
	require.Equal(t, []string{"c2"}, missing)
}

func TestValidationCacheRepository_UpsertAndRemove(t *testing.T) {
	t.Parallel()

	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	repo := adapter.NewValidationCacheRepository(m)

	m.ExpectExec("INSERT INTO valid_characteristics").
		WithArgs("c1", int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.Upsert(context.Background(), "c1", 2))

	m.ExpectExec("DELETE FROM valid_characteristics").
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Remove(context.Background(), "c1"))

	require.NoError(t, m.ExpectationsWereMet())
}
