package postgres_test

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	adapter "github.com/productcatalog/platform/components/specification/internal/adapters/postgres"
	"github.com/productcatalog/platform/pkg/mmodel"
)

func TestSpecificationRepository_CreateThenGet(t *testing.T) {
	t.Parallel()

	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	repo := adapter.NewSpecificationRepository(m)
	now := time.Now().UTC()
	s := mmodel.Specification{ID: "s1", Name: "spec-a", CharacteristicRefs: []string{"c1", "c2"}, Version: 1, CreatedAt: now, UpdatedAt: now}

	m.ExpectBegin()
	m.ExpectExec("INSERT INTO specifications").
		WithArgs(s.ID, s.Name, s.CharacteristicRefs, s.Version, s.CreatedAt, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	m.ExpectCommit()

	tx, err := m.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx, s))
	require.NoError(t, tx.Commit(context.Background()))

	rows := pgxmock.NewRows([]string{"id", "name", "characteristic_refs", "version", "created_at", "updated_at"}).
		AddRow(s.ID, s.Name, s.CharacteristicRefs, s.Version, s.CreatedAt, s.UpdatedAt)
	m.ExpectQuery("SELECT id, name, characteristic_refs, version, created_at, updated_at").
		WithArgs(s.ID).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), s.ID)
	require.NoError(t, err)
	require.Equal(t, s.Name, got.Name)
	require.NoError(t, m.ExpectationsWereMet())
}
