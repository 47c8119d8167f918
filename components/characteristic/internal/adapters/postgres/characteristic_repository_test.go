package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	adapter "github.com/productcatalog/platform/components/characteristic/internal/adapters/postgres"
	"github.com/productcatalog/platform/pkg/mmodel"
)

func TestCharacteristicRepository_CreateThenGet(t *testing.T) {
	t.Parallel()

	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	repo := adapter.NewCharacteristicRepository(m)
	now := time.Now().UTC()
	c := mmodel.Characteristic{ID: "c1", Name: "color", Value: "red", Unit: "", Version: 1, CreatedAt: now, UpdatedAt: now}

	m.ExpectBegin()
	m.ExpectExec("INSERT INTO characteristics").
		WithArgs(c.ID, c.Name, c.Value, c.Unit, c.Version, c.CreatedAt, c.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	m.ExpectCommit()

	tx, err := m.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx, c))
	require.NoError(t, tx.Commit(context.Background()))

	rows := pgxmock.NewRows([]string{"id", "name", "value", "unit", "version", "created_at", "updated_at"}).
		AddRow(c.ID, c.Name, c.Value, c.Unit, c.Version, c.CreatedAt, c.UpdatedAt)
	m.ExpectQuery("SELECT id, name, value, unit, version, created_at, updated_at").
		WithArgs(c.ID).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, c.Name, got.Name)
	require.NoError(t, m.ExpectationsWereMet())
}

func TestCharacteristicRepository_GetTx_NotFound(t *testing.T) {
	t.Parallel()

	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	repo := adapter.NewCharacteristicRepository(m)

	m.ExpectBegin()
	m.ExpectQuery("SELECT id, name, value, unit, version, created_at, updated_at").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	tx, err := m.Begin(context.Background())
	require.NoError(t, err)

	_, err = repo.GetTx(context.Background(), tx, "missing")
	require.Error(t, err)
	require.ErrorIs(t, err, pgx.ErrNoRows)
}
