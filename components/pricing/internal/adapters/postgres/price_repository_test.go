package postgres_test

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	adapter "github.com/productcatalog/platform/components/pricing/internal/adapters/postgres"
	"github.com/productcatalog/platform/pkg/mmodel"
)

func TestPriceRepository_CreateThenGet(t *testing.T) {
	t.Parallel()

	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	repo := adapter.NewPriceRepository(m)
	now := time.Now().UTC()
	p := mmodel.Price{
		ID: "p1", Name: "base", Value: decimal.NewFromInt(100), Unit: "unit", Currency: "USD",
		Version: 1, CreatedAt: now, UpdatedAt: now,
	}

	m.ExpectBegin()
	m.ExpectExec("INSERT INTO prices").
		WithArgs(p.ID, p.Name, p.Value, p.Unit, p.Currency, p.Locked, nil, p.Version, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	m.ExpectCommit()

	tx, err := m.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx, p))
	require.NoError(t, tx.Commit(context.Background()))

	rows := pgxmock.NewRows([]string{"id", "name", "value", "unit", "currency", "locked", "locked_by_saga", "version", "created_at", "updated_at"}).
		AddRow(p.ID, p.Name, p.Value, p.Unit, p.Currency, p.Locked, "", p.Version, p.CreatedAt, p.UpdatedAt)
	m.ExpectQuery("SELECT id, name, value, unit, currency, locked, COALESCE").
		WithArgs(p.ID).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)
	require.NoError(t, m.ExpectationsWereMet())
}
