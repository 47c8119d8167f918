package postgres_test

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	adapter "github.com/productcatalog/platform/components/offering/internal/adapters/postgres"
	"github.com/productcatalog/platform/pkg/mmodel"
)

func TestOfferingRepository_CreateThenGet(t *testing.T) {
	t.Parallel()

	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	repo := adapter.NewOfferingRepository(m)
	now := time.Now().UTC()
	o := mmodel.Offering{
		ID:                "o1",
		Name:              "widget",
		Description:       "a widget",
		SpecificationRefs: []string{"spec-1"},
		PriceRefs:         []string{"price-1"},
		SalesChannels:     []string{"web"},
		LifecycleStatus:   mmodel.LifecycleDraft,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	m.ExpectBegin()
	m.ExpectExec("INSERT INTO offerings").
		WithArgs(o.ID, o.Name, o.Description, o.SpecificationRefs, o.PriceRefs, o.SalesChannels, string(o.LifecycleStatus), o.Version, o.CreatedAt, o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	m.ExpectCommit()

	tx, err := m.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx, o))
	require.NoError(t, tx.Commit(context.Background()))

	rows := pgxmock.NewRows([]string{
		"id", "name", "description", "specification_refs", "price_refs", "sales_channels",
		"lifecycle_status", "version", "created_at", "updated_at",
	}).AddRow(o.ID, o.Name, o.Description, o.SpecificationRefs, o.PriceRefs, o.SalesChannels,
		string(o.LifecycleStatus), o.Version, o.CreatedAt, o.UpdatedAt)
	m.ExpectQuery("SELECT id, name, description, specification_refs, price_refs, sales_channels").
		WithArgs(o.ID).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, o.Name, got.Name)
	require.Equal(t, o.LifecycleStatus, got.LifecycleStatus)
	require.NoError(t, m.ExpectationsWereMet())
}
