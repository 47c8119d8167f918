package services

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/mlog"
	"github.com/productcatalog/platform/pkg/mmodel"
	"github.com/productcatalog/platform/pkg/writer"
)

type fakeRepo struct {
	byID map[string]mmodel.Price
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]mmodel.Price)}
}

func (f *fakeRepo) Create(ctx context.Context, tx pgx.Tx, p mmodel.Price) error {
	f.byID[p.ID] = p
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, tx pgx.Tx, p mmodel.Price) error {
	f.byID[p.ID] = p
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Price, error) {
	return f.Get(ctx, id)
}

func (f *fakeRepo) Get(ctx context.Context, id string) (mmodel.Price, error) {
	p, ok := f.byID[id]
	if !ok {
		return mmodel.Price{}, assert.AnError
	}

	return p, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]mmodel.Price, error) {
	var result []mmodel.Price
	for _, p := range f.byID {
		result = append(result, p)
	}

	return result, nil
}

type fakeRunner struct{}

func (fakeRunner) Transact(ctx context.Context, fn writer.MutateFunc) error {
	_, err := fn(ctx, nil)
	return err
}

func TestUseCase_Lock_ExclusiveAcrossSagas(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Logger: mlog.FromContext(context.Background())}

	p, err := uc.Create(context.Background(), "base", decimal.NewFromInt(100), "unit", "USD")
	require.NoError(t, err)

	require.NoError(t, uc.Lock(context.Background(), []string{p.ID}, "saga-1"))

	err = uc.Lock(context.Background(), []string{p.ID}, "saga-2")
	require.Error(t, err)
	var lockedErr apperrors.LockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.Equal(t, "saga-1", lockedErr.HolderSaga)
}

func TestUseCase_Lock_IdempotentPerSaga(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Logger: mlog.FromContext(context.Background())}

	p, err := uc.Create(context.Background(), "base", decimal.NewFromInt(100), "unit", "USD")
	require.NoError(t, err)

	require.NoError(t, uc.Lock(context.Background(), []string{p.ID}, "saga-1"))
	require.NoError(t, uc.Lock(context.Background(), []string{p.ID}, "saga-1"))

	stored, err := repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Locked)
	assert.Equal(t, "saga-1", stored.LockedBy)
}

func TestUseCase_Unlock_IsBestEffort(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Logger: mlog.FromContext(context.Background())}

	p, err := uc.Create(context.Background(), "base", decimal.NewFromInt(100), "unit", "USD")
	require.NoError(t, err)

	require.NoError(t, uc.Lock(context.Background(), []string{p.ID}, "saga-1"))

	// Unlocking with the wrong saga id or an unknown id must never fail.
	require.NoError(t, uc.Unlock(context.Background(), []string{p.ID, "missing"}, "saga-2"))

	stored, err := repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Locked)

	require.NoError(t, uc.Unlock(context.Background(), []string{p.ID}, "saga-1"))

	stored, err = repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, stored.Locked)
	assert.Empty(t, stored.LockedBy)
}

func TestUseCase_Update_RejectsLockedPrice(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Logger: mlog.FromContext(context.Background())}

	p, err := uc.Create(context.Background(), "base", decimal.NewFromInt(100), "unit", "USD")
	require.NoError(t, err)
	require.NoError(t, uc.Lock(context.Background(), []string{p.ID}, "saga-1"))

	_, err = uc.Update(context.Background(), p.ID, "base", decimal.NewFromInt(200), "unit", "USD")
	require.Error(t, err)
	var lockedErr apperrors.LockedError
	require.ErrorAs(t, err, &lockedErr)
}

func TestUseCase_ForceUnlock_ClearsLockRegardlessOfHolder(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Logger: mlog.FromContext(context.Background())}

	p, err := uc.Create(context.Background(), "base", decimal.NewFromInt(100), "unit", "USD")
	require.NoError(t, err)
	require.NoError(t, uc.Lock(context.Background(), []string{p.ID}, "dead-saga"))

	unlocked, err := uc.ForceUnlock(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, unlocked.Locked)
	assert.Empty(t, unlocked.LockedBy)
}

func TestUseCase_ForceUnlock_NoOpOnAlreadyUnlockedPrice(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Logger: mlog.FromContext(context.Background())}

	p, err := uc.Create(context.Background(), "base", decimal.NewFromInt(100), "unit", "USD")
	require.NoError(t, err)

	unlocked, err := uc.ForceUnlock(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Version, unlocked.Version)
}
