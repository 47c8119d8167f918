package services

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productcatalog/platform/pkg/mmodel"
	"github.com/productcatalog/platform/pkg/writer"
)

type fakeRepo struct {
	byID map[string]mmodel.Characteristic
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]mmodel.Characteristic)}
}

func (f *fakeRepo) Create(ctx context.Context, tx pgx.Tx, c mmodel.Characteristic) error {
	f.byID[c.ID] = c
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, tx pgx.Tx, c mmodel.Characteristic) error {
	f.byID[c.ID] = c
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Characteristic, error) {
	return f.Get(ctx, id)
}

func (f *fakeRepo) Get(ctx context.Context, id string) (mmodel.Characteristic, error) {
	c, ok := f.byID[id]
	if !ok {
		return mmodel.Characteristic{}, assert.AnError
	}

	return c, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]mmodel.Characteristic, error) {
	var result []mmodel.Characteristic
	for _, c := range f.byID {
		result = append(result, c)
	}

	return result, nil
}

type fakeRunner struct{}

func (fakeRunner) Transact(ctx context.Context, fn writer.MutateFunc) error {
	_, err := fn(ctx, nil)
	return err
}

func TestUseCase_Create_EmitsOutboxRecord(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}}

	c, err := uc.Create(context.Background(), "color", "red", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Version)
	assert.NotEmpty(t, c.ID)

	stored, err := repo.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "red", stored.Value)
}

func TestUseCase_Update_BumpsVersion(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}}

	c, err := uc.Create(context.Background(), "color", "red", "")
	require.NoError(t, err)

	updated, err := uc.Update(context.Background(), c.ID, "color", "blue", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "blue", updated.Value)
}

func TestUseCase_Update_NotFound(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}}

	_, err := uc.Update(context.Background(), "missing", "color", "blue", "")
	assert.Error(t, err)
}

func TestUseCase_Delete(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}}

	c, err := uc.Create(context.Background(), "color", "red", "")
	require.NoError(t, err)

	require.NoError(t, uc.Delete(context.Background(), c.ID))

	_, err = repo.Get(context.Background(), c.ID)
	assert.Error(t, err)
}
