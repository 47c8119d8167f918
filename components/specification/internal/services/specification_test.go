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
	byID map[string]mmodel.Specification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]mmodel.Specification)}
}

func (f *fakeRepo) Create(ctx context.Context, tx pgx.Tx, s mmodel.Specification) error {
	f.byID[s.ID] = s
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, tx pgx.Tx, s mmodel.Specification) error {
	f.byID[s.ID] = s
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Specification, error) {
	return f.Get(ctx, id)
}

func (f *fakeRepo) Get(ctx context.Context, id string) (mmodel.Specification, error) {
	s, ok := f.byID[id]
	if !ok {
		return mmodel.Specification{}, assert.AnError
	}

	return s, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]mmodel.Specification, error) {
	var result []mmodel.Specification
	for _, s := range f.byID {
		result = append(result, s)
	}

	return result, nil
}

type fakeCache struct {
	known map[string]bool
}

func newFakeCache(ids ...string) *fakeCache {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	return &fakeCache{known: known}
}

func (f *fakeCache) MissingRefs(ctx context.Context, tx pgx.Tx, ids []string) ([]string, error) {
	var missing []string

	for _, id := range ids {
		if !f.known[id] {
			missing = append(missing, id)
		}
	}

	return missing, nil
}

type fakeRunner struct{}

func (fakeRunner) Transact(ctx context.Context, fn writer.MutateFunc) error {
	_, err := fn(ctx, nil)
	return err
}

func TestUseCase_Create_RejectsUnknownCharacteristicRef(t *testing.T) {
	uc := &UseCase{Repo: newFakeRepo(), Cache: newFakeCache("c1"), Tx: fakeRunner{}}

	_, err := uc.Create(context.Background(), "spec", []string{"c1", "c2"})
	assert.Error(t, err)
}

func TestUseCase_Create_AcceptsKnownRefs(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Cache: newFakeCache("c1", "c2"), Tx: fakeRunner{}}

	s, err := uc.Create(context.Background(), "spec", []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Version)

	stored, err := repo.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2"}, stored.CharacteristicRefs)
}

func TestUseCase_Create_RejectsEmptyRefs(t *testing.T) {
	uc := &UseCase{Repo: newFakeRepo(), Cache: newFakeCache(), Tx: fakeRunner{}}

	_, err := uc.Create(context.Background(), "spec", nil)
	assert.Error(t, err)
}

func TestUseCase_Update_RevalidatesRefs(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache("c1", "c2")
	uc := &UseCase{Repo: repo, Cache: cache, Tx: fakeRunner{}}

	s, err := uc.Create(context.Background(), "spec", []string{"c1"})
	require.NoError(t, err)

	_, err = uc.Update(context.Background(), s.ID, "spec", []string{"c3"})
	assert.Error(t, err)

	updated, err := uc.Update(context.Background(), s.ID, "spec", []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
}
