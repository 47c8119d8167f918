package services

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/mmodel"
	"github.com/productcatalog/platform/pkg/saga/publication"
	"github.com/productcatalog/platform/pkg/writer"
)

type fakeRepo struct {
	byID map[string]mmodel.Offering
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]mmodel.Offering)}
}

func (f *fakeRepo) Create(ctx context.Context, tx pgx.Tx, o mmodel.Offering) error {
	f.byID[o.ID] = o
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, tx pgx.Tx, o mmodel.Offering) error {
	f.byID[o.ID] = o
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) GetTx(ctx context.Context, tx pgx.Tx, id string) (mmodel.Offering, error) {
	return f.Get(ctx, id)
}

func (f *fakeRepo) Get(ctx context.Context, id string) (mmodel.Offering, error) {
	o, ok := f.byID[id]
	if !ok {
		return mmodel.Offering{}, assert.AnError
	}

	return o, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]mmodel.Offering, error) {
	var result []mmodel.Offering
	for _, o := range f.byID {
		result = append(result, o)
	}

	return result, nil
}

type fakeRunner struct{}

func (fakeRunner) Transact(ctx context.Context, fn writer.MutateFunc) error {
	_, err := fn(ctx, nil)
	return err
}

type fakeSagaStarter struct {
	startErr error
	started  []publication.Variables
}

func (f *fakeSagaStarter) Start(ctx context.Context, vars publication.Variables) (string, error) {
	f.started = append(f.started, vars)
	if f.startErr != nil {
		return "", f.startErr
	}

	return "process-1", nil
}

func TestUseCase_Create_IsDraft(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Saga: &fakeSagaStarter{}}

	o, err := uc.Create(context.Background(), "widget", "desc", []string{"spec-1"}, []string{"price-1"}, []string{"web"})
	require.NoError(t, err)
	assert.Equal(t, mmodel.LifecycleDraft, o.LifecycleStatus)
}

func TestUseCase_Update_RejectsNonDraft(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Saga: &fakeSagaStarter{}}

	o, err := uc.Create(context.Background(), "widget", "desc", []string{"spec-1"}, []string{"price-1"}, []string{"web"})
	require.NoError(t, err)

	published, err := uc.Publish(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, mmodel.LifecyclePublishing, published.LifecycleStatus)

	_, err = uc.Update(context.Background(), o.ID, "widget2", "desc", nil, nil, nil)
	require.Error(t, err)
	var lifecycleErr apperrors.LifecycleError
	require.ErrorAs(t, err, &lifecycleErr)
}

func TestUseCase_Publish_RejectsIncompleteOffering(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Saga: &fakeSagaStarter{}}

	o, err := uc.Create(context.Background(), "widget", "desc", nil, nil, nil)
	require.NoError(t, err)

	_, err = uc.Publish(context.Background(), o.ID)
	require.Error(t, err)
	var lifecycleErr apperrors.LifecycleError
	require.ErrorAs(t, err, &lifecycleErr)
}

func TestUseCase_Publish_RevertsToDraftWhenSagaFailsToStart(t *testing.T) {
	repo := newFakeRepo()
	saga := &fakeSagaStarter{startErr: assert.AnError}
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Saga: saga}

	o, err := uc.Create(context.Background(), "widget", "desc", []string{"spec-1"}, []string{"price-1"}, []string{"web"})
	require.NoError(t, err)

	_, err = uc.Publish(context.Background(), o.ID)
	require.Error(t, err)

	stored, err := repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, mmodel.LifecycleDraft, stored.LifecycleStatus)
}

func TestUseCase_ConfirmPublication_RequiresPublishing(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Saga: &fakeSagaStarter{}}

	o, err := uc.Create(context.Background(), "widget", "desc", []string{"spec-1"}, []string{"price-1"}, []string{"web"})
	require.NoError(t, err)

	err = uc.ConfirmPublication(context.Background(), o.ID)
	require.Error(t, err)

	_, err = uc.Publish(context.Background(), o.ID)
	require.NoError(t, err)

	require.NoError(t, uc.ConfirmPublication(context.Background(), o.ID))

	stored, err := repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, mmodel.LifecyclePublished, stored.LifecycleStatus)
}

func TestUseCase_Retire_RequiresPublished(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Tx: fakeRunner{}, Saga: &fakeSagaStarter{}}

	o, err := uc.Create(context.Background(), "widget", "desc", []string{"spec-1"}, []string{"price-1"}, []string{"web"})
	require.NoError(t, err)

	err = uc.Retire(context.Background(), o.ID)
	require.Error(t, err)

	_, err = uc.Publish(context.Background(), o.ID)
	require.NoError(t, err)
	require.NoError(t, uc.ConfirmPublication(context.Background(), o.ID))
	require.NoError(t, uc.Retire(context.Background(), o.ID))

	stored, err := repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, mmodel.LifecycleRetired, stored.LifecycleStatus)
}
