package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productcatalog/platform/pkg/mlog"
	"github.com/productcatalog/platform/pkg/mmodel"
)

type fakeRepo struct {
	byID     map[string]mmodel.DenormalizedOffering
	affected map[string][]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]mmodel.DenormalizedOffering), affected: make(map[string][]string)}
}

func (f *fakeRepo) Upsert(ctx context.Context, doc mmodel.DenormalizedOffering) error {
	f.byID[doc.ID] = doc
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (mmodel.DenormalizedOffering, error) {
	doc, ok := f.byID[id]
	if !ok {
		return mmodel.DenormalizedOffering{}, assert.AnError
	}

	return doc, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]mmodel.DenormalizedOffering, error) {
	var result []mmodel.DenormalizedOffering
	for _, doc := range f.byID {
		result = append(result, doc)
	}

	return result, nil
}

func (f *fakeRepo) Search(ctx context.Context, query string) ([]mmodel.DenormalizedOffering, error) {
	return f.List(ctx)
}

func (f *fakeRepo) FindAffected(ctx context.Context, entityType, entityID string) ([]string, error) {
	return f.affected[entityType+":"+entityID], nil
}

type fakeLedger struct {
	processed map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{processed: make(map[string]bool)}
}

func (f *fakeLedger) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeLedger) MarkProcessed(ctx context.Context, eventID string) error {
	f.processed[eventID] = true
	return nil
}

type fakeComposer struct {
	calls    []string
	failNext bool
}

func (f *fakeComposer) Compose(ctx context.Context, offeringID string) (mmodel.DenormalizedOffering, error) {
	f.calls = append(f.calls, offeringID)

	if f.failNext {
		return mmodel.DenormalizedOffering{}, assert.AnError
	}

	return mmodel.DenormalizedOffering{ID: offeringID, ComposedAt: time.Now().UTC()}, nil
}

func newUseCase() (*UseCase, *fakeRepo, *fakeLedger, *fakeComposer) {
	repo := newFakeRepo()
	ledger := newFakeLedger()
	composer := &fakeComposer{}

	return &UseCase{Repo: repo, Ledger: ledger, Composer: composer, Logger: mlog.FromContext(context.Background())}, repo, ledger, composer
}

func TestUseCase_HandleEvent_OfferingPublished_ComposesAndUpserts(t *testing.T) {
	t.Parallel()

	uc, repo, _, composer := newUseCase()

	event := mmodel.DomainEvent{EventID: "evt-1", EventType: mmodel.EventOfferingPublished, EntityID: "o1"}
	require.NoError(t, uc.HandleEvent(context.Background(), event))

	assert.Equal(t, []string{"o1"}, composer.calls)
	_, ok := repo.byID["o1"]
	assert.True(t, ok)
}

func TestUseCase_HandleEvent_SkipsAlreadyProcessedEvent(t *testing.T) {
	t.Parallel()

	uc, _, ledger, composer := newUseCase()

	event := mmodel.DomainEvent{EventID: "evt-1", EventType: mmodel.EventOfferingPublished, EntityID: "o1"}
	require.NoError(t, uc.HandleEvent(context.Background(), event))
	require.NoError(t, uc.HandleEvent(context.Background(), event))

	assert.True(t, ledger.processed["evt-1"])
	assert.Len(t, composer.calls, 1, "a redelivered event must not be recomposed")
}

func TestUseCase_HandleEvent_OfferingRetired_DeletesFromReadModel(t *testing.T) {
	t.Parallel()

	uc, repo, _, _ := newUseCase()
	repo.byID["o1"] = mmodel.DenormalizedOffering{ID: "o1"}

	event := mmodel.DomainEvent{EventID: "evt-2", EventType: mmodel.EventOfferingRetired, EntityID: "o1"}
	require.NoError(t, uc.HandleEvent(context.Background(), event))

	_, ok := repo.byID["o1"]
	assert.False(t, ok)
}

func TestUseCase_HandleEvent_CharacteristicUpdated_RecomposesAffectedOfferings(t *testing.T) {
	t.Parallel()

	uc, repo, _, composer := newUseCase()
	repo.affected["characteristic:c1"] = []string{"o1", "o2"}

	event := mmodel.DomainEvent{EventID: "evt-3", EventType: mmodel.EventCharacteristicUpdated, EntityID: "c1"}
	require.NoError(t, uc.HandleEvent(context.Background(), event))

	assert.ElementsMatch(t, []string{"o1", "o2"}, composer.calls)
	assert.Len(t, repo.byID, 2)
}

func TestUseCase_HandleEvent_IgnoresCreationEvents(t *testing.T) {
	t.Parallel()

	uc, _, _, composer := newUseCase()

	event := mmodel.DomainEvent{EventID: "evt-4", EventType: mmodel.EventCharacteristicCreated, EntityID: "c1"}
	require.NoError(t, uc.HandleEvent(context.Background(), event))

	assert.Empty(t, composer.calls)
}

func TestUseCase_HandleEvent_RecomposeFailure_LeavesEventUnprocessed(t *testing.T) {
	t.Parallel()

	uc, repo, ledger, composer := newUseCase()
	repo.affected["characteristic:c1"] = []string{"o1"}
	composer.failNext = true

	event := mmodel.DomainEvent{EventID: "evt-5", EventType: mmodel.EventCharacteristicUpdated, EntityID: "c1"}
	err := uc.HandleEvent(context.Background(), event)

	require.Error(t, err)
	assert.False(t, ledger.processed["evt-5"], "a failed recomposition must not be marked processed")
}

func TestUseCase_Sync_PropagatesComposerFailure(t *testing.T) {
	t.Parallel()

	uc, _, _, composer := newUseCase()
	composer.failNext = true

	err := uc.Sync(context.Background(), "o1")
	require.Error(t, err)
}

func TestUseCase_Search_ReturnsRepoResults(t *testing.T) {
	t.Parallel()

	uc, repo, _, _ := newUseCase()
	repo.byID["o1"] = mmodel.DenormalizedOffering{ID: "o1", Name: "widget"}

	results, err := uc.Search(context.Background(), "widget")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "widget", results[0].Name)
}

func TestDomainEvent_UnmarshalsPayload(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"event_id":"e1","event_type":"OfferingPublished","entity_id":"o1","payload":{"foo":"bar"}}`)

	var event mmodel.DomainEvent
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "o1", event.EntityID)
}
