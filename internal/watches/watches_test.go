package watches

import (
	"context"
	"errors"
	"testing"

	"github.com/NiklasMM/ebk-bot/internal/models"
	"github.com/NiklasMM/ebk-bot/internal/source"
	"github.com/NiklasMM/ebk-bot/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	records map[string]models.Watch
	order   []string
	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{records: make(map[string]models.Watch)}
}

func (s *fakeStorage) Watch(_ context.Context, searchTerm string) (models.Watch, error) {
	w, ok := s.records[searchTerm]
	if !ok {
		return models.Watch{}, storage.ErrWatchNotFound
	}
	return w, nil
}

func (s *fakeStorage) SaveWatch(_ context.Context, watch models.Watch) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, ok := s.records[watch.SearchTerm]; ok {
		return storage.ErrWatchExists
	}
	s.records[watch.SearchTerm] = watch
	s.order = append(s.order, watch.SearchTerm)
	return nil
}

func (s *fakeStorage) DeleteWatch(_ context.Context, searchTerm string) error {
	if _, ok := s.records[searchTerm]; !ok {
		return storage.ErrWatchNotFound
	}
	delete(s.records, searchTerm)
	return nil
}

func (s *fakeStorage) Watches(_ context.Context) ([]models.Watch, error) {
	watches := make([]models.Watch, 0, len(s.order))
	for _, term := range s.order {
		if w, ok := s.records[term]; ok {
			watches = append(watches, w)
		}
	}
	return watches, nil
}

type fakeSource struct {
	listings []models.Listing
	err      error
	calls    int
}

func (f *fakeSource) Fetch(_ context.Context, _ string) ([]models.Listing, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

type fakeCache struct {
	list         []models.Watch
	hasList      bool
	invalidated  int
	savedList    []models.Watch
	savedListSet bool
}

func (c *fakeCache) WatchList(_ context.Context) ([]models.Watch, error) {
	if !c.hasList {
		return nil, storage.ErrCacheMiss
	}
	return c.list, nil
}

func (c *fakeCache) SaveWatchList(_ context.Context, watches []models.Watch) error {
	c.savedList = watches
	c.savedListSet = true
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context) error {
	c.invalidated++
	c.hasList = false
	return nil
}

func TestStartWatch_SeedsKnownIDs(t *testing.T) {
	store := newFakeStorage()
	src := &fakeSource{listings: []models.Listing{
		{ID: "1", Price: "10 €", URL: "u1"},
		{ID: "2", Price: "20 €", URL: "u2"},
		{ID: "1", Price: "10 €", URL: "u1"}, // duplicate row on the page
	}}
	op := New(store, src, &fakeCache{})

	err := op.StartWatch(context.Background(), "sofa", "42")
	require.NoError(t, err)

	saved := store.records["sofa"]
	assert.Equal(t, "42", saved.Destination)
	assert.Equal(t, []string{"1", "2"}, saved.KnownIDs)
}

func TestStartWatch_TrimsSearchTerm(t *testing.T) {
	store := newFakeStorage()
	op := New(store, &fakeSource{}, &fakeCache{})

	err := op.StartWatch(context.Background(), "  sofa  ", "42")
	require.NoError(t, err)

	_, ok := store.records["sofa"]
	assert.True(t, ok)
}

func TestStartWatch_EmptyTerm(t *testing.T) {
	for _, term := range []string{"", "   ", "\t\n"} {
		store := newFakeStorage()
		src := &fakeSource{}
		op := New(store, src, &fakeCache{})

		err := op.StartWatch(context.Background(), term, "42")

		require.ErrorIs(t, err, ErrEmptySearchTerm)
		assert.Zero(t, src.calls)
		assert.Empty(t, store.records)
	}
}

func TestStartWatch_DuplicateFailsWithoutFetch(t *testing.T) {
	store := newFakeStorage()
	src := &fakeSource{listings: []models.Listing{{ID: "1"}}}
	op := New(store, src, &fakeCache{})

	require.NoError(t, op.StartWatch(context.Background(), "sofa", "42"))

	// A different destination makes no difference.
	err := op.StartWatch(context.Background(), "sofa", "99")
	require.ErrorIs(t, err, storage.ErrWatchExists)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, "42", store.records["sofa"].Destination)
}

func TestStartWatch_SourceDownCreatesNothing(t *testing.T) {
	store := newFakeStorage()
	src := &fakeSource{err: source.ErrUnavailable}
	op := New(store, src, &fakeCache{})

	err := op.StartWatch(context.Background(), "sofa", "42")

	require.ErrorIs(t, err, source.ErrUnavailable)
	assert.Empty(t, store.records)
}

func TestStartWatch_InvalidatesCache(t *testing.T) {
	cache := &fakeCache{hasList: true}
	op := New(newFakeStorage(), &fakeSource{}, cache)

	require.NoError(t, op.StartWatch(context.Background(), "sofa", "42"))
	assert.Equal(t, 1, cache.invalidated)
}

func TestStopWatch_Missing(t *testing.T) {
	store := newFakeStorage()
	cache := &fakeCache{}
	op := New(store, &fakeSource{}, cache)

	err := op.StopWatch(context.Background(), "sofa")

	require.ErrorIs(t, err, storage.ErrWatchNotFound)
	assert.Zero(t, cache.invalidated)
}

func TestStopWatch_RemovesWatch(t *testing.T) {
	store := newFakeStorage()
	cache := &fakeCache{}
	op := New(store, &fakeSource{}, cache)

	require.NoError(t, op.StartWatch(context.Background(), "sofa", "42"))
	require.NoError(t, op.StopWatch(context.Background(), "sofa"))

	assert.Empty(t, store.records)
	assert.Equal(t, 2, cache.invalidated)
}

func TestWatches_FillsCacheOnMiss(t *testing.T) {
	store := newFakeStorage()
	cache := &fakeCache{}
	op := New(store, &fakeSource{listings: []models.Listing{{ID: "1"}}}, cache)

	require.NoError(t, op.StartWatch(context.Background(), "sofa", "42"))

	list, err := op.Watches(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "sofa", list[0].SearchTerm)
	assert.True(t, cache.savedListSet)
}

func TestWatches_ServedFromCache(t *testing.T) {
	cache := &fakeCache{
		hasList: true,
		list:    []models.Watch{{SearchTerm: "cached"}},
	}
	op := New(newFakeStorage(), &fakeSource{}, cache)

	list, err := op.Watches(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "cached", list[0].SearchTerm)
}

func TestStartWatch_PropagatesStoreError(t *testing.T) {
	store := newFakeStorage()
	store.saveErr = errors.New("connection reset")
	op := New(store, &fakeSource{}, &fakeCache{})

	err := op.StartWatch(context.Background(), "sofa", "42")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrWatchExists)
}
