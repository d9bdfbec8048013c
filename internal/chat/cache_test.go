package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCacheStore struct {
	rows    []CachedQuery
	touched []int64
}

func (f *fakeCacheStore) Candidates(_ context.Context, limit int) ([]CachedQuery, error) {
	if len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeCacheStore) Touch(_ context.Context, id int64) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeCacheStore) Insert(_ context.Context, normalized, response string) error {
	f.rows = append(f.rows, CachedQuery{
		ID:              int64(len(f.rows) + 1),
		QueryNormalized: normalized,
		Response:        response,
	})
	return nil
}

func (f *fakeCacheStore) Delete(_ context.Context, id int64) (string, error) {
	for i, row := range f.rows {
		if row.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return row.QueryNormalized, nil
		}
	}
	return "", ErrCacheEntryNotFound
}

func newTestCache(store cacheStore) *QueryCache {
	return NewQueryCache(store, CacheConfig{
		SimilarityThreshold: 0.6,
		CandidateLimit:      100,
		LRUSize:             16,
		LRUTTL:              time.Minute,
	})
}

func TestCacheLookupMiss(t *testing.T) {
	cache := newTestCache(&fakeCacheStore{})

	_, ok, err := cache.Lookup(context.Background(), "how to add a ribbon button")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheLookupSimilarHit(t *testing.T) {
	store := &fakeCacheStore{rows: []CachedQuery{
		{ID: 7, QueryNormalized: "how to add a ribbon button", Response: "use the ribbon API"},
		{ID: 8, QueryNormalized: "completely different topic entirely", Response: "nope"},
	}}
	cache := newTestCache(store)

	hit, ok, err := cache.Lookup(context.Background(), "How to add a ribbon button?")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "use the ribbon API", hit.Response)
	assert.Equal(t, 1.0, hit.Similarity)
	assert.Equal(t, []int64{7}, store.touched, "a database hit bumps the row's counter")
}

func TestCacheLookupBelowThreshold(t *testing.T) {
	store := &fakeCacheStore{rows: []CachedQuery{
		{ID: 1, QueryNormalized: "how to configure github release pipeline", Response: "r"},
	}}
	cache := newTestCache(store)

	_, ok, err := cache.Lookup(context.Background(), "what is the weather")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, store.touched)
}

func TestCacheStoreThenLRUHit(t *testing.T) {
	store := &fakeCacheStore{}
	cache := newTestCache(store)

	require.NoError(t, cache.Store(context.Background(), "How to build the DLL?", "run msbuild"))

	// Second lookup of the same normalized query is served by the LRU and
	// must not touch the durable counter.
	hit, ok, err := cache.Lookup(context.Background(), "how to build the dll")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run msbuild", hit.Response)
	assert.Empty(t, store.touched)
}

func TestCacheDeletePurgesLRU(t *testing.T) {
	store := &fakeCacheStore{}
	cache := newTestCache(store)

	require.NoError(t, cache.Store(context.Background(), "How to export IFC?", "use the export dialog"))

	// Deleting the row must also evict the LRU entry, otherwise the stale
	// response keeps serving until the TTL runs out.
	require.NoError(t, cache.Delete(context.Background(), 1))

	_, ok, err := cache.Lookup(context.Background(), "how to export ifc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheDeleteUnknownID(t *testing.T) {
	cache := newTestCache(&fakeCacheStore{})

	err := cache.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, ErrCacheEntryNotFound)
}

func TestCacheEmptyQueryNeverMatches(t *testing.T) {
	cache := newTestCache(&fakeCacheStore{})

	require.NoError(t, cache.Store(context.Background(), "   ", "nothing"))
	_, ok, err := cache.Lookup(context.Background(), "!!!")
	require.NoError(t, err)
	assert.False(t, ok)
}
