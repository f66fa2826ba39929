package termcache

import (
	"context"
	"testing"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	// The `cache=shared` is crucial for sharing the connection across
	// different calls to `sql.Open` within the same process.
	store, err := NewStore("file:testcache?mode=memory&cache=shared")
	require.NoError(t, err)

	cleanup := func() {
		err := store.Close()
		assert.NoError(t, err)
	}
	return store, cleanup
}

func TestStorePutAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	defs := []apptype.Definition{
		{Source: "MSH", Text: "A reduction in red blood cells."},
		{Source: "NCI", Text: "Low hemoglobin concentration."},
	}
	require.NoError(t, store.PutDefinitions(ctx, "C0002871", defs))

	got, hit, err := store.GetDefinitions(ctx, "C0002871")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, defs, got)
}

func TestStoreMissIsNotAnError(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, hit, err := store.GetDefinitions(context.Background(), "C9999999")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, got)
}

func TestStoreCachesZeroDefinitions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.PutDefinitions(ctx, "C0000001", nil))

	got, hit, err := store.GetDefinitions(ctx, "C0000001")
	require.NoError(t, err)
	assert.True(t, hit, "a concept known to have no definitions still hits")
	assert.Empty(t, got)
}

func TestStoreReplacesStaleDefinitions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.PutDefinitions(ctx, "C1", []apptype.Definition{
		{Source: "OLD", Text: "outdated"},
	}))
	require.NoError(t, store.PutDefinitions(ctx, "C1", []apptype.Definition{
		{Source: "MSH", Text: "current"},
	}))

	got, hit, err := store.GetDefinitions(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, "current", got[0].Text)
}

func TestStoreRejectsEmptyCUI(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.PutDefinitions(context.Background(), "", nil)
	require.Error(t, err)
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_, hit, err := cache.GetDefinitions(ctx, "C1")
	require.NoError(t, err)
	assert.False(t, hit)

	defs := []apptype.Definition{{Source: "MSH", Text: "something"}}
	require.NoError(t, cache.PutDefinitions(ctx, "C1", defs))

	got, hit, err := cache.GetDefinitions(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, defs, got)

	// The cache hands out copies; mutating the result must not corrupt
	// the stored entry.
	got[0].Text = "mutated"
	again, _, err := cache.GetDefinitions(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "something", again[0].Text)
}
