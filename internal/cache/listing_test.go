package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestListing(t *testing.T) (*Listing, Store) {
	t.Helper()
	store, err := New("memory", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewListing(store, time.Minute, time.Minute), store
}

type fakePage struct {
	Items []string `json:"items"`
	Total int      `json:"total"`
}

func TestListingReadThrough(t *testing.T) {
	ctx := context.Background()
	listing, _ := newTestListing(t)
	params := map[string]int{"page": 1, "limit": 20}

	var miss fakePage
	require.False(t, listing.Get(ctx, ClassList, "owner-1", params, &miss))

	listing.Set(ctx, ClassList, "owner-1", params, fakePage{Items: []string{"c1", "c2"}, Total: 2})

	var hit fakePage
	require.True(t, listing.Get(ctx, ClassList, "owner-1", params, &hit))
	require.Equal(t, 2, hit.Total)
	require.Equal(t, []string{"c1", "c2"}, hit.Items)
}

func TestListingKeysScopedByOwnerAndParams(t *testing.T) {
	ctx := context.Background()
	listing, _ := newTestListing(t)
	params := map[string]int{"page": 1}

	listing.Set(ctx, ClassList, "owner-1", params, fakePage{Total: 1})

	var other fakePage
	require.False(t, listing.Get(ctx, ClassList, "owner-2", params, &other), "another owner must not see the entry")
	require.False(t, listing.Get(ctx, ClassList, "owner-1", map[string]int{"page": 2}, &other), "different params must not collide")
	require.False(t, listing.Get(ctx, ClassRecent, "owner-1", params, &other), "classes are distinct key spaces")
}

func TestListingInvalidateForcesMiss(t *testing.T) {
	ctx := context.Background()
	listing, _ := newTestListing(t)
	params := map[string]int{"page": 1}

	listing.Set(ctx, ClassList, "owner-1", params, fakePage{Total: 1})
	var before fakePage
	require.True(t, listing.Get(ctx, ClassList, "owner-1", params, &before))

	listing.Invalidate(ctx, "owner-1")

	var after fakePage
	require.False(t, listing.Get(ctx, ClassList, "owner-1", params, &after), "read after write must repopulate from the store of record")
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	store, err := New("memory", map[string]interface{}{"size": 16})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 20*time.Millisecond))
	_, hit, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)

	time.Sleep(40 * time.Millisecond)
	_, hit, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, hit, "entry must expire after its TTL")
}
