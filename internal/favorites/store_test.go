package favorites

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb), mr
}

func TestAddAndList(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "7", Item{ID: "p-1", Type: "project", Title: "Residencial Aurora"}))
	require.NoError(t, store.Add(ctx, "7", Item{ID: "p-2", Type: "project", Title: "Vila Verde", Subtitle: "Fortaleza"}))

	items, err := store.List(ctx, "7")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p-1", items[0].ID)
	assert.Equal(t, "Vila Verde", items[1].Title)
}

func TestAddDeduplicatesByID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "7", Item{ID: "p-1", Type: "project", Title: "Residencial Aurora"}))
	require.NoError(t, store.Add(ctx, "7", Item{ID: "p-1", Type: "project", Title: "Residencial Aurora II"}))

	items, err := store.List(ctx, "7")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Residencial Aurora II", items[0].Title)
}

func TestRemove(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "7", Item{ID: "p-1", Type: "project", Title: "Residencial Aurora"}))
	require.NoError(t, store.Remove(ctx, "7", "p-1"))
	require.NoError(t, store.Remove(ctx, "7", "missing"))

	items, err := store.List(ctx, "7")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFavoritesAreScopedPerUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "7", Item{ID: "p-1", Type: "project", Title: "Residencial Aurora"}))

	items, err := store.List(ctx, "8")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStoredDocumentShape(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "7", Item{ID: "p-1", Type: "project", Title: "Residencial Aurora"}))

	raw, err := mr.Get("favorites:7")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.Contains(t, doc, "items")
}

func TestCorruptDocumentTreatedAsEmpty(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("favorites:7", "not-json"))

	items, err := store.List(ctx, "7")
	require.NoError(t, err)
	assert.Empty(t, items)
}
