package metadata

import (
	"context"
	"testing"

	"github.com/soltixdb/clusterview/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	value, err := store.Get(ctx, "/missing")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.Put(ctx, "/p/a", "1"))
	require.NoError(t, store.Put(ctx, "/p/b", "2"))
	require.NoError(t, store.Put(ctx, "/q/c", "3"))

	value, err = store.Get(ctx, "/p/a")
	require.NoError(t, err)
	assert.Equal(t, "1", value)

	all, err := store.GetPrefix(ctx, "/p/")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/p/a": "1", "/p/b": "2"}, all)

	require.NoError(t, store.Delete(ctx, "/p/a"))
	all, err = store.GetPrefix(ctx, "/p/")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.NoError(t, store.Close())
}

func TestNewStore_Backends(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Backend = "memory"

	store, err := NewStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	cfg.Store.Backend = "zookeeper"
	_, err = NewStore(cfg)
	assert.Error(t, err)
}
