package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/w4b_v3/server/analytics/internal/cache"
)

func seed(t *testing.T, c cache.Service, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, c.Set(context.Background(), key, "{}", time.Minute))
	}
}

func exists(c cache.Service, key string) bool {
	_, ok, _ := c.Get(context.Background(), key)
	return ok
}

func TestInvalidateController(t *testing.T) {
	store := cache.NewMemoryCache()
	c1Report := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixSingleMetric, "c1"), map[string]any{"metric": "temperature"})
	c2Report := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixSingleMetric, "c2"), map[string]any{"metric": "temperature"})
	multi := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixMultiReport, ""), map[string]any{"controllers": []string{"c1", "c2"}})
	history := cache.GenerateKey(cache.ScopedPrefix(cache.PrefixHistorical, ""), map[string]any{"limit": 10})
	seed(t, store, c1Report, c2Report, multi, history)

	svc := New(store)
	invalidated := make(chan string, 1)
	svc.OnCleanup(EventInvalidated, func(id string) { invalidated <- id })

	n, err := svc.InvalidateController(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, exists(store, c1Report))
	assert.False(t, exists(store, multi))
	assert.False(t, exists(store, history))
	assert.True(t, exists(store, c2Report))

	select {
	case id := <-invalidated:
		assert.Equal(t, "c1", id)
	case <-time.After(time.Second):
		t.Fatal("invalidation event not emitted")
	}
}

func TestInvalidateControllerRequiresID(t *testing.T) {
	_, err := New(cache.NewMemoryCache()).InvalidateController(context.Background(), "")
	assert.Error(t, err)
}

func TestInvalidateAll(t *testing.T) {
	store := cache.NewMemoryCache()
	seed(t, store, "analytics:latest:c1:", "analytics:trend_analysis:c2:metric=temperature", "other:key")

	svc := New(store)
	flushed := make(chan string, 1)
	svc.OnCleanup(EventFlushed, func(id string) { flushed <- id })

	n, err := svc.InvalidateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, exists(store, "other:key"))

	select {
	case <-flushed:
	case <-time.After(time.Second):
		t.Fatal("flush event not emitted")
	}
}
