package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dispersa-mx/spei_ledger/internal/platform/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both backends must behave identically; the webhook gateway treats them
// interchangeably.
func runStoreContract(t *testing.T, store cache.Store, advance func(d time.Duration)) {
	ctx := context.Background()

	t.Run("SetNX wins only once", func(t *testing.T) {
		created, err := store.SetNX(ctx, "dedup:deposit:TRK1", "1", time.Minute)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.SetNX(ctx, "dedup:deposit:TRK1", "1", time.Minute)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("Get distinguishes absent from present", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.SetNX(ctx, "present", "v", time.Minute)
		require.NoError(t, err)
		val, ok, err := store.Get(ctx, "present")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", val)
	})

	t.Run("entries expire", func(t *testing.T) {
		_, err := store.SetNX(ctx, "ephemeral", "v", 50*time.Millisecond)
		require.NoError(t, err)
		advance(100 * time.Millisecond)
		_, ok, err := store.Get(ctx, "ephemeral")
		require.NoError(t, err)
		assert.False(t, ok)
	})

}

func TestMemoryStore(t *testing.T) {
	store := cache.NewMemoryStore()
	runStoreContract(t, store, func(d time.Duration) {
		time.Sleep(d)
	})
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := cache.NewRedisStoreFromClient(client)

	runStoreContract(t, store, func(d time.Duration) {
		mr.FastForward(d)
	})
}
