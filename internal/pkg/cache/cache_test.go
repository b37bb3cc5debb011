package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
}

func TestMemoryStore_PutGetForget(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Put(ctx, "k1", payload{Name: "override", Minutes: 45}, time.Minute)
	require.NoError(t, err)

	var got payload
	found, err := store.Get(ctx, "k1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "override", Minutes: 45}, got)

	require.NoError(t, store.Forget(ctx, "k1"))
	found, err = store.Get(ctx, "k1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	now := base
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Put(ctx, "k1", payload{Minutes: 1}, 5*time.Minute))

	var got payload
	found, _ := store.Get(ctx, "k1", &got)
	assert.True(t, found)

	now = base.Add(6 * time.Minute)
	found, _ = store.Get(ctx, "k1", &got)
	assert.False(t, found)
}

func TestRedisStore_PutGetForget(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "attendance")

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "tolerance:resolved:u1", payload{Name: "user_setting", Minutes: 30}, time.Minute))

	var got payload
	found, err := store.Get(ctx, "tolerance:resolved:u1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 30, got.Minutes)

	// Keys are namespaced by the prefix
	assert.True(t, mr.Exists("attendance:tolerance:resolved:u1"))

	require.NoError(t, store.Forget(ctx, "tolerance:resolved:u1"))
	found, err = store.Get(ctx, "tolerance:resolved:u1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "")

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "k", payload{}, 5*time.Minute))

	mr.FastForward(6 * time.Minute)

	var got payload
	found, err := store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
