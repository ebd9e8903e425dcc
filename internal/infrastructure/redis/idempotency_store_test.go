package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/application/ports"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/redis"
)

func newStore(t *testing.T) (*redis.IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewIdempotencyStore(client), mr
}

func TestReserveCompleteGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	ok, err := store.Reserve(ctx, "k1", "hash-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "k1", "hash-a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "segunda reserva de la misma llave")

	entry, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.False(t, entry.Completed)
	assert.Equal(t, "hash-a", entry.RequestHash)

	require.NoError(t, store.Complete(ctx, "k1", ports.IdempotentResponse{RequestHash: "hash-a", StatusCode: 201, Body: []byte(`{"id":"x"}`)}, time.Minute))
	entry, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, entry.Completed)
	assert.Equal(t, 201, entry.StatusCode)
	assert.JSONEq(t, `{"id":"x"}`, string(entry.Body))
}

func TestReleaseYExpiracion(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	_, err := store.Reserve(ctx, "k2", "h", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k2"))
	entry, err := store.Get(ctx, "k2")
	require.NoError(t, err)
	assert.Nil(t, entry)

	ok, err := store.Reserve(ctx, "k3", "h", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	mr.FastForward(2 * time.Second)
	entry, err = store.Get(ctx, "k3")
	require.NoError(t, err)
	assert.Nil(t, entry, "la llave expira con su TTL")
}
