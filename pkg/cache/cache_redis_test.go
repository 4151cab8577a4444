package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priestd09/sourcegraph/pkg/cache"
)

type payload struct {
	ID   int64  `json:"id"`
	Kind string `json:"kind"`
}

func newRedisCache(t *testing.T) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})

	c, err := cache.NewRedis(cache.RedisConfig{Client: client})
	require.NoError(t, err)
	return c, srv
}

func TestRedisSetGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t)

	in := payload{ID: 7, Kind: "GITHUB"}
	require.NoError(t, c.SetExp(ctx, "extsvc:7", in, time.Minute))

	var out payload
	require.NoError(t, c.GetAs(ctx, "extsvc:7", &out))
	assert.Equal(t, in, out)
}

func TestRedisGetMissing(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t)

	var out payload
	err := c.GetAs(ctx, "extsvc:404", &out)
	assert.ErrorIs(t, err, cache.ErrKeyNotExist)
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	c, srv := newRedisCache(t)

	require.NoError(t, c.SetExp(ctx, "extsvc:9", payload{ID: 9}, time.Second))
	srv.FastForward(2 * time.Second)

	var out payload
	err := c.GetAs(ctx, "extsvc:9", &out)
	assert.ErrorIs(t, err, cache.ErrKeyNotExist)
}

func TestRedisDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t)

	require.NoError(t, c.SetExp(ctx, "extsvc:3", payload{ID: 3}, time.Minute))
	require.NoError(t, c.Delete(ctx, "extsvc:3"))

	var out payload
	assert.ErrorIs(t, c.GetAs(ctx, "extsvc:3", &out), cache.ErrKeyNotExist)
}

func TestInMemRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMem(32 * 1024 * 1024)

	in := payload{ID: 1, Kind: "GITLAB"}
	require.NoError(t, c.SetExp(ctx, "extsvc:1", in, time.Minute))

	var out payload
	require.NoError(t, c.GetAs(ctx, "extsvc:1", &out))
	assert.Equal(t, in, out)

	require.NoError(t, c.Delete(ctx, "extsvc:1"))
	assert.ErrorIs(t, c.GetAs(ctx, "extsvc:1", &out), cache.ErrKeyNotExist)
}
