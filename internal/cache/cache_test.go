package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestAsideFetchesOnceThenServesFromRedis(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := New(rdb)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *profile) func() error {
		return func() error {
			calls++
			*dest = profile{ID: "user-1", Name: "Ann"}
			return nil
		}
	}

	var first profile
	require.NoError(t, c.Aside(ctx, UserProfileKey("user-1"), &first, time.Minute, fetch(&first)))
	assert.Equal(t, "Ann", first.Name)
	assert.True(t, mr.Exists("user:user-1:profile"))

	var second profile
	require.NoError(t, c.Aside(ctx, UserProfileKey("user-1"), &second, time.Minute, fetch(&second)))
	assert.Equal(t, "Ann", second.Name)
	assert.Equal(t, 1, calls)

	c.Invalidate(ctx, UserProfileKey("user-1"))
	assert.False(t, mr.Exists("user:user-1:profile"))
}

func TestAsidePropagatesFetchError(t *testing.T) {
	_, rdb := newTestRedis(t)
	c := New(rdb)

	var p profile
	err := c.Aside(context.Background(), "k", &p, time.Minute, func() error { return errors.New("db down") })
	assert.EqualError(t, err, "db down")
}

func TestNilCacheIsAlwaysAMiss(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	found, err := c.GetJSON(ctx, "k", &profile{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.SetJSON(ctx, "k", profile{}, time.Minute))

	var p profile
	require.NoError(t, c.Aside(ctx, "k", &p, time.Minute, func() error {
		p.Name = "fresh"
		return nil
	}))
	assert.Equal(t, "fresh", p.Name)
}

func TestRevocationStore(t *testing.T) {
	t.Run("redis backed", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		s := NewRevocationStore(rdb)
		ctx := context.Background()

		require.NoError(t, s.Revoke(ctx, "jti-1", time.Hour))
		assert.True(t, s.IsRevoked(ctx, "jti-1"))
		assert.True(t, mr.Exists("blacklist:jti-1"))
		assert.Equal(t, time.Hour, mr.TTL("blacklist:jti-1"))

		// A second instance sharing Redis sees the revocation.
		other := NewRevocationStore(rdb)
		assert.True(t, other.IsRevoked(ctx, "jti-1"))
		assert.False(t, other.IsRevoked(ctx, "jti-2"))
	})

	t.Run("memory fallback", func(t *testing.T) {
		s := NewRevocationStore(nil)
		ctx := context.Background()

		require.NoError(t, s.Revoke(ctx, "jti-1", time.Hour))
		assert.True(t, s.IsRevoked(ctx, "jti-1"))
		assert.False(t, s.IsRevoked(ctx, ""))

		require.NoError(t, s.Revoke(ctx, "jti-expired", -time.Second))
		assert.False(t, s.IsRevoked(ctx, "jti-expired"))
	})
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	InitRedis("redis://" + mr.Addr())
	require.NotNil(t, GetClient())
	_ = GetClient().Close()

	InitRedis("")
	assert.Nil(t, GetClient())

	InitRedis("redis://%zz")
	assert.Nil(t, GetClient())
}
