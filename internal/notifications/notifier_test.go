package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "notifications:user:user-1", UserChannel("user-1"))
}

func TestNotifier_WithoutRedisDeliversLocally(t *testing.T) {
	hub := NewHub()
	c := attach(t, hub, "user-b")

	n := NewNotifier(nil, hub)
	require.NoError(t, n.PublishEvent(context.Background(), "user-b", EventMessageCreated, map[string]string{"id": "message-1"}))

	ev := receive(t, c)
	assert.Equal(t, EventMessageCreated, ev.Event)
	assert.Equal(t, map[string]any{"id": "message-1"}, ev.Data)
}

func TestNotifier_NoopWithoutRedisOrHub(t *testing.T) {
	n := NewNotifier(nil, nil)
	assert.NoError(t, n.PublishEvent(context.Background(), "user-b", EventEcho, "x"))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestNotifier_RedisFanOut(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub()
	c := attach(t, hub, "user-b")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewNotifier(rdb, hub)
	require.NoError(t, hub.StartWiring(ctx, n))

	require.NoError(t, n.PublishEvent(ctx, "user-b", EventFriendRequestReceived, "user-a"))
	ev := receive(t, c)
	assert.Equal(t, EventFriendRequestReceived, ev.Event)
	assert.Equal(t, "user-a", ev.Data)
	assert.Empty(t, c.Send, "delivered once through redis, not also locally")
}

func TestNotifier_RedisDownFallsBackToHub(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	hub := NewHub()
	c := attach(t, hub, "user-b")

	n := NewNotifier(rdb, hub)
	require.NoError(t, n.PublishEvent(context.Background(), "user-b", EventEcho, "still here"))
	assert.Equal(t, "still here", receive(t, c).Data)
}
