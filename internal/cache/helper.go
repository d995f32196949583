package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key layout and TTLs.
const (
	UserProfileKeyPrefix = "user:%s:profile"
	UserProfileTTL       = 5 * time.Minute
)

// UserProfileKey is the cache key for a user's serialized profile.
func UserProfileKey(userID string) string {
	return fmt.Sprintf(UserProfileKeyPrefix, userID)
}

// Cache is a JSON cache on top of Redis. A nil client turns every call into a
// miss so callers never need to branch on Redis availability.
type Cache struct {
	rdb *redis.Client
}

// New returns a Cache over rdb (which may be nil).
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// GetJSON reads key into dest. It reports whether the key was found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key for ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside serves dest from Redis, or calls fetch to fill it and stores the
// result. Redis failures fall through to fetch.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := c.GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	_ = c.SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate deletes key, ignoring errors.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, key)
}
