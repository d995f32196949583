package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:"

// RevocationStore remembers revoked token IDs until they would have expired.
// It writes to Redis when available and always keeps an in-process copy.
type RevocationStore struct {
	rdb *redis.Client

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewRevocationStore returns a store backed by rdb (which may be nil).
func NewRevocationStore(rdb *redis.Client) *RevocationStore {
	return &RevocationStore{rdb: rdb, revoked: make(map[string]time.Time)}
}

// Revoke blacklists jti for ttl. A non-positive ttl is a no-op.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	s.revoked[jti] = time.Now().Add(ttl)
	s.gcLocked()
	s.mu.Unlock()

	if s.rdb == nil {
		return nil
	}
	return s.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti has been revoked and not yet expired.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}

	s.mu.Lock()
	exp, ok := s.revoked[jti]
	s.mu.Unlock()
	if ok && time.Now().Before(exp) {
		return true
	}

	if s.rdb == nil {
		return false
	}
	n, err := s.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	return err == nil && n > 0
}

func (s *RevocationStore) gcLocked() {
	now := time.Now()
	for k, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, k)
		}
	}
}
