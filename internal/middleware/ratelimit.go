package middleware

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"chatapp/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen falls back to an in-process limiter if Redis errors.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis errors.
	FailClosed
)

// RateLimitBypassed reports whether limits are disabled for the current APP_ENV.
func RateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// CheckRateLimit checks if a resource has exceeded its rate limit.
// Returns true if allowed, false if limit exceeded.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if RateLimitBypassed() {
		return true, nil
	}
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// localLimiter is a per-key token bucket used when Redis is unreachable.
type localLimiter struct {
	mu       sync.Mutex
	limit    int
	every    rate.Limit
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	return &localLimiter{
		limit:    limit,
		every:    rate.Every(window / time.Duration(limit)),
		visitors: make(map[string]*visitor),
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.limit)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	// Drop idle visitors opportunistically so the map stays bounded.
	if len(l.visitors) > 10000 {
		for k, other := range l.visitors {
			if now.Sub(other.lastSeen) > time.Hour {
				delete(l.visitors, k)
			}
		}
	}

	return v.limiter.Allow()
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`.
// It keys by authenticated userID (if set in c.Locals("userID")) otherwise by remote IP.
// It defaults to FailOpen policy.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	fallback := newLocalLimiter(limit, window)

	return func(c *fiber.Ctx) error {
		if RateLimitBypassed() {
			return c.Next()
		}

		var id string
		if uid, ok := c.Locals("userID").(string); ok && uid != "" {
			id = "user:" + uid
		} else {
			id = "ip:" + c.IP()
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		var allowed bool
		var err error
		if rdb != nil {
			allowed, err = CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		}
		if rdb == nil || err != nil {
			if err != nil {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
					"resource", resource, "error", err.Error())
			}
			if policy == FailClosed {
				return models.Respond(c, fiber.StatusServiceUnavailable, "Rate limit unavailable", nil)
			}
			allowed = fallback.allow(resource + ":" + id)
		}

		if !allowed {
			return models.Respond(c, fiber.StatusTooManyRequests, "Too many requests, please try again later", nil)
		}
		return c.Next()
	}
}
