package middleware

import (
	"strconv"
	"sync"
	"time"

	"vitamend-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RateLimitConfig for the per-(ip,path) request quota.
type RateLimitConfig struct {
	Window  time.Duration
	Max     int
	Message string
}

// maxRateLimitEntries bounds the process-local map. When exceeded, expired
// entries are evicted in one pass; live entries are never dropped.
const maxRateLimitEntries = 10000

type rateLimitEntry struct {
	count     int
	resetTime time.Time
}

// RateLimiter is a process-local fixed-window limiter keyed by ip:path.
// Expired entries are evicted lazily on the key being read, not by a global
// sweep on every request. Multi-process deployments need a shared store;
// this limiter only bounds a single process.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	cfg     RateLimitConfig
	now     func() time.Time
}

// NewRateLimiter builds a limiter; zero config fields get safe defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Max <= 0 {
		cfg.Max = 20
	}
	if cfg.Message == "" {
		cfg.Message = "Too many requests"
	}
	return &RateLimiter{
		entries: make(map[string]*rateLimitEntry),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Allow records one request for key and reports whether it is within quota.
// The second return is the wait until the window resets when denied.
func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok || e.resetTime.Before(now) || e.resetTime.Equal(now) {
		if len(r.entries) >= maxRateLimitEntries {
			r.evictExpiredLocked(now)
		}
		r.entries[key] = &rateLimitEntry{count: 1, resetTime: now.Add(r.cfg.Window)}
		return true, 0
	}
	if e.count >= r.cfg.Max {
		return false, e.resetTime.Sub(now)
	}
	e.count++
	return true, 0
}

func (r *RateLimiter) evictExpiredLocked(now time.Time) {
	for k, e := range r.entries {
		if e.resetTime.Before(now) {
			delete(r.entries, k)
		}
	}
}

// Handler returns the Fiber middleware for this limiter.
func (r *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP() + ":" + c.Path()
		ok, retryAfter := r.Allow(key)
		if !ok {
			secs := int64(retryAfter.Seconds())
			if retryAfter > time.Duration(secs)*time.Second {
				secs++
			}
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(secs, 10))
			return response.Error(c, r.cfg.Message, fiber.StatusTooManyRequests, map[string]interface{}{
				"code": "RateLimited",
			})
		}
		return c.Next()
	}
}

// RateLimit is a convenience wrapper: build a limiter and return its handler.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	return NewRateLimiter(cfg).Handler()
}
