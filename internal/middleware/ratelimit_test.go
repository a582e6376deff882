package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRateLimiterAllow enforces the fixed window and resets after it.
func TestRateLimiterAllow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRateLimiter(RateLimitConfig{Window: time.Minute, Max: 3})
	r.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, _ := r.Allow("1.2.3.4:/api/v1/donations")
		assert.True(t, ok)
	}
	ok, wait := r.Allow("1.2.3.4:/api/v1/donations")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	// A different key has its own window.
	ok, _ = r.Allow("5.6.7.8:/api/v1/donations")
	assert.True(t, ok)

	// The window rolling over admits the key again.
	now = now.Add(time.Minute)
	ok, _ = r.Allow("1.2.3.4:/api/v1/donations")
	assert.True(t, ok)
}

// TestRateLimiterHandler returns 429 with a Retry-After header once over quota.
func TestRateLimiterHandler(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{Window: time.Minute, Max: 1})
	app := fiber.New()
	app.Post("/api/v1/donations", r.Handler(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	req := httptest.NewRequest("POST", "/api/v1/donations", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/api/v1/donations", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

// TestRateLimiterEviction drops only expired entries when the map is full.
func TestRateLimiterEviction(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRateLimiter(RateLimitConfig{Window: time.Minute, Max: 5})
	r.now = func() time.Time { return now }

	r.entries["stale"] = &rateLimitEntry{count: 5, resetTime: now.Add(-time.Second)}
	r.entries["live"] = &rateLimitEntry{count: 5, resetTime: now.Add(30 * time.Second)}

	r.evictExpiredLocked(now)
	assert.NotContains(t, r.entries, "stale")
	assert.Contains(t, r.entries, "live")
}
