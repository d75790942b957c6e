package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/shared/metrics"
	"skillgap-backend/internal/shared/server/respond"
)

// SlidingWindowLimiter tracks request timestamps per key and allows a
// request when fewer than Limit prior requests fall inside the trailing
// window. State is in-memory only and lost on restart; the limiter is
// advisory abuse prevention, not a correctness guarantee.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	history map[string][]time.Time
	now     func() time.Time
}

// NewSlidingWindowLimiter builds a limiter. now may be nil for wall clock.
func NewSlidingWindowLimiter(limit int, window time.Duration, now func() time.Time) *SlidingWindowLimiter {
	if now == nil {
		now = time.Now
	}
	return &SlidingWindowLimiter{
		limit:   limit,
		window:  window,
		history: make(map[string][]time.Time),
		now:     now,
	}
}

// Allow reports whether a request for key may proceed and, when denied,
// how long until the oldest counted timestamp leaves the window.
// On allow the current timestamp is recorded.
func (l *SlidingWindowLimiter) Allow(key string) (bool, time.Duration) {
	if l == nil || l.limit <= 0 || l.window <= 0 {
		return true, 0
	}

	now := l.now()
	windowStart := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.history[key][:0]
	for _, t := range l.history[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.limit {
		l.history[key] = recent
		retryAfter := recent[0].Add(l.window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	l.history[key] = append(recent, now)
	l.pruneLocked(windowStart)
	return true, 0
}

// pruneLocked drops keys whose newest timestamp fell out of the window.
// Keeps the map from growing over process lifetime.
func (l *SlidingWindowLimiter) pruneLocked(windowStart time.Time) {
	for key, times := range l.history {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(l.history, key)
		}
	}
}

// RateLimit denies requests over the per-key sliding window. The key is
// the authenticated user ID when present, otherwise the client IP.
func RateLimit(limiter *SlidingWindowLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "uid:" + UserIDFromContext(c)
		if key == "uid:" {
			key = "ip:" + c.ClientIP()
		}

		allowed, retryAfter := limiter.Allow(key)
		if allowed {
			c.Next()
			return
		}

		metrics.IncRateLimited()
		retrySeconds := int(math.Ceil(retryAfter.Seconds()))
		if retrySeconds <= 0 {
			retrySeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retrySeconds))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.", map[string]any{
			"retry_after": retrySeconds,
		})
	}
}
