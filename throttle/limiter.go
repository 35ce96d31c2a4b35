// Package throttle implements fixed-window per-key rate limiting over an
// injected counter store. Counting requests per key within a fixed time
// bucket that resets wholesale keeps the state cheap: one counter and one
// reset timestamp per key.
package throttle

import (
	"context"
	"log/slog"
	"time"

	"github.com/merchantkit/shopguard/storage"
)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	// Allowed is false when the key has exceeded its window budget.
	Allowed bool

	// Remaining is how many requests are left in the current window.
	Remaining int64

	// RetryAfter is how long until the window resets. Only meaningful when
	// the request was rejected.
	RetryAfter time.Duration
}

// Limiter counts requests per key in fixed windows.
type Limiter struct {
	store       storage.WindowStore
	maxRequests int64
	window      time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewLimiter creates a fixed-window rate limiter. maxRequests is the budget
// per key per window.
func NewLimiter(store storage.WindowStore, maxRequests int64, window time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		store:       store,
		maxRequests: maxRequests,
		window:      window,
		logger:      logger,
		now:         time.Now,
	}
}

// Allow records one request for the key and decides whether it is within the
// window budget. The store assigns each key's window lazily on first hit and
// resets it once the window elapses.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	w, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return Decision{}, err
	}

	remaining := l.maxRequests - w.Count
	if remaining < 0 {
		remaining = 0
	}

	if w.Count > l.maxRequests {
		retryAfter := w.ResetAt.Sub(l.now())
		if retryAfter < 0 {
			retryAfter = 0
		}
		l.logger.Debug("rate limit exceeded",
			"key", key,
			"count", w.Count,
			"max_requests", l.maxRequests,
			"retry_after", retryAfter)
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
	}

	return Decision{Allowed: true, Remaining: remaining}, nil
}

// MaxRequests returns the per-window budget.
func (l *Limiter) MaxRequests() int64 { return l.maxRequests }

// Window returns the window duration.
func (l *Limiter) Window() time.Duration { return l.window }
