// Package bruteforce implements a per-identity failed-attempt counter with a
// cool-down lockout, scoped to sensitive endpoints such as login and
// registration.
//
// Counting happens on every request to a guarded path, before credentials
// are checked, so successful logins increment the counter too. That behavior
// is deliberate defense against credential-stuffing bursts; deployments that
// would rather not penalize legitimate rapid logins can clear the counter on
// success with Reset.
package bruteforce

import (
	"context"
	"log/slog"
	"time"

	"github.com/merchantkit/shopguard/storage"
)

// Decision is the outcome of one guarded attempt.
type Decision struct {
	// Allowed is false while the identity is locked out.
	Allowed bool

	// Attempts is the current attempt count for the identity.
	Attempts int64

	// RetryAfter is how long until the lockout elapses. Only meaningful when
	// the attempt was rejected.
	RetryAfter time.Duration
}

// Guard tracks attempts per identity and locks out identities that exceed
// the threshold until the cool-down elapses.
type Guard struct {
	store       storage.AttemptStore
	maxAttempts int64
	lockout     time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewGuard creates a brute-force guard. After maxAttempts attempts within
// the lockout period, further attempts are rejected until the period has
// elapsed since the last counted attempt.
func NewGuard(store storage.AttemptStore, maxAttempts int64, lockout time.Duration, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		store:       store,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		logger:      logger,
		now:         time.Now,
	}
}

// Attempt records one attempt for the key and decides whether it may
// proceed. Rejected attempts do not refresh the record's timestamp, so a
// lockout always elapses lockout-duration after the last counted attempt,
// even under a constant retry stream.
func (g *Guard) Attempt(ctx context.Context, key string) (Decision, error) {
	now := g.now()

	attempt, found, err := g.store.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}

	if !found {
		attempt = storage.Attempt{Count: 1, LastAttemptAt: now}
		if err := g.store.Put(ctx, key, attempt); err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: true, Attempts: 1}, nil
	}

	if attempt.Count >= g.maxAttempts {
		elapsed := now.Sub(attempt.LastAttemptAt)
		if elapsed < g.lockout {
			retryAfter := g.lockout - elapsed
			g.logger.Debug("attempt rejected during lockout",
				"key", key,
				"attempts", attempt.Count,
				"retry_after", retryAfter)
			return Decision{Allowed: false, Attempts: attempt.Count, RetryAfter: retryAfter}, nil
		}
		// Lockout elapsed: the counter starts over with this attempt.
		attempt.Count = 0
	}

	attempt.Count++
	attempt.LastAttemptAt = now
	if err := g.store.Put(ctx, key, attempt); err != nil {
		return Decision{}, err
	}

	return Decision{Allowed: true, Attempts: attempt.Count}, nil
}

// Reset clears the attempt record for a key. Called by login flows that are
// configured not to count successful attempts.
func (g *Guard) Reset(ctx context.Context, key string) error {
	return g.store.Reset(ctx, key)
}

// MaxAttempts returns the lockout threshold.
func (g *Guard) MaxAttempts() int64 { return g.maxAttempts }

// Lockout returns the cool-down duration.
func (g *Guard) Lockout() time.Duration { return g.lockout }
