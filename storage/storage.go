// Package storage defines the counter-store interfaces used by the rate
// limiter and brute-force guard. Keeping the stores behind interfaces lets a
// multi-process deployment swap the in-memory maps for a shared external
// counter without changing call sites.
//
// Implementations are provided in subpackages:
//   - storage/memory: in-process maps with LRU bounding, for single-process deployments
//   - storage/valkey: Valkey/Redis-compatible distributed counters for multi-process deployments
package storage

import (
	"context"
	"time"
)

// Window is the state of one fixed rate-limit window. Count never exceeds the
// configured maximum without the limiter rejecting further requests; the
// window resets wholesale (count back to 1, new ResetAt) once ResetAt passes.
type Window struct {
	Count   int64
	ResetAt time.Time
}

// Attempt is the login-attempt record for one identity.
type Attempt struct {
	Count         int64
	LastAttemptAt time.Time
}

// WindowStore counts requests per key within fixed time buckets.
type WindowStore interface {
	// Incr records one hit against the key's current window and returns the
	// updated state. If no window exists, or the existing window has passed
	// its reset time, a fresh window is created with count 1.
	Incr(ctx context.Context, key string, window time.Duration) (Window, error)
}

// AttemptStore tracks failed-attempt records per identity for the
// brute-force guard. The guard performs read-modify-write on these records;
// cross-request atomicity is not required for a single-process deployment.
type AttemptStore interface {
	// Get returns the attempt record for a key. The second return value is
	// false when no record exists.
	Get(ctx context.Context, key string) (Attempt, bool, error)

	// Put stores the attempt record for a key.
	Put(ctx context.Context, key string, attempt Attempt) error

	// Reset removes the attempt record for a key.
	Reset(ctx context.Context, key string) error
}
