package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/merchantkit/shopguard/storage"
	"github.com/merchantkit/shopguard/storage/memory"
)

func newTestLimiter(t *testing.T, max int64, window time.Duration) *Limiter {
	t.Helper()
	store := memory.NewWindowStore(memory.Config{})
	t.Cleanup(store.Stop)
	return NewLimiter(store, max, window, nil)
}

func TestLimiter_AllowSequence(t *testing.T) {
	l := newTestLimiter(t, 3, time.Second)
	ctx := context.Background()

	// maxRequests = 3: allow, allow, allow, reject.
	for i := 1; i <= 3; i++ {
		d, err := l.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Allow() #%d error = %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("Allow() #%d = rejected, want allowed", i)
		}
		if want := int64(3 - i); d.Remaining != want {
			t.Errorf("Allow() #%d remaining = %d, want %d", i, d.Remaining, want)
		}
	}

	d, err := l.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed {
		t.Error("Allow() #4 = allowed, want rejected")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Second {
		t.Errorf("RetryAfter = %v, want within (0, 1s]", d.RetryAfter)
	}
}

func TestLimiter_WindowReset(t *testing.T) {
	l := newTestLimiter(t, 3, 60*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := l.Allow(ctx, "k"); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(80 * time.Millisecond)

	d, err := l.Allow(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Error("request after window elapsed should be allowed")
	}
	if d.Remaining != 2 {
		t.Errorf("remaining after reset = %d, want 2", d.Remaining)
	}
}

func TestLimiter_IndependentKeys(t *testing.T) {
	l := newTestLimiter(t, 1, time.Second)
	ctx := context.Background()

	if d, _ := l.Allow(ctx, "a"); !d.Allowed {
		t.Fatal("first request for key a should be allowed")
	}
	if d, _ := l.Allow(ctx, "a"); d.Allowed {
		t.Fatal("second request for key a should be rejected")
	}
	if d, _ := l.Allow(ctx, "b"); !d.Allowed {
		t.Error("key b must not be affected by key a's window")
	}
}

type failingWindowStore struct{}

func (failingWindowStore) Incr(context.Context, string, time.Duration) (storage.Window, error) {
	return storage.Window{}, errors.New("store unavailable")
}

func TestLimiter_StoreError(t *testing.T) {
	l := NewLimiter(failingWindowStore{}, 3, time.Second, nil)

	if _, err := l.Allow(context.Background(), "k"); err == nil {
		t.Error("Allow() should surface store errors to the caller")
	}
}
