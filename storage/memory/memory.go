// Package memory provides in-process implementations of the storage
// interfaces. Entries are bounded with LRU eviction and swept by a background
// cleanup goroutine, preventing unbounded key growth from distinct client
// identities over the process lifetime.
package memory

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/merchantkit/shopguard/storage"
)

const (
	// DefaultMaxEntries is the maximum number of distinct keys tracked per store
	DefaultMaxEntries = 10000

	// DefaultCleanupInterval is how often the background sweep runs
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultSweepGracePeriod is how long past its reset/last-attempt time an
	// entry is kept before the sweep removes it
	DefaultSweepGracePeriod = 30 * time.Minute
)

// Config holds configuration shared by the memory-backed stores.
type Config struct {
	// MaxEntries bounds the number of distinct keys tracked simultaneously.
	// When the limit is reached, least recently used entries are evicted.
	// Zero means DefaultMaxEntries; negative means unlimited.
	MaxEntries int

	// CleanupInterval is how often stale entries are swept. Default 5 minutes.
	CleanupInterval time.Duration

	// SweepGracePeriod is how long an expired entry survives before the sweep
	// removes it. Default 30 minutes.
	SweepGracePeriod time.Duration

	// Logger is the optional structured logger (default: slog.Default())
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxEntries == 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	if c.MaxEntries < 0 {
		c.MaxEntries = 0 // unlimited
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if c.SweepGracePeriod <= 0 {
		c.SweepGracePeriod = DefaultSweepGracePeriod
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Stats holds store statistics for monitoring.
type Stats struct {
	CurrentEntries int     // Current number of tracked keys
	MaxEntries     int     // Maximum allowed entries (0 = unlimited)
	TotalEvictions int64   // Total number of LRU evictions
	TotalCleanups  int64   // Total number of cleanup sweeps that removed entries
	MemoryPressure float64 // Percentage of max capacity used (0-100)
}

// lruIndex is the shared map + LRU list machinery behind both stores.
// Must be used with the owning store's mutex held.
type lruIndex struct {
	elems      map[string]*list.Element
	lruList    *list.List
	maxEntries int

	totalEvictions int64
	totalCleanups  int64
}

func newLRUIndex(maxEntries int) *lruIndex {
	return &lruIndex{
		elems:      make(map[string]*list.Element),
		lruList:    list.New(),
		maxEntries: maxEntries,
	}
}

// touch moves an existing element to the front of the LRU list.
func (idx *lruIndex) touch(elem *list.Element) {
	idx.lruList.MoveToFront(elem)
}

// insert adds a new entry, evicting the least recently used one when at
// capacity. The evict callback receives the evicted entry's key.
func (idx *lruIndex) insert(key string, value any, onEvict func(key string)) *list.Element {
	if idx.maxEntries > 0 && len(idx.elems) >= idx.maxEntries {
		if back := idx.lruList.Back(); back != nil {
			evictedKey := idx.lruList.Remove(back).(keyed).lruKey()
			delete(idx.elems, evictedKey)
			idx.totalEvictions++
			if onEvict != nil {
				onEvict(evictedKey)
			}
		}
	}

	elem := idx.lruList.PushFront(value)
	idx.elems[key] = elem
	return elem
}

// keyed is implemented by entries stored in the LRU list.
type keyed interface {
	lruKey() string
}

// ============================================================
// WindowStore
// ============================================================

type windowEntry struct {
	key     string
	count   int64
	resetAt time.Time
}

func (e *windowEntry) lruKey() string { return e.key }

// WindowStore is an in-memory fixed-window counter store.
type WindowStore struct {
	mu     sync.Mutex
	index  *lruIndex
	cfg    Config
	logger *slog.Logger

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

var _ storage.WindowStore = (*WindowStore)(nil)

// NewWindowStore creates an in-memory window store with LRU bounding and a
// background sweep of stale windows.
func NewWindowStore(cfg Config) *WindowStore {
	cfg = cfg.withDefaults()
	s := &WindowStore{
		index:       newLRUIndex(cfg.MaxEntries),
		cfg:         cfg,
		logger:      cfg.Logger,
		stopCleanup: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Incr implements storage.WindowStore.
func (s *WindowStore) Incr(_ context.Context, key string, window time.Duration) (storage.Window, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.index.elems[key]; ok {
		s.index.touch(elem)
		entry := elem.Value.(*windowEntry)
		if now.After(entry.resetAt) {
			entry.count = 1
			entry.resetAt = now.Add(window)
		} else {
			entry.count++
		}
		return storage.Window{Count: entry.count, ResetAt: entry.resetAt}, nil
	}

	entry := &windowEntry{key: key, count: 1, resetAt: now.Add(window)}
	s.index.insert(key, entry, func(evicted string) {
		s.logger.Debug("window store LRU eviction",
			"key", evicted,
			"total_evictions", s.index.totalEvictions,
			"current_entries", len(s.index.elems))
	})
	return storage.Window{Count: entry.count, ResetAt: entry.resetAt}, nil
}

func (s *WindowStore) cleanupLoop() {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// Cleanup removes windows whose reset time passed more than the grace period ago.
func (s *WindowStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0

	var next *list.Element
	for elem := s.index.lruList.Front(); elem != nil; elem = next {
		next = elem.Next()
		entry := elem.Value.(*windowEntry)

		if now.Sub(entry.resetAt) > s.cfg.SweepGracePeriod {
			delete(s.index.elems, entry.key)
			s.index.lruList.Remove(elem)
			removed++
		}
	}

	if removed > 0 {
		s.index.totalCleanups++
		s.logger.Debug("window store cleanup completed",
			"removed", removed,
			"remaining", len(s.index.elems),
			"total_cleanups", s.index.totalCleanups)
	}
}

// Stop gracefully stops the cleanup goroutine. Safe to call multiple times.
func (s *WindowStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// GetStats returns current store statistics for monitoring and alerting.
func (s *WindowStore) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statsFor(s.index)
}

// ============================================================
// AttemptStore
// ============================================================

type attemptEntry struct {
	key     string
	attempt storage.Attempt
}

func (e *attemptEntry) lruKey() string { return e.key }

// AttemptStore is an in-memory login-attempt record store.
type AttemptStore struct {
	mu     sync.Mutex
	index  *lruIndex
	cfg    Config
	logger *slog.Logger

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

var _ storage.AttemptStore = (*AttemptStore)(nil)

// NewAttemptStore creates an in-memory attempt store with LRU bounding and a
// background sweep of stale records.
func NewAttemptStore(cfg Config) *AttemptStore {
	cfg = cfg.withDefaults()
	s := &AttemptStore{
		index:       newLRUIndex(cfg.MaxEntries),
		cfg:         cfg,
		logger:      cfg.Logger,
		stopCleanup: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Get implements storage.AttemptStore.
func (s *AttemptStore) Get(_ context.Context, key string) (storage.Attempt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.index.elems[key]
	if !ok {
		return storage.Attempt{}, false, nil
	}
	s.index.touch(elem)
	return elem.Value.(*attemptEntry).attempt, true, nil
}

// Put implements storage.AttemptStore.
func (s *AttemptStore) Put(_ context.Context, key string, attempt storage.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.index.elems[key]; ok {
		s.index.touch(elem)
		elem.Value.(*attemptEntry).attempt = attempt
		return nil
	}

	entry := &attemptEntry{key: key, attempt: attempt}
	s.index.insert(key, entry, func(evicted string) {
		s.logger.Debug("attempt store LRU eviction",
			"key", evicted,
			"total_evictions", s.index.totalEvictions,
			"current_entries", len(s.index.elems))
	})
	return nil
}

// Reset implements storage.AttemptStore.
func (s *AttemptStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.index.elems[key]; ok {
		delete(s.index.elems, key)
		s.index.lruList.Remove(elem)
	}
	return nil
}

func (s *AttemptStore) cleanupLoop() {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// Cleanup removes records whose last attempt is older than the grace period.
func (s *AttemptStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0

	var next *list.Element
	for elem := s.index.lruList.Front(); elem != nil; elem = next {
		next = elem.Next()
		entry := elem.Value.(*attemptEntry)

		if now.Sub(entry.attempt.LastAttemptAt) > s.cfg.SweepGracePeriod {
			delete(s.index.elems, entry.key)
			s.index.lruList.Remove(elem)
			removed++
		}
	}

	if removed > 0 {
		s.index.totalCleanups++
		s.logger.Debug("attempt store cleanup completed",
			"removed", removed,
			"remaining", len(s.index.elems),
			"total_cleanups", s.index.totalCleanups)
	}
}

// Stop gracefully stops the cleanup goroutine. Safe to call multiple times.
func (s *AttemptStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// GetStats returns current store statistics for monitoring and alerting.
func (s *AttemptStore) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statsFor(s.index)
}

func statsFor(idx *lruIndex) Stats {
	stats := Stats{
		CurrentEntries: len(idx.elems),
		MaxEntries:     idx.maxEntries,
		TotalEvictions: idx.totalEvictions,
		TotalCleanups:  idx.totalCleanups,
	}
	if idx.maxEntries > 0 {
		stats.MemoryPressure = float64(stats.CurrentEntries) / float64(idx.maxEntries) * 100.0
	}
	return stats
}
