// Package valkey provides a Valkey/Redis-compatible implementation of the
// storage interfaces. It is the multi-process deployment option: counters
// live in a shared external store with TTLs, so every worker process sees the
// same windows and attempt records.
package valkey

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/merchantkit/shopguard/storage"
)

const (
	// DefaultKeyPrefix is the default prefix for all Valkey keys
	DefaultKeyPrefix = "shopguard:"

	// DefaultAttemptTTL is how long idle attempt records are retained
	DefaultAttemptTTL = 24 * time.Hour

	// connectionVerifyTimeout is the timeout for initial connection verification
	connectionVerifyTimeout = 5 * time.Second

	// maxKeyLength is the maximum allowed length for store keys.
	// Keys are client identities (IPs, usernames); anything longer is abuse.
	maxKeyLength = 256
)

var errKeyTooLarge = fmt.Errorf("key exceeds maximum allowed size")

// incrWindowScript atomically increments the window counter, arming the TTL
// on first hit, and returns {count, pttl}. The TTL drives the fixed-window
// reset: once the key expires, the next INCR starts a fresh window at 1.
const incrWindowScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`

// Config holds configuration for the Valkey storage backend.
type Config struct {
	// Address is the Valkey server address (required), e.g., "localhost:6379"
	Address string

	// Password is the optional password for Valkey authentication
	Password string

	// DB is the optional database number (default 0)
	DB int

	// KeyPrefix is the prefix for all keys (default "shopguard:")
	KeyPrefix string

	// TLS is the optional TLS configuration for encrypted connections
	TLS *tls.Config

	// Logger is the optional structured logger (default: slog.Default())
	Logger *slog.Logger

	// AttemptTTL is how long idle attempt records are retained (default 24h)
	AttemptTTL time.Duration
}

// Store is a Valkey-backed implementation of the storage interfaces.
type Store struct {
	client     valkeygo.Client
	prefix     string
	logger     *slog.Logger
	attemptTTL time.Duration
}

// Compile-time interface checks
var (
	_ storage.WindowStore  = (*Store)(nil)
	_ storage.AttemptStore = (*Store)(nil)
)

// New creates a new Valkey-backed storage instance.
// Returns an error if the connection cannot be established.
func New(cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attemptTTL := cfg.AttemptTTL
	if attemptTTL <= 0 {
		attemptTTL = DefaultAttemptTTL
	}

	opts := valkeygo.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.TLS != nil {
		opts.TLSConfig = cfg.TLS
	}

	client, err := valkeygo.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionVerifyTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	logger.Info("Connected to Valkey storage",
		"address", cfg.Address,
		"db", cfg.DB,
		"prefix", prefix)

	return &Store{
		client:     client,
		prefix:     prefix,
		logger:     logger,
		attemptTTL: attemptTTL,
	}, nil
}

// Close closes the Valkey client connection.
func (s *Store) Close() {
	s.client.Close()
	s.logger.Info("Valkey storage connection closed")
}

func (s *Store) windowKey(key string) string {
	return s.prefix + "window:" + key
}

func (s *Store) attemptKey(key string) string {
	return s.prefix + "attempt:" + key
}

func validateKey(key string) error {
	if key == "" || len(key) > maxKeyLength {
		return errKeyTooLarge
	}
	return nil
}

// ============================================================
// WindowStore Implementation
// ============================================================

// Incr records one hit against the key's fixed window and returns the
// updated state. The window lives as a counter with a TTL; the reset time is
// derived from the remaining TTL.
func (s *Store) Incr(ctx context.Context, key string, window time.Duration) (storage.Window, error) {
	if err := validateKey(key); err != nil {
		return storage.Window{}, err
	}

	resp, err := s.client.Do(ctx,
		s.client.B().Eval().
			Script(incrWindowScript).
			Numkeys(1).
			Key(s.windowKey(key)).
			Arg(strconv.FormatInt(window.Milliseconds(), 10)).
			Build(),
	).ToArray()
	if err != nil {
		return storage.Window{}, fmt.Errorf("failed to increment window: %w", err)
	}
	if len(resp) != 2 {
		return storage.Window{}, fmt.Errorf("unexpected window increment reply length %d", len(resp))
	}

	count, err := resp[0].AsInt64()
	if err != nil {
		return storage.Window{}, fmt.Errorf("failed to parse window count: %w", err)
	}
	ttlMs, err := resp[1].AsInt64()
	if err != nil {
		return storage.Window{}, fmt.Errorf("failed to parse window ttl: %w", err)
	}
	if ttlMs < 0 {
		// Key has no TTL (should not happen); treat as a full fresh window.
		ttlMs = window.Milliseconds()
	}

	return storage.Window{
		Count:   count,
		ResetAt: time.Now().Add(time.Duration(ttlMs) * time.Millisecond),
	}, nil
}

// ============================================================
// AttemptStore Implementation
// ============================================================

// Get retrieves the attempt record for a key.
func (s *Store) Get(ctx context.Context, key string) (storage.Attempt, bool, error) {
	if err := validateKey(key); err != nil {
		return storage.Attempt{}, false, err
	}

	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(s.attemptKey(key)).Build()).AsStrMap()
	if err != nil {
		return storage.Attempt{}, false, fmt.Errorf("failed to get attempt record: %w", err)
	}
	if len(fields) == 0 {
		return storage.Attempt{}, false, nil
	}

	count, err := strconv.ParseInt(fields["count"], 10, 64)
	if err != nil {
		return storage.Attempt{}, false, fmt.Errorf("failed to parse attempt count: %w", err)
	}
	lastMs, err := strconv.ParseInt(fields["last_attempt_ms"], 10, 64)
	if err != nil {
		return storage.Attempt{}, false, fmt.Errorf("failed to parse attempt timestamp: %w", err)
	}

	return storage.Attempt{
		Count:         count,
		LastAttemptAt: time.UnixMilli(lastMs),
	}, true, nil
}

// Put stores the attempt record for a key with the retention TTL.
func (s *Store) Put(ctx context.Context, key string, attempt storage.Attempt) error {
	if err := validateKey(key); err != nil {
		return err
	}

	k := s.attemptKey(key)
	if err := s.client.Do(ctx,
		s.client.B().Hset().Key(k).
			FieldValue().
			FieldValue("count", strconv.FormatInt(attempt.Count, 10)).
			FieldValue("last_attempt_ms", strconv.FormatInt(attempt.LastAttemptAt.UnixMilli(), 10)).
			Build(),
	).Error(); err != nil {
		return fmt.Errorf("failed to save attempt record: %w", err)
	}

	if err := s.client.Do(ctx,
		s.client.B().Pexpire().Key(k).Milliseconds(s.attemptTTL.Milliseconds()).Build(),
	).Error(); err != nil {
		s.logger.Warn("Failed to set attempt record TTL", "error", err)
	}

	return nil
}

// Reset removes the attempt record for a key.
func (s *Store) Reset(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := s.client.Do(ctx, s.client.B().Del().Key(s.attemptKey(key)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to reset attempt record: %w", err)
	}
	return nil
}
