package shopguard

import (
	"log/slog"
	"time"

	"github.com/merchantkit/shopguard/sentinel"
)

// Config holds the security pipeline configuration.
// Structured using composition for better organization and maintainability.
type Config struct {
	// Token settings for issuing and verifying signed session tokens.
	Token TokenConfig

	// Rate limiting configuration.
	RateLimit RateLimitConfig

	// Brute-force lockout configuration.
	BruteForce BruteForceConfig

	// CSRF double-submit configuration.
	CSRF CSRFConfig

	// Sentinel configures request pattern scanning.
	Sentinel SentinelConfig

	// TrustProxy enables trusting X-Forwarded-For and X-Real-IP headers.
	// Only enable behind a trusted reverse proxy.
	TrustProxy bool

	// TrustedProxyCount is the number of trusted proxies in front of the
	// server. Used to pick the right client IP from X-Forwarded-For.
	TrustedProxyCount int

	// EnableAuditLogging enables security audit logging.
	// Logs login events, lockouts, rate-limit rejections, and signature
	// matches (sensitive data hashed).
	EnableAuditLogging bool

	// Logger for structured logging (optional, uses default if not provided).
	Logger *slog.Logger
}

// TokenConfig holds session token settings.
type TokenConfig struct {
	// Secret is the HMAC signing secret (required).
	Secret string

	// TTL is how long issued tokens remain valid.
	// Default: 1 hour.
	TTL time.Duration

	// ClockSkewGracePeriod widens expiry and not-before checks to tolerate
	// clock drift between issuer and verifier. Default: 0 (strict).
	ClockSkewGracePeriod time.Duration
}

// RateLimitConfig holds fixed-window rate limiting configuration.
type RateLimitConfig struct {
	// MaxRequests is the request budget per client per window.
	// Default: 100.
	MaxRequests int64

	// Window is the fixed window duration. Default: 1 minute.
	Window time.Duration
}

// BruteForceConfig holds login lockout configuration.
type BruteForceConfig struct {
	// MaxAttempts is how many attempts a client gets before lockout.
	// Default: 5.
	MaxAttempts int64

	// Lockout is how long a locked-out client must wait.
	// Default: 15 minutes.
	Lockout time.Duration

	// GuardedPaths are the request paths the guard counts attempts on.
	// Default: ["/api/login"].
	GuardedPaths []string

	// ResetOnSuccess clears a client's attempt counter after a successful
	// login. When false, successful logins count toward the lockout
	// threshold like any other attempt.
	ResetOnSuccess bool
}

// CSRFConfig holds double-submit CSRF settings.
type CSRFConfig struct {
	// HeaderName is the request header carrying the CSRF token.
	// Default: "X-CSRF-Token". The standard header names are always
	// accepted as fallbacks.
	HeaderName string

	// CookieName is the cookie carrying the CSRF token.
	// Default: "csrf_token".
	CookieName string

	// ExemptPaths skip CSRF validation. An entry matches its exact path
	// and any nested path under it.
	ExemptPaths []string

	// CookieSecure marks the CSRF cookie Secure and enables HSTS.
	// Only disable for local development over plain HTTP.
	CookieSecure bool
}

// SentinelConfig holds pattern scanning settings.
type SentinelConfig struct {
	// Signatures is the ordered signature list. Nil uses the built-in set.
	Signatures []sentinel.Signature

	// DisableBodyScan skips reading and scanning request bodies. When
	// scanning is on, bodies are re-buffered so downstream handlers still
	// see them.
	DisableBodyScan bool
}

// applySecureDefaults applies secure-by-default configuration values.
// This follows the principle: secure by default, opt-in for less secure options.
func applySecureDefaults(config *Config, logger *slog.Logger) *Config {
	if config.Token.TTL == 0 {
		config.Token.TTL = time.Hour
	}
	if config.RateLimit.MaxRequests == 0 {
		config.RateLimit.MaxRequests = 100
	}
	if config.RateLimit.Window == 0 {
		config.RateLimit.Window = time.Minute
	}
	if config.BruteForce.MaxAttempts == 0 {
		config.BruteForce.MaxAttempts = 5
	}
	if config.BruteForce.Lockout == 0 {
		config.BruteForce.Lockout = 15 * time.Minute
	}
	if config.BruteForce.GuardedPaths == nil {
		config.BruteForce.GuardedPaths = []string{"/api/login"}
	}
	if config.CSRF.HeaderName == "" {
		config.CSRF.HeaderName = "X-CSRF-Token"
	}
	if config.CSRF.CookieName == "" {
		config.CSRF.CookieName = "csrf_token"
	}
	if config.TrustProxy && config.TrustedProxyCount == 0 {
		config.TrustedProxyCount = 1
	}

	if config.TrustProxy {
		logger.Warn("trusting proxy headers for client IP",
			"risk", "IP spoofing if the proxy chain is misconfigured",
			"trusted_proxy_count", config.TrustedProxyCount)
	}
	if !config.CSRF.CookieSecure {
		logger.Warn("CSRF cookie is not marked Secure",
			"risk", "token exposure over plain HTTP",
			"recommendation", "set CSRF.CookieSecure=true in production")
	}

	return config
}
