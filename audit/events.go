package audit

// Event type constants for security audit logging.
// These constants ensure consistency across the codebase and prevent typos
// when logging security-relevant events.
const (
	// Throttling events

	// EventRateLimitExceeded is logged when a request is rejected by the rate limiter
	EventRateLimitExceeded = "rate_limit_exceeded"

	// EventLockout is logged when an identity is rejected during a brute-force lockout
	EventLockout = "login_lockout"

	// Pattern sentinel events

	// EventSuspiciousRequest is logged when a request matches a malicious signature,
	// whether the request was blocked or merely recorded
	EventSuspiciousRequest = "suspicious_request"

	// CSRF events

	// EventCSRFFailure is logged when the double-submit CSRF check fails
	EventCSRFFailure = "csrf_validation_failed"

	// Authentication events

	// EventLoginSuccess is logged when credentials verify successfully
	EventLoginSuccess = "login_success"

	// EventLoginFailure is logged when credentials fail to verify
	EventLoginFailure = "login_failure"

	// EventTokenIssued is logged when a session token is issued
	EventTokenIssued = "token_issued"

	// EventLogout is logged when a client discards its session
	EventLogout = "logout"

	// Operational events

	// EventPanicRecovered is logged when the catch-all handler recovers a panic
	EventPanicRecovered = "panic_recovered"
)
