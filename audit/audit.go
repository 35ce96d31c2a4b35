// Package audit provides security event logging with an injectable
// structured-logging sink. Security events are append-only records, kept
// separate from debug/console output so they can be routed to a durable
// collector.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/merchantkit/shopguard/internal/util"
)

// maxPanicDetail caps how much of a panic message goes into the audit trail.
const maxPanicDetail = 256

// RequestContext carries the request-scoped fields attached to every event.
type RequestContext struct {
	RequestID string
	Method    string
	Path      string
	ClientIP  string
}

// Event is an immutable security event record. Events are written once and
// never updated or deleted by this subsystem.
type Event struct {
	ID        string
	Type      string
	Timestamp time.Time
	Message   string
	Details   map[string]any
	Request   RequestContext
}

// Auditor writes security events to a structured-logging sink.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor. The logger is the audit sink;
// pass a logger backed by a file, stream, or external collector for a
// durable trail.
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// LogEvent records a security event. The event ID and timestamp are assigned
// here so callers cannot forge them.
func (a *Auditor) LogEvent(event Event) {
	if !a.enabled {
		return
	}

	event.ID = uuid.New().String()
	event.Timestamp = time.Now().UTC()

	a.logger.Info("security_audit",
		"event_id", event.ID,
		"event_type", event.Type,
		"message", event.Message,
		"request_id", event.Request.RequestID,
		"method", event.Request.Method,
		"path", event.Request.Path,
		"client_ip", event.Request.ClientIP,
		"client_ip_class", util.ClassifyIPString(event.Request.ClientIP).String(),
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogRateLimitExceeded logs a rate limit rejection.
func (a *Auditor) LogRateLimitExceeded(req RequestContext, retryAfter time.Duration) {
	a.LogEvent(Event{
		Type:    EventRateLimitExceeded,
		Message: "request rejected by rate limiter",
		Request: req,
		Details: map[string]any{
			"retry_after": retryAfter.String(),
		},
	})
}

// LogLockout logs a brute-force lockout rejection.
func (a *Auditor) LogLockout(req RequestContext, attempts int64, retryAfter time.Duration) {
	a.LogEvent(Event{
		Type:    EventLockout,
		Message: "identity locked out after repeated attempts",
		Request: req,
		Details: map[string]any{
			"attempts":    attempts,
			"retry_after": retryAfter.String(),
		},
	})
}

// LogSuspiciousRequest logs a pattern sentinel match. The matched signature
// name and surface go only to the audit trail, never to the client.
func (a *Auditor) LogSuspiciousRequest(req RequestContext, signature, surface string, blocked bool) {
	a.LogEvent(Event{
		Type:    EventSuspiciousRequest,
		Message: "request matched malicious signature",
		Request: req,
		Details: map[string]any{
			"signature": signature,
			"surface":   surface,
			"blocked":   blocked,
		},
	})
}

// LogCSRFFailure logs a CSRF double-submit validation failure.
func (a *Auditor) LogCSRFFailure(req RequestContext, reason string) {
	a.LogEvent(Event{
		Type:    EventCSRFFailure,
		Message: "csrf token validation failed",
		Request: req,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogLoginSuccess logs a successful login. The username is hashed before
// logging to avoid writing PII into the trail.
func (a *Auditor) LogLoginSuccess(req RequestContext, username string) {
	a.LogEvent(Event{
		Type:    EventLoginSuccess,
		Message: "login succeeded",
		Request: req,
		Details: map[string]any{
			"username_hash": hashForLogging(username),
		},
	})
}

// LogLoginFailure logs a failed login attempt.
func (a *Auditor) LogLoginFailure(req RequestContext, username, reason string) {
	a.LogEvent(Event{
		Type:    EventLoginFailure,
		Message: "login failed",
		Request: req,
		Details: map[string]any{
			"username_hash": hashForLogging(username),
			"reason":        reason,
		},
	})
}

// LogTokenIssued logs issuance of a session token.
func (a *Auditor) LogTokenIssued(req RequestContext, username string) {
	a.LogEvent(Event{
		Type:    EventTokenIssued,
		Message: "session token issued",
		Request: req,
		Details: map[string]any{
			"username_hash": hashForLogging(username),
		},
	})
}

// LogLogout logs a client-side logout. Tokens are not revocable server-side,
// so this is bookkeeping only.
func (a *Auditor) LogLogout(req RequestContext) {
	a.LogEvent(Event{
		Type:    EventLogout,
		Message: "client logged out",
		Request: req,
	})
}

// LogPanicRecovered logs a panic caught by the recovery handler.
func (a *Auditor) LogPanicRecovered(req RequestContext, detail string) {
	a.LogEvent(Event{
		Type:    EventPanicRecovered,
		Message: "panic recovered during request handling",
		Request: req,
		Details: map[string]any{
			"detail": util.SafeTruncate(detail, maxPanicDetail),
		},
	})
}

// hashForLogging creates a SHA256 hash of sensitive data for logging
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
