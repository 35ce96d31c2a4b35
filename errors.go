package shopguard

import (
	"fmt"
	"net/http"
	"time"
)

// Security error codes returned to clients.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeRateLimited        = "rate_limited"
	ErrorCodeTooManyAttempts    = "too_many_attempts"
	ErrorCodeInvalidCSRFToken   = "invalid_csrf_token"
	ErrorCodeSuspiciousRequest  = "suspicious_request_blocked"
	ErrorCodeServerError        = "server_error"
)

// SecurityError is an error the pipeline returns to a client. The message is
// deliberately generic: the detailed cause goes to the audit log only, never
// over the wire.
type SecurityError struct {
	Code    string // machine-readable error code
	Message string // human-readable, client-safe description
	Status  int    // HTTP status code

	// RetryAfter, when positive, is surfaced as a Retry-After header.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *SecurityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewSecurityError creates a security error with the given code, message and
// HTTP status.
func NewSecurityError(code, message string, status int) *SecurityError {
	return &SecurityError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Reusable constructors for the errors the pipeline emits.
var (
	// ErrInvalidRequest indicates the request is malformed or missing
	// required parameters.
	ErrInvalidRequest = func(message string) *SecurityError {
		return NewSecurityError(ErrorCodeInvalidRequest, message, http.StatusBadRequest)
	}

	// ErrInvalidCredentials indicates a failed login. The message never
	// distinguishes unknown users from wrong passwords.
	ErrInvalidCredentials = func() *SecurityError {
		return NewSecurityError(ErrorCodeInvalidCredentials, "invalid username or password", http.StatusUnauthorized)
	}

	// ErrRateLimited indicates the client exceeded its request budget for
	// the current window.
	ErrRateLimited = func(retryAfter time.Duration) *SecurityError {
		e := NewSecurityError(ErrorCodeRateLimited, "too many requests", http.StatusTooManyRequests)
		e.RetryAfter = retryAfter
		return e
	}

	// ErrTooManyAttempts indicates the client is locked out after repeated
	// failed attempts.
	ErrTooManyAttempts = func(retryAfter time.Duration) *SecurityError {
		e := NewSecurityError(ErrorCodeTooManyAttempts, "too many attempts, try again later", http.StatusTooManyRequests)
		e.RetryAfter = retryAfter
		return e
	}

	// ErrInvalidCSRFToken indicates a missing or mismatched CSRF token.
	ErrInvalidCSRFToken = func() *SecurityError {
		return NewSecurityError(ErrorCodeInvalidCSRFToken, "invalid or missing CSRF token", http.StatusForbidden)
	}

	// ErrSuspiciousRequest indicates the request matched a high-severity
	// attack signature.
	ErrSuspiciousRequest = func() *SecurityError {
		return NewSecurityError(ErrorCodeSuspiciousRequest, "request blocked", http.StatusForbidden)
	}

	// ErrServerError indicates an internal failure. The cause is logged,
	// not returned.
	ErrServerError = func() *SecurityError {
		return NewSecurityError(ErrorCodeServerError, "internal server error", http.StatusInternalServerError)
	}
)
