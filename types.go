package shopguard

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned by UserStore implementations when no record
// matches the username.
var ErrUserNotFound = errors.New("user not found")

// User is a stored account record. PasswordHash and PasswordSalt hold the
// hex-encoded output of the credential hasher.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	PasswordSalt string    `json:"-"`
	Role         string    `json:"role"`
	LastLoginAt  time.Time `json:"last_login_at,omitempty"`
	LastLoginIP  string    `json:"-"`
}

// UserStore is the user-record collaborator consumed by the login flow.
type UserStore interface {
	// FindByUsername returns the record for the username or ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// Save persists the record, overwriting any existing one for the same
	// username. Used for last-login bookkeeping after a successful login.
	Save(ctx context.Context, user *User) error
}

// LoginRequest is the login endpoint's JSON body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// CSRFTokenResponse is returned by the CSRF token endpoint. The same token
// is also set as the CSRF cookie.
type CSRFTokenResponse struct {
	Token string `json:"csrf_token"`
}

// ErrorResponse is the JSON error body for all terminal pipeline and handler
// failures.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
