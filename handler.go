package shopguard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/merchantkit/shopguard/token"
)

// Claim keys set by the login flow.
const (
	ClaimUsername = "username"
	ClaimRole     = "role"
)

// HandleLogin authenticates a POST {username, password} body and returns a
// signed session token. Credential failures always produce the same generic
// 401 so callers cannot probe which usernames exist.
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeSecurityError(w, NewSecurityError(ErrorCodeInvalidRequest, "method not allowed", http.StatusMethodNotAllowed))
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSecurityError(w, ErrInvalidRequest("invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		writeSecurityError(w, ErrInvalidRequest("username and password are required"))
		return
	}

	ctx := r.Context()
	reqCtx := s.requestContext(r)

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.auditor.LogLoginFailure(reqCtx, req.Username, "unknown user")
			if s.metrics != nil {
				s.metrics.RecordLoginAttempt(ctx, false)
			}
			writeSecurityError(w, ErrInvalidCredentials())
			return
		}
		s.logger.Error("user store lookup failed", "error", err)
		writeSecurityError(w, ErrServerError())
		return
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash, user.PasswordSalt) {
		s.auditor.LogLoginFailure(reqCtx, req.Username, "password mismatch")
		if s.metrics != nil {
			s.metrics.RecordLoginAttempt(ctx, false)
		}
		writeSecurityError(w, ErrInvalidCredentials())
		return
	}

	if s.config.BruteForce.ResetOnSuccess {
		if err := s.guard.Reset(ctx, s.clientIP(r)); err != nil {
			s.logger.Warn("failed to reset attempt counter", "error", err)
		}
	}

	tok, err := s.codec.Issue(token.Claims{
		ClaimUsername: user.Username,
		ClaimRole:     user.Role,
	})
	if err != nil {
		s.logger.Error("token issuance failed", "error", err)
		writeSecurityError(w, ErrServerError())
		return
	}

	// Last-login bookkeeping is best effort; a store hiccup here must not
	// fail an otherwise successful login.
	user.LastLoginAt = time.Now().UTC()
	user.LastLoginIP = s.clientIP(r)
	if err := s.users.Save(ctx, user); err != nil {
		s.logger.Warn("failed to record last login", "username", user.Username, "error", err)
	}

	s.auditor.LogLoginSuccess(reqCtx, user.Username)
	s.auditor.LogTokenIssued(reqCtx, user.Username)
	if s.metrics != nil {
		s.metrics.RecordLoginAttempt(ctx, true)
		s.metrics.RecordTokenIssued(ctx)
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:    tok,
		Username: user.Username,
		Role:     user.Role,
	})
}

// HandleCSRFToken issues a fresh CSRF token, setting it as the CSRF cookie
// and returning it in the body so clients without cookie access can still
// echo it in the header.
func (s *Server) HandleCSRFToken(w http.ResponseWriter, r *http.Request) {
	tok := GenerateCSRFToken()
	s.csrf.setCookie(w, tok)
	writeJSON(w, http.StatusOK, CSRFTokenResponse{Token: tok})
}

// HandleLogout clears the CSRF cookie. Session tokens are not revoked
// server-side; clients discard them.
func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CSRF.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.config.CSRF.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	s.auditor.LogLogout(s.requestContext(r))
	w.WriteHeader(http.StatusNoContent)
}

// Recovery is HTTP middleware that converts panics into a generic 500.
// The panic detail goes to the logger and the audit trail, never to the
// client.
func (s *Server) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			detail := fmt.Sprintf("%v", rec)
			s.logger.Error("panic recovered", "panic", detail, "path", r.URL.Path)
			s.auditor.LogPanicRecovered(s.requestContext(r), detail)
			writeSecurityError(w, ErrServerError())
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
