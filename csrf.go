package shopguard

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// Fallback header names accepted when the configured header is absent.
// Covers the common client conventions.
var fallbackCSRFHeaders = [...]string{"X-CSRF-Token", "X-XSRF-Token"}

// GenerateCSRFToken generates a cryptographically secure CSRF token:
// 32 bytes of entropy, base64url-encoded without padding.
// Panics if the system RNG fails, which indicates a critical failure.
func GenerateCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand.Read failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// csrfGuard validates state-changing requests with the double-submit pattern:
// the client echoes the token from its cookie in a request header, and the
// two must match. An attacker on another origin can force the cookie to be
// sent but cannot read it, so it cannot forge the header.
type csrfGuard struct {
	headerName   string
	cookieName   string
	exemptPaths  []string
	cookieSecure bool
}

func newCSRFGuard(cfg CSRFConfig) *csrfGuard {
	return &csrfGuard{
		headerName:   cfg.HeaderName,
		cookieName:   cfg.CookieName,
		exemptPaths:  cfg.ExemptPaths,
		cookieSecure: cfg.CookieSecure,
	}
}

// exempt reports whether the path bypasses CSRF validation. An exempt entry
// covers its exact path and nested paths under it.
func (g *csrfGuard) exempt(path string) bool {
	for _, p := range g.exemptPaths {
		if path == p || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// safeMethod reports whether the method cannot change state and therefore
// needs no CSRF protection.
func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// headerToken reads the CSRF token from the configured header, falling back
// to the conventional header names.
func (g *csrfGuard) headerToken(r *http.Request) string {
	if tok := r.Header.Get(g.headerName); tok != "" {
		return tok
	}
	for _, name := range fallbackCSRFHeaders {
		if strings.EqualFold(name, g.headerName) {
			continue
		}
		if tok := r.Header.Get(name); tok != "" {
			return tok
		}
	}
	return ""
}

// check validates the request. Fails closed: a missing cookie, missing
// header, or mismatch all reject.
func (g *csrfGuard) check(r *http.Request) *SecurityError {
	if safeMethod(r.Method) {
		return nil
	}
	if g.exempt(r.URL.Path) {
		return nil
	}

	headerTok := g.headerToken(r)
	if headerTok == "" {
		return ErrInvalidCSRFToken()
	}

	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return ErrInvalidCSRFToken()
	}

	if subtle.ConstantTimeCompare([]byte(headerTok), []byte(cookie.Value)) != 1 {
		return ErrInvalidCSRFToken()
	}
	return nil
}

// setCookie writes the CSRF token cookie. The cookie is intentionally not
// HttpOnly: the double-submit pattern requires client script to read it and
// echo it back in the header.
func (g *csrfGuard) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    token,
		Path:     "/",
		Secure:   g.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
