// Package token implements the compact signed session token and the
// authenticated-encryption envelope used for opaque payloads.
//
// The token wire format is three dot-separated base64url segments,
// header.payload.signature, signed with HMAC-SHA256. The payload is an
// arbitrary claims map carrying mandatory issuedAt, expiresAt and notBefore
// timestamps in epoch seconds. The format is stable: any client holding the
// secret can verify tokens independently.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mandatory claim names. These are part of the wire format and must not change.
const (
	ClaimIssuedAt  = "issuedAt"
	ClaimExpiresAt = "expiresAt"
	ClaimNotBefore = "notBefore"
)

const (
	algHS256  = "HS256"
	tokenType = "JWT"

	tokenSegments = 3
)

// Token verification errors. All failures are explicit; there are no silent
// fallbacks.
var (
	// ErrMalformedToken indicates the token does not have three segments or
	// a segment cannot be decoded.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature indicates the recomputed signature does not match.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired indicates verification time is past the expiresAt claim.
	ErrExpired = errors.New("token expired")

	// ErrNotYetValid indicates verification time is before the notBefore claim.
	ErrNotYetValid = errors.New("token not yet valid")
)

// Claims is the key-value payload embedded in a token.
type Claims map[string]any

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Codec issues and verifies tokens and encrypts/decrypts envelopes with a
// shared secret. A Codec is immutable and safe for concurrent use.
type Codec struct {
	secret    []byte
	ttl       time.Duration
	clockSkew time.Duration
	now       func() time.Time
	encKey    []byte
}

// Option configures a Codec.
type Option func(*Codec)

// WithClockSkew sets a grace period applied to expiry and not-before checks,
// tolerating time drift between systems. Default is zero: the validity
// interval [notBefore, expiresAt] is enforced exactly.
func WithClockSkew(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.clockSkew = d
		}
	}
}

// WithClock overrides the wall-clock source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec creates a token codec. The secret signs tokens and derives the
// envelope encryption key; ttl is the default token lifetime.
func NewCodec(secret string, ttl time.Duration, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %v", ttl)
	}

	c := &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		encKey: deriveEnvelopeKey([]byte(secret)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue builds a signed token from the claims with the codec's default TTL.
// The claims map is not mutated; issuedAt, expiresAt and notBefore are set on
// a copy. Tokens are immutable once issued and cannot be revoked server-side.
func (c *Codec) Issue(claims Claims) (string, error) {
	return c.IssueWithTTL(claims, c.ttl)
}

// IssueWithTTL is Issue with an explicit lifetime. A zero or negative ttl
// produces an already-expired token; verification of such a token fails with
// ErrExpired.
func (c *Codec) IssueWithTTL(claims Claims, ttl time.Duration) (string, error) {
	now := c.now().Unix()

	payload := make(Claims, len(claims)+3)
	for k, v := range claims {
		payload[k] = v
	}
	payload[ClaimIssuedAt] = now
	payload[ClaimExpiresAt] = now + int64(ttl.Seconds())
	payload[ClaimNotBefore] = now

	headerJSON, err := json.Marshal(header{Alg: algHS256, Typ: tokenType})
	if err != nil {
		return "", fmt.Errorf("failed to encode token header: %w", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode token payload: %w", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) +
		"." +
		base64.RawURLEncoding.EncodeToString(payloadJSON)

	return signingInput + "." + c.sign(signingInput), nil
}

// Verify checks the token's signature and validity window and returns its
// claims. The signature is recomputed and compared in constant time; the
// token is valid only within [notBefore, expiresAt] at wall-clock "now".
func (c *Codec) Verify(tok string) (Claims, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != tokenSegments {
		return nil, ErrMalformedToken
	}

	signingInput := parts[0] + "." + parts[1]
	expected := c.sign(signingInput)
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, ErrInvalidSignature
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrMalformedToken
	}
	var h header
	if err := json.Unmarshal(headerJSON, &h); err != nil || h.Alg != algHS256 {
		return nil, ErrMalformedToken
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrMalformedToken
	}
	var claims Claims
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return nil, ErrMalformedToken
	}

	expiresAt, ok := claimTime(claims, ClaimExpiresAt)
	if !ok {
		return nil, ErrMalformedToken
	}
	notBefore, ok := claimTime(claims, ClaimNotBefore)
	if !ok {
		return nil, ErrMalformedToken
	}

	now := c.now()
	if now.After(expiresAt.Add(c.clockSkew)) {
		return nil, ErrExpired
	}
	if now.Before(notBefore.Add(-c.clockSkew)) {
		return nil, ErrNotYetValid
	}

	return claims, nil
}

// sign computes the base64url-encoded HMAC-SHA256 signature of the signing input.
func (c *Codec) sign(signingInput string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(signingInput))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// claimTime extracts an epoch-seconds claim. JSON decoding yields float64 for
// numbers; issued claims carry int64 before encoding, so both are accepted.
func claimTime(claims Claims, key string) (time.Time, bool) {
	v, ok := claims[key]
	if !ok {
		return time.Time{}, false
	}
	switch n := v.(type) {
	case float64:
		return time.Unix(int64(n), 0), true
	case int64:
		return time.Unix(n, 0), true
	case json.Number:
		sec, err := n.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(sec, 0), true
	default:
		return time.Time{}, false
	}
}
