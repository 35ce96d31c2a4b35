package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Envelope errors.
var (
	// ErrInvalidEnvelope indicates the envelope does not split into exactly
	// three hex segments or a segment cannot be decoded.
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrAuthenticationFailed indicates the authentication tag did not verify.
	// Plaintext is never returned when the tag fails.
	ErrAuthenticationFailed = errors.New("envelope authentication failed")
)

const (
	envelopeSegments = 3
	envelopeKeySize  = 32 // AES-256
	gcmTagSize       = 16

	// envelopeKDFIterations is the PBKDF2 iteration count for deriving the
	// AES key from the shared secret. The key is derived once per Codec.
	envelopeKDFIterations = 10000
)

// envelopeKDFSalt is a fixed domain-separation salt: the envelope key must
// differ from the raw signing secret even though both derive from it.
var envelopeKDFSalt = []byte("shopguard/envelope/v1")

func deriveEnvelopeKey(secret []byte) []byte {
	return pbkdf2.Key(secret, envelopeKDFSalt, envelopeKDFIterations, envelopeKeySize, sha256.New)
}

// Encrypt seals the plaintext with AES-256-GCM under a key derived from the
// codec secret and returns an iv:ciphertext:authTag envelope, each segment
// hex-encoded. A fresh random IV is generated per call.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.encKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-gcmTagSize]
	tag := sealed[len(sealed)-gcmTagSize:]

	return hex.EncodeToString(iv) + ":" +
		hex.EncodeToString(ciphertext) + ":" +
		hex.EncodeToString(tag), nil
}

// Decrypt opens an iv:ciphertext:authTag envelope. The authentication tag is
// verified before any plaintext is returned; tampering with any segment
// fails closed.
func (c *Codec) Decrypt(envelope string) (string, error) {
	segments := strings.Split(envelope, ":")
	if len(segments) != envelopeSegments {
		return "", ErrInvalidEnvelope
	}

	iv, err := hex.DecodeString(segments[0])
	if err != nil {
		return "", ErrInvalidEnvelope
	}
	ciphertext, err := hex.DecodeString(segments[1])
	if err != nil {
		return "", ErrInvalidEnvelope
	}
	tag, err := hex.DecodeString(segments[2])
	if err != nil {
		return "", ErrInvalidEnvelope
	}

	block, err := aes.NewCipher(c.encKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(iv) != gcm.NonceSize() || len(tag) != gcmTagSize {
		return "", ErrInvalidEnvelope
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrAuthenticationFailed
	}

	return string(plaintext), nil
}
