// Package credentials hashes and verifies user passwords with a salted slow
// KDF (PBKDF2-SHA512). The package is pure computation; persistence of the
// resulting hash and salt belongs to the user-record store.
package credentials

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the default PBKDF2 iteration count.
	DefaultIterations = 10000

	// MinIterations is the floor below which configured counts are rejected.
	MinIterations = 10000

	saltSize = 16
	keySize  = 64
)

// Hasher derives and verifies password hashes. Safe for concurrent use.
type Hasher struct {
	iterations int
}

// NewHasher creates a password hasher. Iteration counts below MinIterations
// are raised to the default; zero selects the default.
func NewHasher(iterations int) *Hasher {
	if iterations < MinIterations {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash derives a hash from the password with a fresh random salt.
// Both hash and salt are hex-encoded.
func (h *Hasher) Hash(password string) (hash, salt string, err error) {
	if password == "" {
		return "", "", fmt.Errorf("password is required")
	}

	rawSalt := make([]byte, saltSize)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	derived := pbkdf2.Key([]byte(password), rawSalt, h.iterations, keySize, sha512.New)
	return hex.EncodeToString(derived), hex.EncodeToString(rawSalt), nil
}

// Verify recomputes the hash for the password and salt and compares it to
// the stored hash in constant time. Malformed inputs verify as false.
func (h *Hasher) Verify(password, hash, salt string) bool {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	stored, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}

	derived := pbkdf2.Key([]byte(password), rawSalt, h.iterations, keySize, sha512.New)
	return subtle.ConstantTimeCompare(derived, stored) == 1
}
