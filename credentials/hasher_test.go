package credentials

import (
	"encoding/hex"
	"testing"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(0)

	hash, salt, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !h.Verify("correct horse battery staple", hash, salt) {
		t.Error("Verify() = false for the correct password")
	}
	if h.Verify("wrong password", hash, salt) {
		t.Error("Verify() = true for a wrong password")
	}
}

func TestHasher_EmptyPassword(t *testing.T) {
	h := NewHasher(0)
	if _, _, err := h.Hash(""); err == nil {
		t.Error("Hash(\"\") should error")
	}
}

func TestHasher_UniqueSalts(t *testing.T) {
	h := NewHasher(0)

	hash1, salt1, err := h.Hash("password")
	if err != nil {
		t.Fatal(err)
	}
	hash2, salt2, err := h.Hash("password")
	if err != nil {
		t.Fatal(err)
	}

	if salt1 == salt2 {
		t.Error("two Hash() calls produced the same salt")
	}
	if hash1 == hash2 {
		t.Error("same password with different salts produced the same hash")
	}
}

func TestHasher_OutputEncoding(t *testing.T) {
	h := NewHasher(0)

	hash, salt, err := h.Hash("password")
	if err != nil {
		t.Fatal(err)
	}

	rawHash, err := hex.DecodeString(hash)
	if err != nil {
		t.Fatalf("hash is not hex: %v", err)
	}
	if len(rawHash) != keySize {
		t.Errorf("hash length = %d bytes, want %d", len(rawHash), keySize)
	}

	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		t.Fatalf("salt is not hex: %v", err)
	}
	if len(rawSalt) != saltSize {
		t.Errorf("salt length = %d bytes, want %d", len(rawSalt), saltSize)
	}
}

func TestHasher_IterationFloor(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
		want       int
	}{
		{"zero selects default", 0, DefaultIterations},
		{"below floor raised", 500, DefaultIterations},
		{"at floor kept", MinIterations, MinIterations},
		{"above floor kept", 20000, 20000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewHasher(tt.iterations).iterations; got != tt.want {
				t.Errorf("iterations = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHasher_VerifyMalformedInputs(t *testing.T) {
	h := NewHasher(0)

	if h.Verify("password", "not-hex", "deadbeef") {
		t.Error("Verify() with malformed hash should be false")
	}
	if h.Verify("password", "deadbeef", "not-hex") {
		t.Error("Verify() with malformed salt should be false")
	}
}

func TestHasher_IterationCountAffectsHash(t *testing.T) {
	low := NewHasher(MinIterations)
	high := NewHasher(50000)

	hash, salt, err := low.Hash("password")
	if err != nil {
		t.Fatal(err)
	}

	if high.Verify("password", hash, salt) {
		t.Error("hash derived with a different iteration count must not verify")
	}
}
