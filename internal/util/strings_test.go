package util

import (
	"strings"
	"testing"
)

func TestSafeTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{
			name:   "string shorter than maxLen",
			input:  "short",
			maxLen: 10,
			want:   "short",
		},
		{
			name:   "string equal to maxLen",
			input:  "exact",
			maxLen: 5,
			want:   "exact",
		},
		{
			name:   "string longer than maxLen",
			input:  "very-long-token-abc123",
			maxLen: 8,
			want:   "very-lon",
		},
		{
			name:   "empty string",
			input:  "",
			maxLen: 10,
			want:   "",
		},
		{
			name:   "zero maxLen",
			input:  "anything",
			maxLen: 0,
			want:   "",
		},
		{
			name:   "negative maxLen",
			input:  "anything",
			maxLen: -1,
			want:   "",
		},
		{
			name:   "long attacker-controlled payload",
			input:  strings.Repeat("A", 10000),
			maxLen: 256,
			want:   strings.Repeat("A", 256),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeTruncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("SafeTruncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
