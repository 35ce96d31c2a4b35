// Package util provides common utility functions used across the shopguard
// library.
//
// This package contains helpers for string truncation and IP classification
// that are shared by multiple packages to avoid duplication and keep
// consistent behavior across the codebase.
//
// Key utilities:
//   - SafeTruncate: Safely truncates strings for logging sensitive data
//   - ClassifyIP: Security classification of client IP addresses
package util
