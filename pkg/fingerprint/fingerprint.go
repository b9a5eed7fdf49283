// Package fingerprint canonicalizes contact fields and derives one-way
// digests used for duplicate comparison. Fingerprints are compared for
// equality only; they are never stored or used as lookup keys.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint is a SHA-256 digest of a normalized field value. Two
// fingerprints are equal iff their sources are equal after normalization.
type Fingerprint [sha256.Size]byte

// String renders the digest as hex, for logging.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// NormalizeEmail lowercases and trims an email address. Idempotent.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeMobile keeps only decimal digits, dropping punctuation,
// whitespace and country-code symbols. Idempotent.
func NormalizeMobile(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// New computes the fingerprint of an already-normalized value.
func New(normalized string) Fingerprint {
	return sha256.Sum256([]byte(normalized))
}

// Email is shorthand for New(NormalizeEmail(raw)).
func Email(raw string) Fingerprint {
	return New(NormalizeEmail(raw))
}

// Mobile is shorthand for New(NormalizeMobile(raw)).
func Mobile(raw string) Fingerprint {
	return New(NormalizeMobile(raw))
}
