// Package cryptoutil holds the small crypto helpers shared by the token
// and password layers: token fingerprinting and constant-time comparison.
package cryptoutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Fingerprint returns the hex-encoded SHA-256 digest of a token string.
// It is a one-way lookup key: store fingerprints, never raw tokens.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ConstantTimeEqual reports whether a and b are equal without leaking
// the position of the first differing byte. A length mismatch is a
// non-match; content is never inspected with a short-circuiting compare.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
