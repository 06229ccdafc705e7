// Package token signs and verifies compact HMAC-SHA256 bearer tokens.
//
// # Wire format
//
// Tokens are three dot-separated segments (header.payload.signature), each
// base64url-encoded without padding. The payload carries the subject,
// email, display name, role, issued-at/expiry timestamps, and a kind
// discriminator (access or refresh).
//
// # Failure collapse
//
// [Codec.Verify] never distinguishes failure causes: a malformed token, a
// bad signature, an expired token, and a kind mismatch all return the same
// [ErrInvalid]. This is deliberate — uniform failure denies callers and
// observers an oracle on why a token was rejected.
//
// # Architecture boundaries
//
// This package is purely functional: no store access, no caching, no
// package-level key material. Revocation and blacklisting live in the
// lifecycle manager above it.
package token
