// Package password implements salted, memory-hard password hashing with a
// compatibility path for a legacy unsalted scheme.
//
// # Output format
//
// Current-scheme hashes are encoded as:
//
//	scrypt$<salt-hex>$<key-hex>
//
// Anything without the scrypt tag is treated as the legacy format: a bare
// hex SHA-256 digest of the password. Legacy hashes still verify, and
// [Hasher.NeedsMigration] reports them so the caller can re-hash after the
// next successful login. Migration is caller-driven; this package never
// rewrites stored data.
//
// # Failure collapse
//
// [Hasher.Verify] returns false for wrong passwords and for malformed
// stored hashes alike. A caller cannot distinguish "wrong password" from
// "corrupt hash", which keeps credential errors uniform at the boundary.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other authcore package besides internal/cryptoutil.
//   - Log plaintext passwords.
package password
