// Package authcore is the authentication and credential core of the
// character-vault service: signed bearer-token issuance and verification,
// memory-hard password hashing with legacy migration, and multi-device
// refresh-session lifecycle management over a key-value store.
//
// # Components
//
//   - [github.com/charvault/authcore/token]: stateless HMAC-SHA256 token codec.
//   - [github.com/charvault/authcore/password]: scrypt password hashing,
//     complexity policy, secure generation.
//   - [github.com/charvault/authcore/kv]: the consumed key-value capability
//     and its Redis implementation.
//   - [Manager] (this package): issuance of access/refresh pairs, refresh,
//     revocation, blacklisting, and session introspection.
//
// # Failure model
//
// Every verification-path failure — malformed, forged, expired, revoked,
// or blacklisted token — collapses to [ErrInvalidToken]; callers map it to
// a single "unauthenticated" outcome. Store-infrastructure faults surface
// separately as [github.com/charvault/authcore/kv.ErrUnavailable] and mean
// request failure, not "unauthenticated".
//
// The HTTP layer, relational storage, and UI are external collaborators;
// they call in through [Manager] and the password hasher and do not shape
// this core.
package authcore
