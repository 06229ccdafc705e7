package authcore

import "errors"

var (
	// ErrInvalidToken is the single verification-path failure. Malformed,
	// forged, expired, blacklisted, and revoked tokens all surface as this
	// one error so callers (and anyone timing them) cannot distinguish the
	// causes. Map it to an "unauthenticated" response.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig reports a rejected [Config] at construction time.
	ErrConfig = errors.New("invalid configuration")
)
