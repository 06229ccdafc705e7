package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is the single failure result of [Codec.Verify]. Malformed
// tokens, bad signatures, expired tokens, and kind mismatches all collapse
// to it so that callers (and anyone timing them) cannot tell the causes
// apart.
var ErrInvalid = errors.New("invalid token")

const minSecretBytes = 32

// Kind discriminates access tokens from refresh tokens. Every token signed
// by this codec carries a kind; legacy kind-less tokens are never produced.
type Kind string

const (
	// KindAccess marks short-lived tokens presented on every request.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived tokens exchanged for new access tokens.
	KindRefresh Kind = "refresh"
)

// Role is the coarse account role carried in token claims. Authorization
// policy on top of it lives outside this module.
type Role string

const (
	RoleGamemaster Role = "gamemaster"
	RolePlayer     Role = "player"
	RoleObserver   Role = "observer"
)

// Identity is the caller-supplied record a token is minted from.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	Role        Role
}

// Claims is the signed payload of a bearer token.
type Claims struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	Role        Role   `json:"role,omitempty"`
	Kind        Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Identity rebuilds the identity record the claims were minted from.
func (c *Claims) Identity() Identity {
	return Identity{
		SubjectID:   c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		Role:        c.Role,
	}
}

// Config configures a [Codec]. Secret is the HMAC-SHA256 signing key and
// must be at least 32 bytes. The key is injected here, per instance; there
// is no package-level key.
type Config struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

// Codec signs and verifies compact three-segment bearer tokens
// (header.payload.signature, base64url without padding). It holds no
// mutable state and is safe for unlimited concurrent use.
type Codec struct {
	config Config
	now    func() time.Time
}

// NewCodec validates cfg and returns a ready codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("token: secret must be at least 32 bytes")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("token: invalid leeway configuration")
	}
	return &Codec{config: cfg, now: time.Now}, nil
}

// Sign mints a token for id expiring lifetime from now. A zero lifetime is
// permitted and produces an already-expired token. Sign performs no I/O
// and fails only on malformed input or a broken signing primitive.
func (c *Codec) Sign(id Identity, lifetime time.Duration, kind Kind) (string, error) {
	if id.SubjectID == "" {
		return "", errors.New("token: empty subject id")
	}
	if lifetime < 0 {
		return "", errors.New("token: negative lifetime")
	}
	if kind != KindAccess && kind != KindRefresh {
		return "", errors.New("token: unknown kind")
	}

	now := c.now()
	claims := Claims{
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Role:        id.Role,
		Kind:        kind,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti makes two same-second tokens for the same identity
			// distinct, so their fingerprints never collide.
			ID:        uuid.NewString(),
			Subject:   id.SubjectID,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Secret)
}

// Verify returns the decoded claims only when the token has a valid
// HMAC-SHA256 signature, is unexpired, and carries the expected kind.
// Every other outcome is [ErrInvalid]; no failure cause leaks out.
func (c *Codec) Verify(tokenStr string, kind Kind) (*Claims, error) {
	claims, err := c.parse(tokenStr)
	if err != nil {
		return nil, ErrInvalid
	}
	if claims.Kind != kind {
		return nil, ErrInvalid
	}
	return claims, nil
}

// VerifyAny is Verify without a kind expectation.
func (c *Codec) VerifyAny(tokenStr string) (*Claims, error) {
	claims, err := c.parse(tokenStr)
	if err != nil {
		return nil, ErrInvalid
	}
	return claims, nil
}

// Decode parses the payload segment without checking the signature.
// Trusted internal callers use it to inspect claims of tokens that were
// already verified or are allowed to be expired. It must never gate a
// trust boundary; that is what [Codec.Verify] is for.
func (c *Codec) Decode(tokenStr string) *Claims {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil
	}
	return claims
}

// IsExpired reports whether the token's expiry has passed. Malformed
// tokens count as expired.
func (c *Codec) IsExpired(tokenStr string) bool {
	claims := c.Decode(tokenStr)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !c.now().Before(claims.ExpiresAt.Time)
}

// TimeToExpiry returns the remaining lifetime of the token. The second
// return is false for malformed tokens. The duration is negative once the
// token has expired.
func (c *Codec) TimeToExpiry(tokenStr string) (time.Duration, bool) {
	claims := c.Decode(tokenStr)
	if claims == nil || claims.ExpiresAt == nil {
		return 0, false
	}
	return claims.ExpiresAt.Time.Sub(c.now()), true
}

func (c *Codec) parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		// Strict decoding rejects non-canonical base64url segments.
		// Without it the unused padding bits of the final signature
		// character are ignored, and a token tampered in those bits
		// decodes to the identical signature and verifies.
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
