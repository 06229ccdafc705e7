package password

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/charvault/authcore/internal/cryptoutil"
)

const (
	schemeTag = "scrypt"

	minCostN      = 1 << 14
	minSaltLength = 16
	minKeyLength  = 16
)

// Config carries the scrypt cost parameters. The defaults are tuned for a
// constrained serving environment: expensive enough to resist offline
// brute force, cheap enough for interactive login latency.
type Config struct {
	N          int
	R          int
	P          int
	SaltLength int
	KeyLength  int
}

// DefaultConfig returns the documented production parameters
// (N=32768, r=8, p=1, 16-byte salt, 32-byte key).
func DefaultConfig() Config {
	return Config{
		N:          1 << 15,
		R:          8,
		P:          1,
		SaltLength: 16,
		KeyLength:  32,
	}
}

// Hasher derives and verifies password hashes. Instances are immutable
// after construction and safe for concurrent use.
type Hasher struct {
	config Config
}

// NewHasher validates cfg and returns a ready hasher. Zero-value fields
// take their defaults.
func NewHasher(cfg Config) (*Hasher, error) {
	defaults := DefaultConfig()
	if cfg.N == 0 {
		cfg.N = defaults.N
	}
	if cfg.R == 0 {
		cfg.R = defaults.R
	}
	if cfg.P == 0 {
		cfg.P = defaults.P
	}
	if cfg.SaltLength == 0 {
		cfg.SaltLength = defaults.SaltLength
	}
	if cfg.KeyLength == 0 {
		cfg.KeyLength = defaults.KeyLength
	}

	if cfg.N < minCostN || cfg.N&(cfg.N-1) != 0 {
		return nil, errors.New("password: N must be a power of two >= 16384")
	}
	if cfg.R < 1 || cfg.P < 1 {
		return nil, errors.New("password: r and p must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return nil, errors.New("password: salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return nil, errors.New("password: key length must be >= 16")
	}

	return &Hasher{config: cfg}, nil
}

// scheme is the closed set of stored-hash formats, decided once at parse
// time rather than re-inspected per call site.
type scheme int

const (
	schemeScrypt scheme = iota
	schemeLegacy
)

type storedHash struct {
	scheme scheme
	salt   []byte
	key    []byte
	legacy string
}

func parseStoredHash(encoded string) (*storedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) == 3 && parts[0] == schemeTag {
		salt, err := hex.DecodeString(parts[1])
		if err != nil {
			return nil, errors.New("password: invalid salt encoding")
		}
		if len(salt) < minSaltLength {
			return nil, errors.New("password: invalid salt length")
		}
		key, err := hex.DecodeString(parts[2])
		if err != nil {
			return nil, errors.New("password: invalid key encoding")
		}
		if len(key) < minKeyLength {
			return nil, errors.New("password: invalid key length")
		}
		return &storedHash{scheme: schemeScrypt, salt: salt, key: key}, nil
	}

	if len(parts) != 1 || encoded == "" {
		return nil, errors.New("password: unrecognized hash format")
	}
	return &storedHash{scheme: schemeLegacy, legacy: encoded}, nil
}

// Hash derives an encoded hash from password with a fresh random salt.
// Only primitive failures (RNG exhaustion, invalid derivation parameters)
// return an error; those signal an environment fault, not a bad password.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key, err := scrypt.Key([]byte(password), salt, h.config.N, h.config.R, h.config.P, h.config.KeyLength)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s$%s$%s", schemeTag, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// Verify reports whether password matches encoded. Wrong passwords,
// malformed stored hashes, and primitive failures all return false; the
// caller sees a single "does not match" outcome.
func (h *Hasher) Verify(password, encoded string) bool {
	parsed, err := parseStoredHash(encoded)
	if err != nil {
		return false
	}

	switch parsed.scheme {
	case schemeScrypt:
		key, err := scrypt.Key([]byte(password), parsed.salt, h.config.N, h.config.R, h.config.P, len(parsed.key))
		if err != nil {
			return false
		}
		return cryptoutil.ConstantTimeEqual(key, parsed.key)
	case schemeLegacy:
		sum := sha256.Sum256([]byte(password))
		digest := hex.EncodeToString(sum[:])
		return cryptoutil.ConstantTimeEqual([]byte(digest), []byte(parsed.legacy))
	default:
		return false
	}
}

// NeedsMigration reports whether encoded is not in the current scheme.
// Callers re-hash with [Hasher.Hash] and persist the replacement right
// after a successful legacy-verified login.
func (h *Hasher) NeedsMigration(encoded string) bool {
	parsed, err := parseStoredHash(encoded)
	if err != nil {
		return true
	}
	return parsed.scheme != schemeScrypt
}

// LegacyDigest computes the legacy unsalted digest of password. It exists
// for fixtures and migration tooling only; new hashes always come from
// [Hasher.Hash].
func LegacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
