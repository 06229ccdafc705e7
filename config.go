package authcore

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour

	defaultRefreshPrefix   = "rs"
	defaultBlacklistPrefix = "bl"
)

// Config configures a [Manager]. The signing secret is injected here and
// owned by the constructed instance; there is no process-wide key, so
// tests can run with distinct keys and production can rotate by building
// a new Manager.
type Config struct {
	Token   TokenConfig
	Session SessionConfig

	// Logger receives structured warnings for best-effort failures
	// (advisory writes, partial batch deletes). Nil means no logging.
	// Raw token strings are never logged; fingerprints only.
	Logger *zerolog.Logger
}

// TokenConfig carries signing parameters and pair lifetimes.
type TokenConfig struct {
	Secret []byte
	Issuer string

	// AccessTTL defaults to 1 hour, RefreshTTL to 7 days.
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Leeway time.Duration
}

// SessionConfig controls the store key namespaces.
type SessionConfig struct {
	// RefreshPrefix namespaces refresh-session records
	// (<prefix>:<subjectID>:<fingerprint>). Defaults to "rs".
	RefreshPrefix string
	// BlacklistPrefix namespaces blacklist entries
	// (<prefix>:<fingerprint>). Defaults to "bl".
	BlacklistPrefix string
}

func (c *Config) applyDefaults() {
	if c.Token.AccessTTL == 0 {
		c.Token.AccessTTL = defaultAccessTTL
	}
	if c.Token.RefreshTTL == 0 {
		c.Token.RefreshTTL = defaultRefreshTTL
	}
	if c.Session.RefreshPrefix == "" {
		c.Session.RefreshPrefix = defaultRefreshPrefix
	}
	if c.Session.BlacklistPrefix == "" {
		c.Session.BlacklistPrefix = defaultBlacklistPrefix
	}
}

func (c *Config) validate() error {
	if c.Token.AccessTTL < 0 || c.Token.RefreshTTL < 0 {
		return fmt.Errorf("%w: negative token lifetime", ErrConfig)
	}
	if c.Token.AccessTTL > c.Token.RefreshTTL {
		return fmt.Errorf("%w: access lifetime exceeds refresh lifetime", ErrConfig)
	}
	if c.Session.RefreshPrefix == c.Session.BlacklistPrefix {
		return fmt.Errorf("%w: refresh and blacklist prefixes must differ", ErrConfig)
	}
	return nil
}
