package authcore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/charvault/authcore/internal/cryptoutil"
	"github.com/charvault/authcore/kv"
	"github.com/charvault/authcore/token"
)

// blacklistSentinel is the stored value of a blacklist entry; only the
// key's presence matters.
const blacklistSentinel = "1"

// Manager orchestrates the token lifecycle: access/refresh pair issuance,
// refresh, revocation, blacklisting, and session introspection. The store
// is the single source of truth for revocation state — nothing is cached
// in memory, so concurrent requests always observe the store's latest
// answer. A Manager is immutable after construction and safe for
// concurrent use.
type Manager struct {
	config Config
	codec  *token.Codec
	store  kv.Store
	logger zerolog.Logger
}

// IssueOptions carries optional per-session metadata recorded alongside a
// refresh token.
type IssueOptions struct {
	DeviceInfo    string
	SourceAddress string
}

// TokenPair is returned by [Manager.GenerateTokenPair].
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// SessionRecord is the persisted metadata of one refresh-token session.
// The raw refresh token is never stored; the record is keyed by a one-way
// fingerprint of it.
type SessionRecord struct {
	SubjectID     string    `json:"subject_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastUsedAt    time.Time `json:"last_used_at"`
	DeviceInfo    string    `json:"device_info,omitempty"`
	SourceAddress string    `json:"source_address,omitempty"`
}

// SessionStats summarizes a subject's active refresh sessions.
type SessionStats struct {
	Count  int
	Oldest time.Time
	Newest time.Time
}

// New builds a Manager from cfg and a store. Zero-value lifetimes and
// prefixes take their defaults; the secret is validated by the codec.
func New(cfg Config, store kv.Store) (*Manager, error) {
	if store == nil {
		return nil, errors.New("authcore: nil store")
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		Secret: cfg.Token.Secret,
		Issuer: cfg.Token.Issuer,
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Manager{
		config: cfg,
		codec:  codec,
		store:  store,
		logger: logger,
	}, nil
}

// Codec exposes the underlying token codec for callers that need decode
// or expiry helpers on already-verified tokens.
func (m *Manager) Codec() *token.Codec {
	return m.codec
}

// GenerateTokenPair signs an access/refresh token pair for id and persists
// the refresh-session record under the subject's key prefix with a store
// TTL equal to the refresh lifetime. Raw token strings are neither logged
// nor persisted.
func (m *Manager) GenerateTokenPair(ctx context.Context, id token.Identity, opts IssueOptions) (*TokenPair, error) {
	access, err := m.codec.Sign(id, m.config.Token.AccessTTL, token.KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := m.codec.Sign(id, m.config.Token.RefreshTTL, token.KindRefresh)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := SessionRecord{
		SubjectID:     id.SubjectID,
		CreatedAt:     now,
		LastUsedAt:    now,
		DeviceInfo:    opts.DeviceInfo,
		SourceAddress: opts.SourceAddress,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	fingerprint := cryptoutil.Fingerprint(refresh)
	if err := m.store.Put(ctx, m.sessionKey(id.SubjectID, fingerprint), string(data), m.config.Token.RefreshTTL); err != nil {
		return nil, err
	}

	m.logger.Debug().
		Str("subject", id.SubjectID).
		Str("refresh_fp", fingerprint).
		Msg("issued token pair")

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    m.config.Token.AccessTTL,
		RefreshTTL:   m.config.Token.RefreshTTL,
	}, nil
}

// RefreshAccessToken exchanges a live refresh token for a fresh access
// token carrying the same identity claims.
//
// The signature is checked before any store I/O, so a syntactically
// invalid token never triggers a lookup that could leak whether it
// "exists". An absent session record — revoked or never issued — is the
// same [ErrInvalidToken] as a forged one.
//
// The refresh token itself is not rotated: it stays valid until natural
// expiry or explicit revocation. Rotation-on-use would shrink the replay
// window at the cost of a compare-and-swap on every refresh; this core
// keeps the source behavior and documents the tradeoff here.
func (m *Manager) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := m.codec.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		return "", ErrInvalidToken
	}

	fingerprint := cryptoutil.Fingerprint(refreshToken)
	key := m.sessionKey(claims.Subject, fingerprint)

	raw, found, err := m.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrInvalidToken
	}

	var record SessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		m.logger.Warn().
			Str("subject", claims.Subject).
			Str("refresh_fp", fingerprint).
			Msg("corrupt session record")
		return "", ErrInvalidToken
	}

	// lastUsedAt is advisory telemetry: last writer wins under concurrent
	// refreshes, and a failed write must not fail the refresh itself.
	record.LastUsedAt = time.Now().UTC()
	if remaining, ok := m.codec.TimeToExpiry(refreshToken); ok && remaining > 0 {
		if data, marshalErr := json.Marshal(record); marshalErr == nil {
			if putErr := m.store.Put(ctx, key, string(data), remaining); putErr != nil {
				m.logger.Warn().
					Str("subject", claims.Subject).
					Str("refresh_fp", fingerprint).
					Err(putErr).
					Msg("failed to update session last-used timestamp")
			}
		}
	}

	return m.codec.Sign(claims.Identity(), m.config.Token.AccessTTL, token.KindAccess)
}

// RevokeRefreshToken deletes the single session record matching the given
// refresh token. Revoking an unknown or already-revoked token succeeds.
func (m *Manager) RevokeRefreshToken(ctx context.Context, subjectID, refreshToken string) error {
	return m.store.Delete(ctx, m.sessionKey(subjectID, cryptoutil.Fingerprint(refreshToken)))
}

// RevokeAllRefreshTokens deletes every session record under the subject's
// prefix ("log out everywhere"). Deletions proceed independently: one
// failed delete does not abort the batch, and the first failure is
// reported after the full pass. Sessions created concurrently with the
// enumeration may survive it; the operation never revokes more than
// requested, only potentially less. Callers needing a strict guarantee
// re-list and retry until the prefix is empty.
func (m *Manager) RevokeAllRefreshTokens(ctx context.Context, subjectID string) error {
	keys, err := m.store.ListKeysByPrefix(ctx, m.sessionPrefix(subjectID))
	if err != nil {
		return err
	}

	var firstErr error
	for _, key := range keys {
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Warn().
				Str("subject", subjectID).
				Str("key", key).
				Err(err).
				Msg("failed to delete session during bulk revocation")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// BlacklistToken marks a specific token string revoked for the remainder
// of its lifetime. The entry's TTL is clamped to the token's actual
// remaining validity — a blacklist entry must never outlive the token it
// blocks. Blacklisting an already-expired token is a no-op.
func (m *Manager) BlacklistToken(ctx context.Context, tokenStr string, remaining time.Duration) error {
	if actual, ok := m.codec.TimeToExpiry(tokenStr); ok && actual < remaining {
		remaining = actual
	}
	if remaining <= 0 {
		return nil
	}

	key := m.blacklistKey(cryptoutil.Fingerprint(tokenStr))
	return m.store.Put(ctx, key, blacklistSentinel, remaining)
}

// VerifyAccessToken validates a presented bearer token. The blacklist is
// consulted first — a cheap store read that short-circuits revoked tokens
// before the signature check — then the codec verifies signature, expiry,
// and the access kind. Any rejection is [ErrInvalidToken]; only a store
// fault surfaces distinctly.
func (m *Manager) VerifyAccessToken(ctx context.Context, tokenStr string) (*token.Claims, error) {
	_, blacklisted, err := m.store.Get(ctx, m.blacklistKey(cryptoutil.Fingerprint(tokenStr)))
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrInvalidToken
	}

	claims, err := m.codec.Verify(tokenStr, token.KindAccess)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout blacklists the access token for its remaining lifetime and
// revokes the refresh session. Both halves are attempted; the first store
// fault is reported.
func (m *Manager) Logout(ctx context.Context, accessToken, refreshToken string) error {
	var firstErr error

	if remaining, ok := m.codec.TimeToExpiry(accessToken); ok && remaining > 0 {
		if err := m.BlacklistToken(ctx, accessToken, remaining); err != nil {
			firstErr = err
		}
	}

	if claims := m.codec.Decode(refreshToken); claims != nil && claims.Subject != "" {
		if err := m.RevokeRefreshToken(ctx, claims.Subject, refreshToken); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// GetActiveTokens returns the session records of every live refresh token
// for a subject. A subject with no sessions yields an empty slice.
func (m *Manager) GetActiveTokens(ctx context.Context, subjectID string) ([]SessionRecord, error) {
	keys, err := m.store.ListKeysByPrefix(ctx, m.sessionPrefix(subjectID))
	if err != nil {
		return nil, err
	}

	records := make([]SessionRecord, 0, len(keys))
	for _, key := range keys {
		raw, found, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !found {
			// Expired between the scan and the read.
			continue
		}

		var record SessionRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			m.logger.Warn().
				Str("subject", subjectID).
				Str("key", key).
				Msg("skipping corrupt session record")
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// GetTokenStats summarizes a subject's active sessions. Zero sessions is
// not an error: the result is a zero Count with zero times.
func (m *Manager) GetTokenStats(ctx context.Context, subjectID string) (*SessionStats, error) {
	records, err := m.GetActiveTokens(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	stats := &SessionStats{Count: len(records)}
	for _, record := range records {
		if stats.Oldest.IsZero() || record.CreatedAt.Before(stats.Oldest) {
			stats.Oldest = record.CreatedAt
		}
		if record.CreatedAt.After(stats.Newest) {
			stats.Newest = record.CreatedAt
		}
	}
	return stats, nil
}

func (m *Manager) sessionPrefix(subjectID string) string {
	return m.config.Session.RefreshPrefix + ":" + subjectID + ":"
}

func (m *Manager) sessionKey(subjectID, fingerprint string) string {
	return m.sessionPrefix(subjectID) + fingerprint
}

func (m *Manager) blacklistKey(fingerprint string) string {
	return m.config.Session.BlacklistPrefix + ":" + fingerprint
}
