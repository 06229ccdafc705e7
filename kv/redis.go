package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 1000

// Redis implements [Store] on a go-redis client. TTLs map to native key
// expiry; prefix listing uses SCAN, never KEYS, so it stays safe against
// large keyspaces.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps an existing client. The caller owns the client's
// lifecycle and closes it.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Get fetches key. An absent or expired key is (_, false, nil).
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

// Put writes key with the given TTL (0 means no expiry).
func (r *Redis) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes key; deleting an absent key succeeds.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ListKeysByPrefix scans for live keys under prefix. SCAN may emit the
// same key in more than one cursor batch, so the result is deduplicated
// before it is returned.
func (r *Redis) ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeMatch(prefix) + "*"

	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return dedupeKeys(keys), nil
}

// dedupeKeys drops repeated keys, preserving first-seen order.
func dedupeKeys(keys []string) []string {
	if len(keys) < 2 {
		return keys
	}
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// escapeMatch quotes glob metacharacters so a literal prefix cannot widen
// the scan pattern.
func escapeMatch(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
