package idempotency

import (
	"context"
	"time"

	"example.com/commentcap/internal/domain"
)

// DefaultKeyPrefix is shared by both automations so either one marks a post as handled.
const DefaultKeyPrefix = "alreadyflaired~"

// FlagValue is the stored marker value.
const FlagValue = "true"

// Store is the key-value store holding "already actioned" flags.
// Get reports ok=false when the key is absent or expired.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, expireAt time.Time) error
}

// FlagKey returns the per-post flag key.
// An empty prefix falls back to DefaultKeyPrefix.
func FlagKey(prefix, postID string) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return prefix + postID
}

// ExpireAt is the flag expiry for a write happening at now.
func ExpireAt(now time.Time) time.Time {
	return now.Add(domain.FlagTTL)
}
