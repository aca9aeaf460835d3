package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL is how long a handled key is remembered when the
// caller does not say otherwise.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers the keys of commands and relayed events that
// were already handled.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It returns false when the key is
	// already claimed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Forget releases a claim so that a failed attempt can be retried.
	Forget(ctx context.Context, key string) error
	Close() error
}
