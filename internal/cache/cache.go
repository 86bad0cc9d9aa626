package cache

import (
	"context"
	"time"
)

// Deduper remembers webhook event IDs long enough to drop platform
// redeliveries of events this process already accepted.
type Deduper interface {
	// Seen marks key as processed and reports whether it had already been
	// marked before this call.
	Seen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
