package claim

import (
	"context"
	"time"
)

// Ledger grants a key to the first caller within ttl. Later callers are told
// how long the existing claim has left. Used for command cooldowns and the
// reminder delivery ledger.
type Ledger interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (granted bool, remaining time.Duration, err error)
}
