package memory

import (
	"context"
	"sync"
	"time"
)

type claimEntry struct {
	expiresAt time.Time
}

// Claims is the in-process claim ledger, used when neither Redis nor
// Postgres is configured. Claims do not survive a restart.
type Claims struct {
	mu      sync.Mutex
	entries map[string]claimEntry
	now     func() time.Time
}

func NewClaims() *Claims {
	return NewClaimsWithClock(time.Now)
}

func NewClaimsWithClock(now func() time.Time) *Claims {
	return &Claims{
		entries: make(map[string]claimEntry),
		now:     now,
	}
}

func (c *Claims) Claim(_ context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.entries[key]; ok {
		if now.Before(entry.expiresAt) {
			return false, entry.expiresAt.Sub(now), nil
		}
		delete(c.entries, key)
	}
	c.entries[key] = claimEntry{expiresAt: now.Add(ttl)}
	c.sweep(now)
	return true, 0, nil
}

// sweep drops expired entries so the map does not grow with one-shot keys.
func (c *Claims) sweep(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
