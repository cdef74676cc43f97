package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "threadkeeper:claim:"

// Claims is the Redis-backed claim ledger. A claim is a SET NX with expiry,
// so it is shared across bot replicas and survives restarts.
type Claims struct {
	client *redis.Client
}

// Connect parses redisURL, pings the server and returns the client.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func NewClaims(client *redis.Client) *Claims {
	return &Claims{client: client}
}

func (c *Claims) Claim(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	k := keyPrefix + key
	ok, err := c.client.SetNX(ctx, k, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, 0, fmt.Errorf("claim %s: %w", key, err)
	}
	if ok {
		return true, 0, nil
	}

	remaining, err := c.client.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("read claim ttl %s: %w", key, err)
	}
	if remaining < 0 {
		remaining = 0
	}
	return false, remaining, nil
}
