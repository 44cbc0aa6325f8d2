package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitError carries how long the caller has to wait before retrying.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// Check applies a per-user cooldown for the given action. The first call
// within the window wins; later calls get a RateLimitError with the
// remaining TTL. A nil redis client disables limiting.
func Check(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, limit time.Duration) error {
	if rdb == nil {
		return nil
	}

	key := fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)

	wasSet, err := rdb.SetNX(ctx, key, "locked", limit).Result()
	if err != nil {
		return fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if wasSet {
		return nil
	}

	ttl, err := rdb.TTL(ctx, key).Result()
	if err != nil {
		ttl = limit
	}

	return &RateLimitError{
		Message:    fmt.Sprintf("too many %s requests, try again later", action),
		RetryAfter: ttl,
	}
}

// Clear removes the cooldown, e.g. when the limited operation failed.
func Clear(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) error {
	if rdb == nil {
		return nil
	}
	key := fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
	_, err := rdb.Del(ctx, key).Result()
	return err
}
