package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"expertsolve.com/hub/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

const (
	ActionCreateQuestion = "create_question"
	ActionCreateAnswer   = "create_answer"
)

// RateLimitError carries how long the caller has to wait.
type RateLimitError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("You are doing that too often. Please wait %d seconds.", e.RetryAfterSeconds())
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

func (e *RateLimitError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

// RateLimiter holds one SETNX lock per (user, action) for the action's
// window. A nil Redis client disables limiting.
type RateLimiter struct {
	rdb     *redis.Client
	windows map[string]time.Duration
}

func NewRateLimiter(rdb *redis.Client, windows map[string]time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, windows: windows}
}

func rateLimitKey(userID uint, action string) string {
	return fmt.Sprintf("rate_limit:user:%d:%s", userID, action)
}

// Acquire takes the lock or returns a *RateLimitError.
func (l *RateLimiter) Acquire(ctx context.Context, userID uint, action string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	window, ok := l.windows[action]
	if !ok || window <= 0 {
		return nil
	}

	key := rateLimitKey(userID, action)
	wasSet, err := l.rdb.SetNX(ctx, key, "locked", window).Result()
	if err != nil {
		return fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if wasSet {
		return nil
	}

	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return &RateLimitError{Action: action, RetryAfter: ttl}
}

// Release drops the lock, used when the guarded create fails.
func (l *RateLimiter) Release(ctx context.Context, userID uint, action string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, rateLimitKey(userID, action)).Err()
}
