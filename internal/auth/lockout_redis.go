package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/grocerly/authserver/config"
)

const (
	attemptKeyPrefix = "lockout:attempts:"
	lockKeyPrefix    = "lockout:lock:"
)

// RedisTracker keeps lockout state in Redis so that multiple server
// instances share a single view of failed attempts. The attempt counter
// key carries the sliding window as its TTL; the lock key's TTL is the
// remaining lock time.
type RedisTracker struct {
	client *redis.Client

	threshold int
	window    time.Duration
	duration  time.Duration
}

// NewRedisTracker constructs a Redis-backed tracker from config.
func NewRedisTracker(cfg config.LockoutConfig) *RedisTracker {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &RedisTracker{
		client:    client,
		threshold: cfg.Threshold,
		window:    cfg.AttemptWindow,
		duration:  cfg.Duration,
	}
}

// RecordFailure increments the attempt counter and refreshes its TTL to
// the attempt window; letting the key expire is what resets the counter.
// Reaching the threshold sets the lock key unless one is already held,
// so failures during a lock never extend it.
func (t *RedisTracker) RecordFailure(ctx context.Context, identifier string) error {
	attempts, err := t.client.Incr(ctx, attemptKeyPrefix+identifier).Result()
	if err != nil {
		return err
	}
	if err := t.client.Expire(ctx, attemptKeyPrefix+identifier, t.window).Err(); err != nil {
		return err
	}

	if attempts >= int64(t.threshold) {
		return t.client.SetNX(ctx, lockKeyPrefix+identifier, "1", t.duration).Err()
	}
	return nil
}

// IsLocked reports an active lock from the lock key's remaining TTL.
func (t *RedisTracker) IsLocked(ctx context.Context, identifier string) (bool, time.Duration, error) {
	ttl, err := t.client.PTTL(ctx, lockKeyPrefix+identifier).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, ttl, nil
}

// Reset removes both the attempt counter and any lock.
func (t *RedisTracker) Reset(ctx context.Context, identifier string) error {
	return t.client.Del(ctx, attemptKeyPrefix+identifier, lockKeyPrefix+identifier).Err()
}

// Close releases the underlying Redis connection.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}
