// Package lock provides cross-process mutual exclusion for sale mutations.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/pos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Config tunes lock acquisition
type Config struct {
	// TTL bounds how long a crashed holder can block others
	TTL time.Duration
	// RetryInterval and MaxRetries control how long Lock waits for a busy key
	RetryInterval time.Duration
	MaxRetries    int
	KeyPrefix     string
}

// DefaultConfig returns a 30s TTL and up to ~2s of waiting
func DefaultConfig() Config {
	return Config{
		TTL:           30 * time.Second,
		RetryInterval: 100 * time.Millisecond,
		MaxRetries:    20,
		KeyPrefix:     "pos:lock:",
	}
}

// RedisLocker hands out Redis-backed locks via redislock
type RedisLocker struct {
	client *redislock.Client
	config Config
	logger *zap.Logger
}

// NewRedisLocker creates a locker on a Redis client
func NewRedisLocker(client redislock.RedisClient, config Config, logger *zap.Logger) *RedisLocker {
	defaults := DefaultConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = defaults.RetryInterval
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaults.KeyPrefix
	}
	return &RedisLocker{client: redislock.New(client), config: config, logger: logger}
}

// Lock obtains key, waiting up to MaxRetries*RetryInterval. A key still held
// after that fails with shared.ErrLocked.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	fullKey := l.config.KeyPrefix + key
	lock, err := l.client.Obtain(ctx, fullKey, l.config.TTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.config.RetryInterval), l.config.MaxRetries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%s is being modified by another request: %w", key, shared.ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", fullKey, err)
	}

	l.logger.Debug("lock obtained", zap.String("key", fullKey), zap.Duration("ttl", l.config.TTL))
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("release lock %s: %w", fullKey, err)
		}
		return nil
	}, nil
}
