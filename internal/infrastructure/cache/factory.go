package cache

import (
	"github.com/pos/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewIdempotencyStore returns a Redis-backed store when client is set and
// an in-memory store otherwise. An empty keyPrefix uses DefaultIdempotencyKeyPrefix.
func NewIdempotencyStore(client *redis.Client, keyPrefix string, logger *zap.Logger) shared.IdempotencyStore {
	if client == nil {
		logger.Warn("Redis not configured, event idempotency is tracked per process")
		return NewInMemoryIdempotencyStore(0)
	}
	return NewRedisIdempotencyStore(client, keyPrefix)
}
