package scheduler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockKey = "billpay:reconcile:lock"

// RedisLock implements Locker on a shared redis instance. The lock carries a
// per-instance token and a TTL slightly longer than the sweep interval, so a
// crashed holder cannot wedge reconciliation for good.
type RedisLock struct {
	client *redis.Client
	token  string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLock creates a RedisLock with the given TTL
func NewRedisLock(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLock {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf) //nolint:errcheck // crypto/rand.Read does not fail in practice

	return &RedisLock{
		client: client,
		token:  hex.EncodeToString(buf),
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire takes the run-lock with SETNX
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, lockKey, l.token, l.ttl).Result()
}

// Release deletes the lock if this instance still holds it
func (l *RedisLock) Release(ctx context.Context) {
	holder, err := l.client.Get(ctx, lockKey).Result()
	if err != nil || holder != l.token {
		return
	}
	if err := l.client.Del(ctx, lockKey).Err(); err != nil {
		l.logger.Warn("failed to release sweep lock, ttl will expire it", "error", err)
	}
}
