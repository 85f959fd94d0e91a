// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"time"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/ports/adapter"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ adapter.Locker = (*RedisLocker)(nil)

// RedisLocker is a SET NX lock with a TTL, so a crashed holder cannot wedge a key forever.
type RedisLocker struct {
	cli     RedisClient
	ttl     time.Duration
	wait    time.Duration
	backoff time.Duration
	log     *zerolog.Logger
}

func NewLocker(c RedisClient, ttl time.Duration, logger *zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	l := logger.With().Str("component", "RedisLocker").Logger()
	return &RedisLocker{cli: c, ttl: ttl, wait: ttl, backoff: 50 * time.Millisecond, log: &l}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, "lock:"+key, token, l.ttl)
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Lock retries TryLock until it succeeds, ctx ends or the wait budget runs out.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	deadline := time.Now().Add(l.wait)
	for {
		token, ok, err := l.TryLock(ctx, key)
		if err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("lock attempt failed")
		}
		if ok {
			return func() { l.unlock(key, token) }, nil
		}
		if time.Now().After(deadline) {
			return nil, domain.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.backoff):
		}
	}
}

func (l *RedisLocker) unlock(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := l.cli.DelIfEqual(ctx, "lock:"+key, token); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("unlock failed; lock will expire by ttl")
	}
}
