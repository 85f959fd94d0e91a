package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
	"discord-sales-bot/internal/infra/metrics"
	red "discord-sales-bot/internal/infra/redis"

	"github.com/rs/zerolog"
)

var _ repository.SettingRepository = (*settingRepoCacheDecorator)(nil)

// settingRepoCacheDecorator caches setting reads in Redis. Writes go to the
// inner repository first and drop the cached entry afterwards.
type settingRepoCacheDecorator struct {
	inner repository.SettingRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewSettingRepoCacheDecorator(inner repository.SettingRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.SettingRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	l := logger.With().Str("component", "SettingCache").Logger()
	return &settingRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: &l}
}

func settingKey(key string) string { return "setting:" + key }

func (d *settingRepoCacheDecorator) Get(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error) {
	// reads inside a transaction must see the transaction's own writes
	if tx != nil {
		return d.inner.Get(ctx, tx, key)
	}

	val, err := d.cache.Get(ctx, settingKey(key))
	if err == nil {
		var s model.Setting
		if json.Unmarshal([]byte(val), &s) == nil {
			metrics.IncCacheRequest(key, "hit")
			return &s, nil
		}
		metrics.IncCacheRequest(key, "miss")
	} else if errors.Is(err, red.Nil) {
		metrics.IncCacheRequest(key, "miss")
	} else {
		d.log.Warn().Err(err).Str("key", key).Msg("setting cache read failed")
		metrics.IncCacheRequest(key, "error")
	}

	s, err := d.inner.Get(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(s); err == nil {
		if err := d.cache.Set(ctx, settingKey(key), string(b), d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("setting cache write failed")
		}
	}
	return s, nil
}

func (d *settingRepoCacheDecorator) Upsert(ctx context.Context, tx repository.Tx, s *model.Setting) error {
	if err := d.inner.Upsert(ctx, tx, s); err != nil {
		return err
	}
	d.invalidate(ctx, s.Key)
	return nil
}

func (d *settingRepoCacheDecorator) Increment(ctx context.Context, tx repository.Tx, key string, delta int64, updatedBy string) (int64, error) {
	n, err := d.inner.Increment(ctx, tx, key, delta, updatedBy)
	if err != nil {
		return 0, err
	}
	d.invalidate(ctx, key)
	return n, nil
}

func (d *settingRepoCacheDecorator) invalidate(ctx context.Context, key string) {
	if err := d.cache.Del(ctx, settingKey(key)); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("setting cache invalidation failed")
	}
}
