//go:build !integration

package postgres

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
	red "discord-sales-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

type mockInnerSettingRepo struct {
	GetFunc       func(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error)
	UpsertFunc    func(ctx context.Context, tx repository.Tx, s *model.Setting) error
	IncrementFunc func(ctx context.Context, tx repository.Tx, key string, delta int64, by string) (int64, error)
}

func (m *mockInnerSettingRepo) Get(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error) {
	return m.GetFunc(ctx, tx, key)
}
func (m *mockInnerSettingRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Setting) error {
	return m.UpsertFunc(ctx, tx, s)
}
func (m *mockInnerSettingRepo) Increment(ctx context.Context, tx repository.Tx, key string, delta int64, by string) (int64, error) {
	return m.IncrementFunc(ctx, tx, key, delta, by)
}

var _ red.RedisClient = (*mockRedisClient)(nil)

type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", red.Nil
}
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) { return 1, nil }
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}
func (m *mockRedisClient) DelIfEqual(ctx context.Context, key, value string) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) Close() error { return nil }

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
