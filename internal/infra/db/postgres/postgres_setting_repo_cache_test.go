//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
	red "discord-sales-bot/internal/infra/redis"
)

func TestSettingRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	setting := &model.Setting{Key: model.SettingSupportActive, Value: "true", UpdatedAt: time.Now().UTC()}

	t.Run("Get should read through and warm the cache on miss", func(t *testing.T) {
		// --- Arrange ---
		innerCalls := 0
		var cached string
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", red.Nil },
			SetFunc: func(ctx context.Context, key string, value interface{}, exp time.Duration) error {
				if key != "setting:"+model.SettingSupportActive {
					t.Errorf("unexpected cache key %s", key)
				}
				cached = value.(string)
				return nil
			},
		}
		inner := &mockInnerSettingRepo{
			GetFunc: func(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error) {
				innerCalls++
				return setting, nil
			},
		}
		d := NewSettingRepoCacheDecorator(inner, mockRedis, time.Minute, newTestLogger())

		// --- Act ---
		got, err := d.Get(ctx, nil, model.SettingSupportActive)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if innerCalls != 1 {
			t.Errorf("expected 1 inner call, got %d", innerCalls)
		}
		if got.Value != "true" {
			t.Errorf("expected value true, got %s", got.Value)
		}
		if cached == "" {
			t.Error("expected the cache to be warmed")
		}
	})

	t.Run("Get should serve a hit without touching the store", func(t *testing.T) {
		b, _ := json.Marshal(setting)
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return string(b), nil },
		}
		inner := &mockInnerSettingRepo{
			GetFunc: func(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error) {
				t.Fatal("inner repository must not be called on a hit")
				return nil, nil
			},
		}
		d := NewSettingRepoCacheDecorator(inner, mockRedis, time.Minute, newTestLogger())

		got, err := d.Get(ctx, nil, model.SettingSupportActive)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Value != "true" {
			t.Errorf("expected cached value, got %s", got.Value)
		}
	})

	t.Run("Get should propagate not found without caching", func(t *testing.T) {
		setCalled := false
		mockRedis := &mockRedisClient{
			SetFunc: func(ctx context.Context, key string, value interface{}, exp time.Duration) error {
				setCalled = true
				return nil
			},
		}
		inner := &mockInnerSettingRepo{
			GetFunc: func(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error) {
				return nil, domain.ErrNotFound
			},
		}
		d := NewSettingRepoCacheDecorator(inner, mockRedis, time.Minute, newTestLogger())

		_, err := d.Get(ctx, nil, "missing")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if setCalled {
			t.Error("a miss on the store must not be cached")
		}
	})

	t.Run("Increment should invalidate only after the store write succeeds", func(t *testing.T) {
		var deleted []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deleted = append(deleted, keys...)
				return nil
			},
		}
		inner := &mockInnerSettingRepo{
			IncrementFunc: func(ctx context.Context, tx repository.Tx, key string, delta int64, by string) (int64, error) {
				if key == "broken" {
					return 0, domain.ErrPersistence
				}
				return 5, nil
			},
		}
		d := NewSettingRepoCacheDecorator(inner, mockRedis, time.Minute, newTestLogger())

		n, err := d.Increment(ctx, nil, model.SettingKeysSoldCount, 1, "owner")
		if err != nil || n != 5 {
			t.Fatalf("expected 5, nil; got %d, %v", n, err)
		}
		if _, err := d.Increment(ctx, nil, "broken", 1, "owner"); !errors.Is(err, domain.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if len(deleted) != 1 || deleted[0] != "setting:"+model.SettingKeysSoldCount {
			t.Errorf("unexpected invalidations: %v", deleted)
		}
	})
}
