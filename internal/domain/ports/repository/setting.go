package repository

import (
	"context"

	"discord-sales-bot/internal/domain/model"
)

type SettingRepository interface {
	Get(ctx context.Context, tx Tx, key string) (*model.Setting, error)
	Upsert(ctx context.Context, tx Tx, s *model.Setting) error
	// Increment adds delta to an integer setting, creating it at delta when absent.
	Increment(ctx context.Context, tx Tx, key string, delta int64, updatedBy string) (int64, error)
}
