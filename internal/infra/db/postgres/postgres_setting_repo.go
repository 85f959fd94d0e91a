package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
)

var _ repository.SettingRepository = (*settingRepo)(nil)

type settingRepo struct{ pool *pgxpool.Pool }

func NewSettingRepo(pool *pgxpool.Pool) *settingRepo {
	return &settingRepo{pool: pool}
}

func (r *settingRepo) Get(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT key, value, description, updated_by, updated_at FROM settings WHERE key=$1;`, key)
	if err != nil {
		return nil, err
	}
	s := new(model.Setting)
	if err := row.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedBy, &s.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

func (r *settingRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Setting) error {
	const q = `
INSERT INTO settings (key, value, description, updated_by, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (key) DO UPDATE SET
  value=$2, description=COALESCE($3, settings.description), updated_by=$4, updated_at=$5;`
	_, err := execSQL(ctx, r.pool, tx, q, s.Key, s.Value, s.Description, s.UpdatedBy, s.UpdatedAt)
	return err
}

func (r *settingRepo) Increment(ctx context.Context, tx repository.Tx, key string, delta int64, updatedBy string) (int64, error) {
	const q = `
INSERT INTO settings (key, value, updated_by, updated_at)
VALUES ($1, $2::bigint::text, $3, NOW())
ON CONFLICT (key) DO UPDATE SET
  value=(settings.value::bigint + $2::bigint)::text, updated_by=$3, updated_at=NOW()
RETURNING value::bigint;`
	row, err := pickRow(ctx, r.pool, tx, q, key, delta, updatedBy)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}
