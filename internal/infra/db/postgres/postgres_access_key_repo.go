package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
)

var _ repository.AccessKeyRepository = (*accessKeyRepo)(nil)

const keyColumns = `key_value, plan_type, duration_type, expires_at, status, payment_id, created_by, used_by, used_at, created_at`

type accessKeyRepo struct{ pool *pgxpool.Pool }

func NewAccessKeyRepo(pool *pgxpool.Pool) *accessKeyRepo {
	return &accessKeyRepo{pool: pool}
}

func (r *accessKeyRepo) Insert(ctx context.Context, tx repository.Tx, k *model.AccessKey) error {
	const q = `
INSERT INTO keys (` + keyColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`
	_, err := execSQL(ctx, r.pool, tx, q,
		k.Value, k.PlanType, string(k.Duration), k.ExpiresAt, string(k.Status), k.PaymentID,
		k.CreatedBy, k.UsedBy, k.UsedAt, k.CreatedAt)
	return err
}

func (r *accessKeyRepo) Exists(ctx context.Context, tx repository.Tx, value string) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS (SELECT 1 FROM keys WHERE key_value=$1);`, value)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, mapErr(err)
	}
	return ok, nil
}

func (r *accessKeyRepo) FindByValue(ctx context.Context, tx repository.Tx, value string) (*model.AccessKey, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+keyColumns+` FROM keys WHERE key_value=$1;`, value)
	if err != nil {
		return nil, err
	}
	return scanKey(row)
}

func (r *accessKeyRepo) FindByPayment(ctx context.Context, tx repository.Tx, paymentID string) (*model.AccessKey, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+keyColumns+` FROM keys WHERE payment_id=$1;`, paymentID)
	if err != nil {
		return nil, err
	}
	return scanKey(row)
}

func (r *accessKeyRepo) MarkUsed(ctx context.Context, tx repository.Tx, value, usedBy string, at time.Time) (bool, error) {
	const q = `
UPDATE keys
   SET status='used', used_by=$2, used_at=$3
 WHERE key_value=$1
   AND status='active'
   AND (expires_at IS NULL OR expires_at > $3);`
	tag, err := execSQL(ctx, r.pool, tx, q, value, usedBy, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *accessKeyRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `UPDATE keys SET status='expired' WHERE status='active' AND expires_at IS NOT NULL AND expires_at <= $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *accessKeyRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.KeyStatus, limit int) ([]*model.AccessKey, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + keyColumns + ` FROM keys WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AccessKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func scanKey(row pgx.Row) (*model.AccessKey, error) {
	var (
		k        model.AccessKey
		duration string
		status   string
	)
	if err := row.Scan(&k.Value, &k.PlanType, &duration, &k.ExpiresAt, &status, &k.PaymentID,
		&k.CreatedBy, &k.UsedBy, &k.UsedAt, &k.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	k.Duration = model.KeyDuration(duration)
	k.Status = model.KeyStatus(status)
	return &k, nil
}
