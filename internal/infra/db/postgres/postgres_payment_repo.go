package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

const paymentColumns = `id, principal_id, display_name, plan, amount::text, method, status, created_at, updated_at, confirmed_at, confirmed_by, cancel_reason, metadata`

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, principal_id, display_name, plan, amount, method, status, created_at, updated_at, confirmed_at, confirmed_by, cancel_reason, metadata
) VALUES (
  $1,$2,$3,$4,$5::numeric,$6,$7,$8,$9,$10,$11,$12,$13
);`
	meta, err := marshalMeta(p.Metadata)
	if err != nil {
		return err
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.PrincipalID, p.DisplayName, p.Plan, p.Amount.String(), p.Method, string(p.Status),
		p.CreatedAt, p.UpdatedAt, p.ConfirmedAt, p.ConfirmedBy, p.CancelReason, meta)
	return err
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) List(ctx context.Context, tx repository.Tx, status model.PaymentStatus, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC, id DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, string(status), limit)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, t model.PaymentTransition) (bool, error) {
	const q = `
UPDATE payments
   SET status        = $2,
       updated_at    = $3,
       confirmed_at  = CASE WHEN $2 = 'paid' THEN $3 ELSE confirmed_at END,
       confirmed_by  = COALESCE($4, confirmed_by),
       cancel_reason = COALESCE($5, cancel_reason),
       metadata      = metadata || $6::jsonb
 WHERE id = $1
   AND status = 'pending';`

	meta, err := marshalMeta(t.Metadata)
	if err != nil {
		return false, err
	}
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(t.Status), t.At, t.ConfirmedBy, t.CancelReason, meta)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepo) Delete(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM payments WHERE id=$1;`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (r *paymentRepo) Summary(ctx context.Context, tx repository.Tx) (*model.SalesSummary, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status='pending'),
       COUNT(*) FILTER (WHERE status='paid'),
       COUNT(*) FILTER (WHERE status='cancelled'),
       COUNT(*) FILTER (WHERE status='expired'),
       COALESCE(SUM(amount) FILTER (WHERE status='paid'), 0)::text,
       COUNT(DISTINCT principal_id),
       COUNT(DISTINCT principal_id) FILTER (WHERE status='paid')
  FROM payments;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	var (
		s       model.SalesSummary
		revenue string
	)
	if err := row.Scan(&s.Total, &s.Pending, &s.Paid, &s.Cancelled, &s.Expired, &revenue, &s.UniqueCustomers, &s.PayingCustomers); err != nil {
		return nil, mapErr(err)
	}
	if s.Revenue, err = decimal.NewFromString(revenue); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &s, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p      model.Payment
		amount string
		status string
		meta   []byte
	)
	err := row.Scan(&p.ID, &p.PrincipalID, &p.DisplayName, &p.Plan, &amount, &p.Method, &status,
		&p.CreatedAt, &p.UpdatedAt, &p.ConfirmedAt, &p.ConfirmedBy, &p.CancelReason, &meta)
	if err != nil {
		return nil, mapErr(err)
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	p.Status = model.PaymentStatus(status)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &p, nil
}

func collectPayments(rows pgx.Rows) ([]*model.Payment, error) {
	defer rows.Close()
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func marshalMeta(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", domain.ErrInvalidArgument, err)
	}
	return b, nil
}
