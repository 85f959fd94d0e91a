package repository

import (
	"context"
	"time"

	"discord-sales-bot/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	// Save inserts a new payment; ErrAlreadyExists when the id is taken.
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// List returns payments newest first; an empty status matches every status.
	List(ctx context.Context, tx Tx, status model.PaymentStatus, limit int) ([]*model.Payment, error)
	// UpdateStatusIfPending applies t only while the row is still pending.
	// It reports false when no row matched (unknown id or already terminal).
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, t model.PaymentTransition) (bool, error)
	Delete(ctx context.Context, tx Tx, id string) (bool, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
	Summary(ctx context.Context, tx Tx) (*model.SalesSummary, error)
}
