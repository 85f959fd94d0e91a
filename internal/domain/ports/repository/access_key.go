package repository

import (
	"context"
	"time"

	"discord-sales-bot/internal/domain/model"
)

type AccessKeyRepository interface {
	// Insert fails with ErrAlreadyExists on a value or payment collision.
	Insert(ctx context.Context, tx Tx, k *model.AccessKey) error
	Exists(ctx context.Context, tx Tx, value string) (bool, error)
	FindByValue(ctx context.Context, tx Tx, value string) (*model.AccessKey, error)
	FindByPayment(ctx context.Context, tx Tx, paymentID string) (*model.AccessKey, error)
	// MarkUsed moves an active, unexpired key to used.
	MarkUsed(ctx context.Context, tx Tx, value, usedBy string, at time.Time) (bool, error)
	// ExpireDue moves active keys whose expiry is before now to expired.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int, error)
	ListByStatus(ctx context.Context, tx Tx, status model.KeyStatus, limit int) ([]*model.AccessKey, error)
}
