package adapter

import (
	"context"

	"discord-sales-bot/internal/domain/model"
)

type NoticeKind string

const (
	NoticeConfirmed NoticeKind = "confirmed"
	NoticeCancelled NoticeKind = "cancelled"
	NoticeExpired   NoticeKind = "expired"
)

// Notice is what a notifier needs to render one payment event.
type Notice struct {
	Kind    NoticeKind
	Payment *model.Payment
	Source  model.ConfirmationSource
	Key     *model.AccessKey // issued key, confirmed payments only
	Reason  string
}

// PaymentNotifier delivers payment events to the buyer and to the operator.
// Failures are reported to the caller and never undo the status change.
type PaymentNotifier interface {
	NotifyBuyer(ctx context.Context, n Notice) error
	NotifyOperator(ctx context.Context, n Notice) error
}
