package usecase

import (
	"context"
	"errors"

	"discord-sales-bot/internal/domain/ports/adapter"
)

var _ adapter.PaymentNotifier = MultiNotifier(nil)

// MultiNotifier fans a notice out to every notifier and joins their errors.
// One failing channel does not stop the others.
type MultiNotifier []adapter.PaymentNotifier

func (m MultiNotifier) NotifyBuyer(ctx context.Context, n adapter.Notice) error {
	var errs []error
	for _, x := range m {
		if err := x.NotifyBuyer(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiNotifier) NotifyOperator(ctx context.Context, n adapter.Notice) error {
	var errs []error
	for _, x := range m {
		if err := x.NotifyOperator(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
