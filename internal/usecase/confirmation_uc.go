package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/adapter"
	"discord-sales-bot/internal/infra/logging"
)

var _ ConfirmationDispatcher = (*confirmationUC)(nil)

// ConfirmationDispatcher is the only path from a trigger (command, webhook,
// dashboard, scheduler) to a terminal payment status. Side effects of a
// transition run once, on the call that applied it.
type ConfirmationDispatcher interface {
	Confirm(ctx context.Context, paymentID string, src model.ConfirmationSource, metadata map[string]any) (*ConfirmationResult, error)
	// Cancel refuses payments that are already paid with ErrInvalidTransition.
	Cancel(ctx context.Context, paymentID string, src model.ConfirmationSource, reason string) (*ConfirmationResult, error)
	Expire(ctx context.Context, paymentID string) (*ConfirmationResult, error)
}

// ConfirmationResult carries the outcome plus anything that went wrong after
// the status change was committed. SideEffectErr never means the change was undone.
type ConfirmationResult struct {
	Outcome       model.ConfirmationOutcome
	Payment       *model.Payment
	IssuedKey     *model.AccessKey
	SideEffectErr error
}

type confirmationUC struct {
	ledger   PaymentLedger
	locker   adapter.Locker
	notifier adapter.PaymentNotifier
	keys     KeyUseCase      // nil disables key issuance
	stock    SettingsUseCase // nil disables the sold counter
	log      *zerolog.Logger
}

func NewConfirmationDispatcher(
	ledger PaymentLedger,
	locker adapter.Locker,
	notifier adapter.PaymentNotifier,
	keys KeyUseCase,
	stock SettingsUseCase,
	logger *zerolog.Logger,
) *confirmationUC {
	l := logger.With().Str("component", "dispatcher").Logger()
	return &confirmationUC{ledger: ledger, locker: locker, notifier: notifier, keys: keys, stock: stock, log: &l}
}

func lockKey(paymentID string) string { return "payment:" + paymentID }

func (u *confirmationUC) Confirm(ctx context.Context, paymentID string, src model.ConfirmationSource, metadata map[string]any) (*ConfirmationResult, error) {
	defer logging.TraceDuration(u.log, "Dispatcher.Confirm")()

	meta := copyMeta(metadata)
	meta = withMeta(meta, "confirmed_via", string(src.Kind))
	return u.resolve(ctx, paymentID, model.PaymentStatusPaid, src, TransitionExtra{Metadata: meta})
}

func (u *confirmationUC) Cancel(ctx context.Context, paymentID string, src model.ConfirmationSource, reason string) (*ConfirmationResult, error) {
	defer logging.TraceDuration(u.log, "Dispatcher.Cancel")()
	return u.resolve(ctx, paymentID, model.PaymentStatusCancelled, src, TransitionExtra{CancelReason: reason})
}

func (u *confirmationUC) Expire(ctx context.Context, paymentID string) (*ConfirmationResult, error) {
	src := model.ConfirmationSource{Kind: model.SourceScheduler, Actor: "expiry"}
	return u.resolve(ctx, paymentID, model.PaymentStatusExpired, src, TransitionExtra{})
}

func (u *confirmationUC) resolve(ctx context.Context, paymentID string, to model.PaymentStatus, src model.ConfirmationSource, extra TransitionExtra) (*ConfirmationResult, error) {
	release, err := u.locker.Lock(ctx, lockKey(paymentID))
	if err != nil {
		return nil, fmt.Errorf("lock payment %s: %w", paymentID, err)
	}
	defer release()

	// past this point the transition runs to completion even if the trigger goes away
	work := logging.WithPaymentID(context.WithoutCancel(ctx), paymentID)
	log := logging.With(work, u.log)

	current, err := u.ledger.Get(work, paymentID)
	if errors.Is(err, domain.ErrNotFound) {
		return &ConfirmationResult{Outcome: model.OutcomeNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return settled(current, to)
	}

	extra.Current = current
	p, err := u.ledger.Transition(work, paymentID, to, src.String(), extra)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &ConfirmationResult{Outcome: model.OutcomeNotFound}, nil
	case errors.Is(err, domain.ErrAlreadyTerminal), errors.Is(err, domain.ErrInvalidTransition) && p != nil:
		// another process won the store CAS
		return settled(p, to)
	case err != nil:
		return nil, err
	}

	log.Info().Str("to", string(to)).Str("source", src.String()).Msg("payment resolved")
	res := &ConfirmationResult{Outcome: model.OutcomeApplied, Payment: p}
	res.IssuedKey, res.SideEffectErr = u.sideEffects(work, log, p, src, extra.CancelReason)
	return res, nil
}

// settled classifies a payment that was already terminal when the call arrived.
func settled(p *model.Payment, to model.PaymentStatus) (*ConfirmationResult, error) {
	res := &ConfirmationResult{Payment: p}
	switch p.Status {
	case model.PaymentStatusPaid:
		res.Outcome = model.OutcomeAlreadyConfirmed
	case model.PaymentStatusCancelled:
		res.Outcome = model.OutcomeAlreadyCancelled
	case model.PaymentStatusExpired:
		res.Outcome = model.OutcomeAlreadyExpired
	}
	if p.Status == to {
		return res, nil
	}
	return res, fmt.Errorf("%w: payment is %s", domain.ErrInvalidTransition, p.Status)
}

func (u *confirmationUC) sideEffects(ctx context.Context, log *zerolog.Logger, p *model.Payment, src model.ConfirmationSource, reason string) (*model.AccessKey, error) {
	var (
		errs []error
		key  *model.AccessKey
		kind adapter.NoticeKind
	)

	switch p.Status {
	case model.PaymentStatusPaid:
		kind = adapter.NoticeConfirmed
		if u.stock != nil {
			if _, err := u.stock.RecordSale(ctx, src.String()); err != nil {
				log.Error().Err(err).Msg("failed to record sale")
				errs = append(errs, fmt.Errorf("record sale: %w", err))
			}
		}
		if u.keys != nil {
			k, err := u.keys.IssueForPayment(ctx, p, src.String())
			if err != nil {
				log.Error().Err(err).Msg("failed to issue key")
				errs = append(errs, fmt.Errorf("issue key: %w", err))
			} else {
				key = k
			}
		}
	case model.PaymentStatusCancelled:
		kind = adapter.NoticeCancelled
	case model.PaymentStatusExpired:
		kind = adapter.NoticeExpired
	}

	if u.notifier != nil {
		n := adapter.Notice{Kind: kind, Payment: p, Source: src, Key: key, Reason: reason}
		if err := u.notifier.NotifyBuyer(ctx, n); err != nil {
			log.Warn().Err(err).Msg("buyer notification failed")
			errs = append(errs, fmt.Errorf("notify buyer: %w", err))
		}
		if err := u.notifier.NotifyOperator(ctx, n); err != nil {
			log.Warn().Err(err).Msg("operator notification failed")
			errs = append(errs, fmt.Errorf("notify operator: %w", err))
		}
	}
	return key, errors.Join(errs...)
}
