package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
	"discord-sales-bot/internal/infra/logging"
)

// Compile-time check
var _ PaymentLedger = (*ledgerUC)(nil)

// PaymentLedger owns every payment record. Status changes go through
// Transition only; callers always receive copies.
type PaymentLedger interface {
	Create(ctx context.Context, in NewPayment) (*model.Payment, error)
	Get(ctx context.Context, id string) (*model.Payment, error)
	// ListByStatus returns a snapshot, newest first. An empty status lists everything.
	ListByStatus(ctx context.Context, status model.PaymentStatus, limit int) ([]*model.Payment, error)
	// Transition moves a pending payment to a terminal status. A payment that
	// already sits in the requested status comes back with ErrAlreadyTerminal.
	Transition(ctx context.Context, id string, to model.PaymentStatus, actor string, extra TransitionExtra) (*model.Payment, error)
	Delete(ctx context.Context, id, actor string) (bool, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.Payment, error)
	Summary(ctx context.Context) (*model.SalesSummary, error)
}

// NewPayment is the input of PaymentLedger.Create. Zero values fall back to
// the configured defaults.
type NewPayment struct {
	Principal   string
	DisplayName string
	Plan        string
	Amount      decimal.Decimal
	Method      string
	Manual      bool
	Metadata    map[string]any
}

type TransitionExtra struct {
	CancelReason string
	Metadata     map[string]any
	// Current is the caller's read of the pending payment. Transition reads
	// it itself when nil.
	Current *model.Payment
}

// PaymentDefaults are applied to NewPayment fields left empty.
type PaymentDefaults struct {
	Amount decimal.Decimal
	Method string
	Plan   string
}

type ledgerUC struct {
	payments repository.PaymentRepository
	defaults PaymentDefaults
	now      func() time.Time
	log      *zerolog.Logger
}

func NewPaymentLedger(payments repository.PaymentRepository, defaults PaymentDefaults, logger *zerolog.Logger) *ledgerUC {
	if defaults.Amount.IsZero() {
		defaults.Amount = model.DefaultPaymentAmount
	}
	if defaults.Method == "" {
		defaults.Method = model.DefaultPaymentMethod
	}
	if defaults.Plan == "" {
		defaults.Plan = model.DefaultPlan
	}
	l := logger.With().Str("component", "ledger").Logger()
	return &ledgerUC{payments: payments, defaults: defaults, now: time.Now, log: &l}
}

func (u *ledgerUC) Create(ctx context.Context, in NewPayment) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "Ledger.Create")()

	if strings.TrimSpace(in.Principal) == "" {
		return nil, fmt.Errorf("%w: principal is required", domain.ErrInvalidArgument)
	}
	if in.Amount.IsZero() {
		in.Amount = u.defaults.Amount
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}
	if in.Method == "" {
		in.Method = u.defaults.Method
	}
	if in.Plan == "" {
		in.Plan = u.defaults.Plan
	}
	prefix := model.PaymentIDPrefix
	if in.Manual {
		prefix = model.ManualPaymentIDPrefix
	}

	now := u.now().UTC()
	p := &model.Payment{
		ID:          model.NewPaymentID(prefix, now),
		PrincipalID: in.Principal,
		DisplayName: in.DisplayName,
		Plan:        in.Plan,
		Amount:      in.Amount.Round(2),
		Method:      in.Method,
		Status:      model.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata:    in.Metadata,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		u.log.Error().Err(err).Str("principal_id", in.Principal).Msg("failed to persist payment")
		return nil, err
	}
	u.log.Info().Str("payment_id", p.ID).Str("principal_id", p.PrincipalID).Str("amount", p.Amount.StringFixed(2)).Msg("payment created")
	return p.Clone(), nil
}

func (u *ledgerUC) Get(ctx context.Context, id string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (u *ledgerUC) ListByStatus(ctx context.Context, status model.PaymentStatus, limit int) ([]*model.Payment, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidArgument, status)
	}
	list, err := u.payments.List(ctx, repository.NoTX, status, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Payment, 0, len(list))
	for _, p := range list {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (u *ledgerUC) Transition(ctx context.Context, id string, to model.PaymentStatus, actor string, extra TransitionExtra) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "Ledger.Transition")()

	if !model.PaymentStatusPending.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: target %q", domain.ErrInvalidTransition, to)
	}

	now := u.now().UTC()
	t := model.PaymentTransition{Status: to, At: now, Metadata: copyMeta(extra.Metadata)}
	switch to {
	case model.PaymentStatusPaid:
		if actor != "" {
			t.ConfirmedBy = &actor
		}
	case model.PaymentStatusCancelled:
		if extra.CancelReason != "" {
			reason := extra.CancelReason
			t.CancelReason = &reason
		}
		t.Metadata = withMeta(t.Metadata, "cancelled_by", actor)
	case model.PaymentStatusExpired:
		t.Metadata = withMeta(t.Metadata, "expired_by", actor)
	}

	before := extra.Current
	if before == nil {
		var err error
		if before, err = u.Get(ctx, id); err != nil {
			return nil, err
		}
	}

	ok, err := u.payments.UpdateStatusIfPending(ctx, repository.NoTX, id, t)
	if err != nil {
		u.log.Error().Err(err).Str("payment_id", id).Str("to", string(to)).Msg("transition failed")
		return nil, err
	}
	if ok {
		// the store only moves a pending row, so snapshot plus transition is the persisted state
		p := before.Clone()
		p.Apply(t)
		u.log.Info().Str("payment_id", id).Str("to", string(to)).Str("actor", actor).Msg("payment transitioned")
		return p, nil
	}

	current, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case current.Status == to:
		return current, domain.ErrAlreadyTerminal
	default:
		return current, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, to)
	}
}

func (u *ledgerUC) Delete(ctx context.Context, id, actor string) (bool, error) {
	ok, err := u.payments.Delete(ctx, repository.NoTX, id)
	if err != nil {
		return false, err
	}
	if ok {
		u.log.Warn().Str("payment_id", id).Str("actor", actor).Msg("payment deleted")
	}
	return ok, nil
}

func (u *ledgerUC) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.Payment, error) {
	return u.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, limit)
}

func (u *ledgerUC) Summary(ctx context.Context) (*model.SalesSummary, error) {
	return u.payments.Summary(ctx, repository.NoTX)
}

func copyMeta(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func withMeta(m map[string]any, key, value string) map[string]any {
	if value == "" {
		return m
	}
	if m == nil {
		m = map[string]any{}
	}
	m[key] = value
	return m
}
