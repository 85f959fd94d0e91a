//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/adapter"
	"discord-sales-bot/internal/usecase"
)

type dispatcherDeps struct {
	payments *MockPaymentRepo
	keys     *MockAccessKeyRepo
	settings *MockSettingRepo
	notifier *MockNotifier
	locker   *MockLocker
	ledger   usecase.PaymentLedger
}

func newDispatcherDeps() *dispatcherDeps {
	d := &dispatcherDeps{
		payments: NewMockPaymentRepo(),
		keys:     NewMockAccessKeyRepo(),
		settings: NewMockSettingRepo(),
		notifier: &MockNotifier{},
		locker:   NewMockLocker(),
	}
	d.ledger = usecase.NewPaymentLedger(d.payments, usecase.PaymentDefaults{}, newTestLogger())
	return d
}

func (d *dispatcherDeps) dispatcher(withKeys bool) usecase.ConfirmationDispatcher {
	logger := newTestLogger()
	var keys usecase.KeyUseCase
	if withKeys {
		keys = usecase.NewKeyUseCase(d.keys, usecase.NewKeyGenerator(d.keys, 0, logger), usecase.KeyPolicy{}, logger)
	}
	stock := usecase.NewSettingsUseCase(d.settings, 100, logger)
	return usecase.NewConfirmationDispatcher(d.ledger, d.locker, d.notifier, keys, stock, logger)
}

var byCommand = model.ConfirmationSource{Kind: model.SourceCommand, Actor: "222222222222222222"}

func TestConfirmationDispatcher_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("should apply once and report already_confirmed afterwards", func(t *testing.T) {
		// --- Arrange ---
		deps := newDispatcherDeps()
		d := deps.dispatcher(false)
		p, err := deps.ledger.Create(ctx, usecase.NewPayment{
			Principal: "111111111111111111",
			Amount:    decimal.RequireFromString("100.00"),
			Method:    "PIX",
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		// --- Act ---
		first, err := d.Confirm(ctx, p.ID, byCommand, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		second, err := d.Confirm(ctx, p.ID, model.ConfirmationSource{Kind: model.SourceWebhook, Actor: "stripe"}, nil)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error on repeat, got %v", err)
		}
		if first.Outcome != model.OutcomeApplied {
			t.Errorf("expected applied, got %s", first.Outcome)
		}
		if first.Payment.Status != model.PaymentStatusPaid || first.Payment.ConfirmedAt == nil {
			t.Errorf("expected paid with confirmedAt, got %+v", first.Payment)
		}
		if second.Outcome != model.OutcomeAlreadyConfirmed {
			t.Errorf("expected already_confirmed, got %s", second.Outcome)
		}
		if deps.notifier.BuyerCount() != 1 || len(deps.notifier.Operator) != 1 {
			t.Errorf("expected exactly one notification each, got buyer=%d operator=%d", deps.notifier.BuyerCount(), len(deps.notifier.Operator))
		}
		stored, _ := deps.ledger.Get(ctx, p.ID)
		if stored.Metadata["confirmed_via"] != string(model.SourceCommand) {
			t.Errorf("expected confirmed_via metadata, got %v", stored.Metadata)
		}
	})

	t.Run("should let exactly one concurrent confirm apply", func(t *testing.T) {
		deps := newDispatcherDeps()
		d := deps.dispatcher(true)
		p, _ := deps.ledger.Create(ctx, usecase.NewPayment{Principal: "111111111111111111"})

		const callers = 16
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			outcomes = map[model.ConfirmationOutcome]int{}
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := d.Confirm(ctx, p.ID, byCommand, nil)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				mu.Lock()
				outcomes[res.Outcome]++
				mu.Unlock()
			}()
		}
		wg.Wait()

		if outcomes[model.OutcomeApplied] != 1 || outcomes[model.OutcomeAlreadyConfirmed] != callers-1 {
			t.Fatalf("unexpected outcomes %v", outcomes)
		}
		if deps.notifier.BuyerCount() != 1 {
			t.Errorf("expected one buyer notification, got %d", deps.notifier.BuyerCount())
		}
		if deps.keys.Len() != 1 {
			t.Errorf("expected exactly one issued key, got %d", deps.keys.Len())
		}
		sold, _ := deps.settings.Get(ctx, nil, model.SettingKeysSoldCount)
		if sold == nil || sold.Value != "1" {
			t.Errorf("expected sold counter 1, got %v", sold)
		}
	})

	t.Run("should report already_confirmed from a second dispatcher sharing the store", func(t *testing.T) {
		// two processes share the store but not the lock
		deps := newDispatcherDeps()
		p, _ := deps.ledger.Create(ctx, usecase.NewPayment{Principal: "111111111111111111"})
		a := deps.dispatcher(false)
		deps.locker = NewMockLocker()
		b := deps.dispatcher(false)

		r1, _ := a.Confirm(ctx, p.ID, byCommand, nil)
		r2, _ := b.Confirm(ctx, p.ID, byCommand, nil)
		if r1.Outcome != model.OutcomeApplied || r2.Outcome != model.OutcomeAlreadyConfirmed {
			t.Fatalf("unexpected outcomes %s / %s", r1.Outcome, r2.Outcome)
		}
	})

	t.Run("should report not_found for unknown ids", func(t *testing.T) {
		deps := newDispatcherDeps()
		res, err := deps.dispatcher(false).Confirm(ctx, "PAY_missing", byCommand, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Outcome != model.OutcomeNotFound {
			t.Errorf("expected not_found, got %s", res.Outcome)
		}
		if deps.notifier.BuyerCount() != 0 {
			t.Error("expected no notification")
		}
	})

	t.Run("should keep the payment paid when notification fails", func(t *testing.T) {
		deps := newDispatcherDeps()
		deps.notifier.NotifyBuyerFunc = func(ctx context.Context, n adapter.Notice) error {
			return errors.New("cannot send messages to this user")
		}
		d := deps.dispatcher(true)
		p, _ := deps.ledger.Create(ctx, usecase.NewPayment{Principal: "111111111111111111"})

		res, err := d.Confirm(ctx, p.ID, byCommand, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Outcome != model.OutcomeApplied || res.SideEffectErr == nil {
			t.Fatalf("expected applied with side-effect error, got %+v", res)
		}
		if res.IssuedKey == nil {
			t.Error("expected a key to be issued despite the failed notification")
		}
		stored, _ := deps.ledger.Get(ctx, p.ID)
		if stored.Status != model.PaymentStatusPaid {
			t.Errorf("expected paid, got %s", stored.Status)
		}
	})

	t.Run("should run side effects when the store read after commit fails", func(t *testing.T) {
		deps := newDispatcherDeps()
		d := deps.dispatcher(true)
		p, _ := deps.ledger.Create(ctx, usecase.NewPayment{Principal: "111111111111111111"})
		deps.payments.ReadErrAfterUpdate = errors.New("connection reset by peer")

		res, err := d.Confirm(ctx, p.ID, byCommand, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Outcome != model.OutcomeApplied || res.Payment.Status != model.PaymentStatusPaid {
			t.Fatalf("expected applied and paid, got %+v", res)
		}
		if deps.notifier.BuyerCount() != 1 {
			t.Errorf("expected one buyer notice, got %d", deps.notifier.BuyerCount())
		}
		if res.IssuedKey == nil || deps.keys.Len() != 1 {
			t.Errorf("expected exactly one key issued, got %v (stored %d)", res.IssuedKey, deps.keys.Len())
		}
	})

	t.Run("should refuse to confirm a cancelled payment", func(t *testing.T) {
		deps := newDispatcherDeps()
		d := deps.dispatcher(false)
		p, _ := deps.ledger.Create(ctx, usecase.NewPayment{Principal: "111111111111111111"})
		_, _ = d.Cancel(ctx, p.ID, byCommand, "wrong amount")

		res, err := d.Confirm(ctx, p.ID, byCommand, nil)
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
		if res.Outcome != model.OutcomeAlreadyCancelled {
			t.Errorf("expected already_cancelled, got %s", res.Outcome)
		}
	})

	t.Run("should fail fast when the lock is unavailable", func(t *testing.T) {
		deps := newDispatcherDeps()
		deps.locker.Err = domain.ErrLockTimeout
		d := deps.dispatcher(false)
		p, _ := deps.ledger.Create(ctx, usecase.NewPayment{Principal: "111111111111111111"})

		if _, err := d.Confirm(ctx, p.ID, byCommand, nil); !errors.Is(err, domain.ErrLockTimeout) {
			t.Fatalf("expected ErrLockTimeout, got %v", err)
		}
		stored, _ := deps.ledger.Get(ctx, p.ID)
		if stored.Status != model.PaymentStatusPending {
			t.Errorf("expected pending, got %s", stored.Status)
		}
	})
}

func TestConfirmationDispatcher_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("should cancel once and tolerate repeats", func(t *testing.T) {
		deps := newDispatcherDeps()
		d := deps.dispatcher(false)
		p, _ := deps.ledger.Create(ctx, usecase.NewPayment{Principal: "111111111111111111"})

		r1, err := d.Cancel(ctx, p.ID, byCommand, "buyer gave up")
		if err != nil || r1.Outcome != model.OutcomeApplied {
			t.Fatalf("expected applied, got %v %v", r1, err)
		}
		r2, err := d.Cancel(ctx, p.ID, byCommand, "again")
		if err != nil || r2.Outcome != model.OutcomeAlreadyCancelled {
			t.Fatalf("expected already_cancelled, got %v %v", r2, err)
		}
		if len(deps.notifier.Buyer) != 1 || deps.notifier.Buyer[0].Kind != adapter.NoticeCancelled {
			t.Errorf("expected one cancellation notice, got %v", deps.notifier.Buyer)
		}
	})

	t.Run("should refuse to cancel a paid payment", func(t *testing.T) {
		deps := newDispatcherDeps()
		d := deps.dispatcher(false)
		p, _ := deps.ledger.Create(ctx, usecase.NewPayment{Principal: "111111111111111111"})
		_, _ = d.Confirm(ctx, p.ID, byCommand, nil)

		res, err := d.Cancel(ctx, p.ID, byCommand, "too late")
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
		if res.Outcome != model.OutcomeAlreadyConfirmed {
			t.Errorf("expected already_confirmed, got %s", res.Outcome)
		}
		stored, _ := deps.ledger.Get(ctx, p.ID)
		if stored.Status != model.PaymentStatusPaid {
			t.Errorf("expected paid, got %s", stored.Status)
		}
	})
}

func TestConfirmationDispatcher_Expire(t *testing.T) {
	ctx := context.Background()
	deps := newDispatcherDeps()
	d := deps.dispatcher(false)
	p, _ := deps.ledger.Create(ctx, usecase.NewPayment{Principal: "111111111111111111"})

	res, err := d.Expire(ctx, p.ID)
	if err != nil || res.Outcome != model.OutcomeApplied {
		t.Fatalf("expected applied, got %v %v", res, err)
	}
	if _, err := d.Confirm(ctx, p.ID, byCommand, nil); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected expired payment to refuse confirmation, got %v", err)
	}
}

func TestMultiNotifier(t *testing.T) {
	a := &MockNotifier{NotifyBuyerFunc: func(ctx context.Context, n adapter.Notice) error { return errors.New("dm closed") }}
	b := &MockNotifier{}
	m := usecase.MultiNotifier{a, b}

	err := m.NotifyBuyer(context.Background(), adapter.Notice{Kind: adapter.NoticeConfirmed})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if b.BuyerCount() != 1 {
		t.Error("expected second notifier to be called despite the first failing")
	}
}
