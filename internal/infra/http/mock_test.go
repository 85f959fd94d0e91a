package http

import (
	"context"
	"sync"
	"time"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/usecase"
)

type mockLedger struct {
	usecase.PaymentLedger
	mu       sync.Mutex
	payments map[string]*model.Payment
	created  []usecase.NewPayment
}

func newMockLedger(ps ...*model.Payment) *mockLedger {
	m := &mockLedger{payments: map[string]*model.Payment{}}
	for _, p := range ps {
		m.payments[p.ID] = p
	}
	return m
}

func (m *mockLedger) Create(_ context.Context, in usecase.NewPayment) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, in)
	now := time.Now().UTC()
	p := &model.Payment{
		ID: model.NewPaymentID("", now), PrincipalID: in.Principal, Plan: in.Plan,
		Amount: in.Amount, Method: in.Method, Status: model.PaymentStatusPending,
		CreatedAt: now, UpdatedAt: now,
	}
	m.payments[p.ID] = p
	return p, nil
}

func (m *mockLedger) Get(_ context.Context, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *mockLedger) ListByStatus(_ context.Context, status model.PaymentStatus, _ int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.payments {
		if status == "" || p.Status == status {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (m *mockLedger) Delete(_ context.Context, id, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[id]; !ok {
		return false, nil
	}
	delete(m.payments, id)
	return true, nil
}

type confirmCall struct {
	ID       string
	Source   model.ConfirmationSource
	Metadata map[string]any
}

type mockDispatcher struct {
	usecase.ConfirmationDispatcher
	mu          sync.Mutex
	calls       []confirmCall
	ConfirmFunc func(id string) (*usecase.ConfirmationResult, error)
	CancelFunc  func(id, reason string) (*usecase.ConfirmationResult, error)
}

func (m *mockDispatcher) Confirm(_ context.Context, id string, src model.ConfirmationSource, meta map[string]any) (*usecase.ConfirmationResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, confirmCall{ID: id, Source: src, Metadata: meta})
	m.mu.Unlock()
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(id)
	}
	return &usecase.ConfirmationResult{Outcome: model.OutcomeApplied, Payment: &model.Payment{ID: id, Status: model.PaymentStatusPaid}}, nil
}

func (m *mockDispatcher) Cancel(_ context.Context, id string, src model.ConfirmationSource, reason string) (*usecase.ConfirmationResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, confirmCall{ID: id, Source: src})
	m.mu.Unlock()
	if m.CancelFunc != nil {
		return m.CancelFunc(id, reason)
	}
	return &usecase.ConfirmationResult{Outcome: model.OutcomeApplied, Payment: &model.Payment{ID: id, Status: model.PaymentStatusCancelled}}, nil
}

func (m *mockDispatcher) Calls() []confirmCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]confirmCall(nil), m.calls...)
}

type mockAuthz struct {
	usecase.AuthorizationRegistry
	owner string
	added []string
}

func (m *mockAuthz) Add(_ context.Context, id, _ string) error {
	if id == m.owner {
		return domain.ErrOwnerImmutable
	}
	m.added = append(m.added, id)
	return nil
}

func (m *mockAuthz) Remove(_ context.Context, id string) error {
	if id == m.owner {
		return domain.ErrOwnerImmutable
	}
	return domain.ErrNotFound
}

type mockBackups struct {
	restored []string
}

func (m *mockBackups) CreateBackup(context.Context) (*model.BackupRecord, error) {
	return &model.BackupRecord{Name: "bot_backup_x.sql", SizeBytes: 10, CreatedAt: time.Now()}, nil
}

func (m *mockBackups) ListBackups(context.Context) ([]model.BackupRecord, error) {
	return []model.BackupRecord{{Name: "bot_backup_x.sql", SizeBytes: 10}}, nil
}

func (m *mockBackups) RestoreBackup(_ context.Context, name string) error {
	m.restored = append(m.restored, name)
	return nil
}

func (m *mockBackups) Status(context.Context) (*model.BackupStatus, error) {
	return &model.BackupStatus{Retention: 7}, nil
}
