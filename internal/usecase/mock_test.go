//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/adapter"
	"discord-sales-bot/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	data map[string]*model.Payment

	SaveFunc                  func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByIDFunc              func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, t model.PaymentTransition) (bool, error)
	DeleteFunc                func(ctx context.Context, tx repository.Tx, id string) (bool, error)

	// ReadErrAfterUpdate is returned by FindByID once any status update has committed.
	ReadErrAfterUpdate error
	updated            bool
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}}
}

func (r *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[p.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.data[p.ID] = p.Clone()
	return nil
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updated && r.ReadErrAfterUpdate != nil {
		return nil, r.ReadErrAfterUpdate
	}
	if p, ok := r.data[id]; ok {
		return p.Clone(), nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) List(ctx context.Context, tx repository.Tx, status model.PaymentStatus, limit int) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if status == "" || p.Status == status {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateStatusIfPending mirrors the store's compare-and-set.
func (r *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, t model.PaymentTransition) (bool, error) {
	if r.UpdateStatusIfPendingFunc != nil {
		return r.UpdateStatusIfPendingFunc(ctx, tx, id, t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Apply(t)
	r.updated = true
	return true, nil
}

func (r *MockPaymentRepo) Delete(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if r.DeleteFunc != nil {
		return r.DeleteFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return false, nil
	}
	delete(r.data, id)
	return true, nil
}

func (r *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *MockPaymentRepo) Summary(ctx context.Context, tx repository.Tx) (*model.SalesSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &model.SalesSummary{}
	customers, paying := map[string]bool{}, map[string]bool{}
	for _, p := range r.data {
		s.Total++
		customers[p.PrincipalID] = true
		switch p.Status {
		case model.PaymentStatusPending:
			s.Pending++
		case model.PaymentStatusPaid:
			s.Paid++
			s.Revenue = s.Revenue.Add(p.Amount)
			paying[p.PrincipalID] = true
		case model.PaymentStatusCancelled:
			s.Cancelled++
		case model.PaymentStatusExpired:
			s.Expired++
		}
	}
	s.UniqueCustomers, s.PayingCustomers = len(customers), len(paying)
	return s, nil
}

// Put seeds a payment directly.
func (r *MockPaymentRepo) Put(p *model.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p.Clone()
}

// ---- Mock AuthorizedUserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	data map[string]*model.AuthorizedUser

	InsertFunc func(ctx context.Context, tx repository.Tx, u *model.AuthorizedUser) error
	DeleteFunc func(ctx context.Context, tx repository.Tx, principalID string) (bool, error)

	Inserts int
	Deletes int
}

var _ repository.AuthorizedUserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{data: map[string]*model.AuthorizedUser{}}
}

func (r *MockUserRepo) Insert(ctx context.Context, tx repository.Tx, u *model.AuthorizedUser) error {
	r.mu.Lock()
	r.Inserts++
	r.mu.Unlock()
	if r.InsertFunc != nil {
		return r.InsertFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[u.PrincipalID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *u
	r.data[u.PrincipalID] = &cp
	return nil
}

func (r *MockUserRepo) Delete(ctx context.Context, tx repository.Tx, principalID string) (bool, error) {
	r.mu.Lock()
	r.Deletes++
	r.mu.Unlock()
	if r.DeleteFunc != nil {
		return r.DeleteFunc(ctx, tx, principalID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[principalID]; !ok {
		return false, nil
	}
	delete(r.data, principalID)
	return true, nil
}

func (r *MockUserRepo) List(ctx context.Context, tx repository.Tx) ([]*model.AuthorizedUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.AuthorizedUser, 0, len(r.data))
	for _, u := range r.data {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PrincipalID < out[j].PrincipalID })
	return out, nil
}

// ---- Mock AccessKeyRepository ----

type MockAccessKeyRepo struct {
	mu   sync.Mutex
	data map[string]*model.AccessKey

	ExistsFunc func(ctx context.Context, tx repository.Tx, value string) (bool, error)
	InsertFunc func(ctx context.Context, tx repository.Tx, k *model.AccessKey) error
}

var _ repository.AccessKeyRepository = (*MockAccessKeyRepo)(nil)

func NewMockAccessKeyRepo() *MockAccessKeyRepo {
	return &MockAccessKeyRepo{data: map[string]*model.AccessKey{}}
}

func (r *MockAccessKeyRepo) Insert(ctx context.Context, tx repository.Tx, k *model.AccessKey) error {
	if r.InsertFunc != nil {
		return r.InsertFunc(ctx, tx, k)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[k.Value]; ok {
		return domain.ErrAlreadyExists
	}
	if k.PaymentID != nil {
		for _, other := range r.data {
			if other.PaymentID != nil && *other.PaymentID == *k.PaymentID {
				return domain.ErrAlreadyExists
			}
		}
	}
	cp := *k
	r.data[k.Value] = &cp
	return nil
}

func (r *MockAccessKeyRepo) Exists(ctx context.Context, tx repository.Tx, value string) (bool, error) {
	if r.ExistsFunc != nil {
		return r.ExistsFunc(ctx, tx, value)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[value]
	return ok, nil
}

func (r *MockAccessKeyRepo) FindByValue(ctx context.Context, tx repository.Tx, value string) (*model.AccessKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.data[value]; ok {
		cp := *k
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockAccessKeyRepo) FindByPayment(ctx context.Context, tx repository.Tx, paymentID string) (*model.AccessKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.data {
		if k.PaymentID != nil && *k.PaymentID == paymentID {
			cp := *k
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockAccessKeyRepo) MarkUsed(ctx context.Context, tx repository.Tx, value, usedBy string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.data[value]
	if !ok || !k.IsRedeemable(at) {
		return false, nil
	}
	k.Status = model.KeyStatusUsed
	k.UsedBy = &usedBy
	k.UsedAt = &at
	return true, nil
}

func (r *MockAccessKeyRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.data {
		if k.Status == model.KeyStatusActive && k.ExpiresAt != nil && !k.ExpiresAt.After(now) {
			k.Status = model.KeyStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *MockAccessKeyRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.KeyStatus, limit int) ([]*model.AccessKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AccessKey
	for _, k := range r.data {
		if status == "" || k.Status == status {
			cp := *k
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockAccessKeyRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// ---- Mock SettingRepository ----

type MockSettingRepo struct {
	mu   sync.Mutex
	data map[string]*model.Setting

	IncrementFunc func(ctx context.Context, tx repository.Tx, key string, delta int64, updatedBy string) (int64, error)
}

var _ repository.SettingRepository = (*MockSettingRepo)(nil)

func NewMockSettingRepo() *MockSettingRepo {
	return &MockSettingRepo{data: map[string]*model.Setting{}}
}

func (r *MockSettingRepo) Get(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.data[key]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockSettingRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.data[s.Key] = &cp
	return nil
}

func (r *MockSettingRepo) Increment(ctx context.Context, tx repository.Tx, key string, delta int64, updatedBy string) (int64, error) {
	if r.IncrementFunc != nil {
		return r.IncrementFunc(ctx, tx, key, delta, updatedBy)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	if s, ok := r.data[key]; ok {
		n, _ = strconv.ParseInt(s.Value, 10, 64)
	}
	n += delta
	r.data[key] = &model.Setting{Key: key, Value: strconv.FormatInt(n, 10), UpdatedAt: time.Now()}
	return n, nil
}

// =============================
// Adapters
// =============================

// ---- Recording notifier ----

type MockNotifier struct {
	mu       sync.Mutex
	Buyer    []adapter.Notice
	Operator []adapter.Notice

	NotifyBuyerFunc func(ctx context.Context, n adapter.Notice) error
}

var _ adapter.PaymentNotifier = (*MockNotifier)(nil)

func (m *MockNotifier) NotifyBuyer(ctx context.Context, n adapter.Notice) error {
	m.mu.Lock()
	m.Buyer = append(m.Buyer, n)
	m.mu.Unlock()
	if m.NotifyBuyerFunc != nil {
		return m.NotifyBuyerFunc(ctx, n)
	}
	return nil
}

func (m *MockNotifier) NotifyOperator(ctx context.Context, n adapter.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Operator = append(m.Operator, n)
	return nil
}

func (m *MockNotifier) BuyerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Buyer)
}

// ---- Keyed locker ----

type MockLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	Err   error
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{locks: map[string]*sync.Mutex{}}
}

func (l *MockLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}
