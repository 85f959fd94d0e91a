package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
	"discord-sales-bot/internal/infra/logging"
)

var _ KeyUseCase = (*keyUC)(nil)

// KeyUseCase issues and redeems access keys.
type KeyUseCase interface {
	Issue(ctx context.Context, plan string, d model.KeyDuration, createdBy string) (*model.AccessKey, error)
	// IssueForPayment returns the key bound to the payment, creating it on first call.
	IssueForPayment(ctx context.Context, p *model.Payment, createdBy string) (*model.AccessKey, error)
	Redeem(ctx context.Context, value, principal string) (*model.AccessKey, error)
	ExpireDue(ctx context.Context) (int, error)
	List(ctx context.Context, status model.KeyStatus, limit int) ([]*model.AccessKey, error)
}

const insertAttempts = 3

type KeyPolicy struct {
	Length          int
	DefaultDuration model.KeyDuration
}

type keyUC struct {
	keys   repository.AccessKeyRepository
	gen    KeyGenerator
	policy KeyPolicy
	now    func() time.Time
	log    *zerolog.Logger
}

func NewKeyUseCase(keys repository.AccessKeyRepository, gen KeyGenerator, policy KeyPolicy, logger *zerolog.Logger) *keyUC {
	if policy.Length <= 0 {
		policy.Length = model.DefaultKeyLength
	}
	if policy.DefaultDuration == "" {
		policy.DefaultDuration = model.KeyDurationMonthly
	}
	l := logger.With().Str("component", "keys").Logger()
	return &keyUC{keys: keys, gen: gen, policy: policy, now: time.Now, log: &l}
}

func (u *keyUC) Issue(ctx context.Context, plan string, d model.KeyDuration, createdBy string) (*model.AccessKey, error) {
	return u.issue(ctx, plan, d, createdBy, nil)
}

func (u *keyUC) IssueForPayment(ctx context.Context, p *model.Payment, createdBy string) (*model.AccessKey, error) {
	defer logging.TraceDuration(u.log, "Keys.IssueForPayment")()

	existing, err := u.keys.FindByPayment(ctx, repository.NoTX, p.ID)
	if err == nil && existing != nil {
		return existing, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	k, err := u.issue(ctx, p.Plan, u.policy.DefaultDuration, createdBy, &p.ID)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// lost a race with another issuer for the same payment
		return u.keys.FindByPayment(ctx, repository.NoTX, p.ID)
	}
	return k, err
}

func (u *keyUC) issue(ctx context.Context, plan string, d model.KeyDuration, createdBy string, paymentID *string) (*model.AccessKey, error) {
	if d == "" {
		d = u.policy.DefaultDuration
	}
	if plan == "" {
		plan = model.DefaultPlan
	}
	var lastErr error
	for attempt := 0; attempt < insertAttempts; attempt++ {
		value, err := u.gen.GenerateUnique(ctx, u.policy.Length)
		if err != nil {
			return nil, err
		}
		k := model.NewAccessKey(value, plan, d, createdBy, u.now().UTC())
		k.PaymentID = paymentID
		err = u.keys.Insert(ctx, repository.NoTX, k)
		if err == nil {
			u.log.Info().Str("key", logging.Redact(k.Value, false)).Str("duration", string(d)).Msg("key issued")
			return k, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		if paymentID != nil {
			if bound, ferr := u.keys.FindByPayment(ctx, repository.NoTX, *paymentID); ferr == nil && bound != nil {
				return nil, err
			}
		}
		// value was taken between Exists and Insert; draw again
		lastErr = err
	}
	return nil, lastErr
}

func (u *keyUC) Redeem(ctx context.Context, value, principal string) (*model.AccessKey, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return nil, fmt.Errorf("%w: key is required", domain.ErrInvalidArgument)
	}
	now := u.now().UTC()
	ok, err := u.keys.MarkUsed(ctx, repository.NoTX, value, principal, now)
	if err != nil {
		return nil, err
	}
	k, err := u.keys.FindByValue(ctx, repository.NoTX, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return k, fmt.Errorf("%w: status %s", domain.ErrKeyUnavailable, k.Status)
	}
	u.log.Info().Str("principal_id", principal).Msg("key redeemed")
	return k, nil
}

func (u *keyUC) ExpireDue(ctx context.Context) (int, error) {
	return u.keys.ExpireDue(ctx, repository.NoTX, u.now().UTC())
}

func (u *keyUC) List(ctx context.Context, status model.KeyStatus, limit int) ([]*model.AccessKey, error) {
	return u.keys.ListByStatus(ctx, repository.NoTX, status, limit)
}
