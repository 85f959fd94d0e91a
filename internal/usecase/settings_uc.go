package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
)

var _ SettingsUseCase = (*settingsUC)(nil)

// SettingsUseCase covers the key stock counters and the support-mode flag.
type SettingsUseCase interface {
	Stock(ctx context.Context) (model.KeyStock, error)
	// EnsureAvailable fails with ErrOutOfStock when every key of the period is sold.
	EnsureAvailable(ctx context.Context) error
	RecordSale(ctx context.Context, actor string) (int64, error)
	SetLimit(ctx context.Context, limit int, actor string) error
	SetSold(ctx context.Context, sold int, actor string) error
	SupportActive(ctx context.Context) (bool, error)
	SetSupportActive(ctx context.Context, active bool, actor string) error
}

type settingsUC struct {
	settings     repository.SettingRepository
	defaultLimit int
	log          *zerolog.Logger
}

func NewSettingsUseCase(settings repository.SettingRepository, defaultLimit int, logger *zerolog.Logger) *settingsUC {
	return &settingsUC{settings: settings, defaultLimit: defaultLimit, log: logger}
}

func (u *settingsUC) Stock(ctx context.Context) (model.KeyStock, error) {
	limit, err := u.intSetting(ctx, model.SettingKeysTotalLimit, u.defaultLimit)
	if err != nil {
		return model.KeyStock{}, err
	}
	sold, err := u.intSetting(ctx, model.SettingKeysSoldCount, 0)
	if err != nil {
		return model.KeyStock{}, err
	}
	return model.KeyStock{Limit: limit, Sold: sold}, nil
}

func (u *settingsUC) EnsureAvailable(ctx context.Context) error {
	s, err := u.Stock(ctx)
	if err != nil {
		return err
	}
	if s.Available() == 0 {
		return fmt.Errorf("%w: %d/%d sold", domain.ErrOutOfStock, s.Sold, s.Limit)
	}
	return nil
}

func (u *settingsUC) RecordSale(ctx context.Context, actor string) (int64, error) {
	return u.settings.Increment(ctx, repository.NoTX, model.SettingKeysSoldCount, 1, actor)
}

func (u *settingsUC) SetLimit(ctx context.Context, limit int, actor string) error {
	if limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidArgument)
	}
	return u.put(ctx, model.SettingKeysTotalLimit, strconv.Itoa(limit), actor)
}

func (u *settingsUC) SetSold(ctx context.Context, sold int, actor string) error {
	if sold < 0 {
		return fmt.Errorf("%w: sold count must not be negative", domain.ErrInvalidArgument)
	}
	return u.put(ctx, model.SettingKeysSoldCount, strconv.Itoa(sold), actor)
}

func (u *settingsUC) SupportActive(ctx context.Context) (bool, error) {
	s, err := u.settings.Get(ctx, repository.NoTX, model.SettingSupportActive)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	v, _ := strconv.ParseBool(s.Value)
	return v, nil
}

func (u *settingsUC) SetSupportActive(ctx context.Context, active bool, actor string) error {
	return u.put(ctx, model.SettingSupportActive, strconv.FormatBool(active), actor)
}

func (u *settingsUC) put(ctx context.Context, key, value, actor string) error {
	s := &model.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	if actor != "" {
		s.UpdatedBy = &actor
	}
	if err := u.settings.Upsert(ctx, repository.NoTX, s); err != nil {
		return err
	}
	u.log.Info().Str("setting", key).Str("value", value).Str("actor", actor).Msg("setting updated")
	return nil
}

func (u *settingsUC) intSetting(ctx context.Context, key string, fallback int) (int, error) {
	s, err := u.settings.Get(ctx, repository.NoTX, key)
	if errors.Is(err, domain.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s.Value)
	if err != nil {
		u.log.Warn().Str("setting", key).Str("value", s.Value).Msg("non-numeric setting, using default")
		return fallback, nil
	}
	return n, nil
}
