package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain/model"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Sales(ctx context.Context) (*SalesReport, error)
	Status(ctx context.Context) (*BotStatus, error)
}

// SalesReport backs the sales and customer reports.
type SalesReport struct {
	Summary model.SalesSummary
	Stock   model.KeyStock
}

func (r SalesReport) PendingCustomers() int {
	return r.Summary.UniqueCustomers - r.Summary.PayingCustomers
}

type BotStatus struct {
	Uptime          time.Duration
	Payments        int
	AuthorizedUsers int // owner included
	Stock           model.KeyStock
	SupportActive   bool
}

type statsUC struct {
	ledger   PaymentLedger
	settings SettingsUseCase
	authz    AuthorizationRegistry
	started  time.Time

	log *zerolog.Logger
}

func NewStatsUseCase(ledger PaymentLedger, settings SettingsUseCase, authz AuthorizationRegistry, started time.Time, logger *zerolog.Logger) *statsUC {
	return &statsUC{ledger: ledger, settings: settings, authz: authz, started: started, log: logger}
}

func (s *statsUC) Sales(ctx context.Context) (*SalesReport, error) {
	sum, err := s.ledger.Summary(ctx)
	if err != nil {
		return nil, err
	}
	stock, err := s.settings.Stock(ctx)
	if err != nil {
		return nil, err
	}
	return &SalesReport{Summary: *sum, Stock: stock}, nil
}

func (s *statsUC) Status(ctx context.Context) (*BotStatus, error) {
	sum, err := s.ledger.Summary(ctx)
	if err != nil {
		return nil, err
	}
	stock, err := s.settings.Stock(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.authz.List(ctx)
	if err != nil {
		return nil, err
	}
	support, err := s.settings.SupportActive(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("support flag unavailable")
	}
	return &BotStatus{
		Uptime:          time.Since(s.started).Truncate(time.Second),
		Payments:        sum.Total,
		AuthorizedUsers: len(users) + 1,
		Stock:           stock,
		SupportActive:   support,
	}, nil
}
