package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/infra/metrics"
	"discord-sales-bot/internal/usecase"
)

// KeyExpiryWorker moves active keys past their expiry to expired.
type KeyExpiryWorker struct {
	interval time.Duration
	keys     usecase.KeyUseCase
	log      *zerolog.Logger
}

func NewKeyExpiryWorker(interval time.Duration, keys usecase.KeyUseCase, logger *zerolog.Logger) *KeyExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "KeyExpiryWorker").Logger()
	return &KeyExpiryWorker{interval: interval, keys: keys, log: &l}
}

func (w *KeyExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting key expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping key expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

func (w *KeyExpiryWorker) Tick(ctx context.Context) int {
	n, err := w.keys.ExpireDue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("key expiry sweep failed")
		return 0
	}
	if n > 0 {
		metrics.AddKeys("expired", n)
		w.log.Info().Int("count", n).Msg("expired keys swept")
	}
	return n
}
