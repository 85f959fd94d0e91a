package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/infra/metrics"
	"discord-sales-bot/internal/usecase"
)

const expiryBatch = 200

// PaymentExpiryWorker periodically expires payments left pending longer than
// ttl. Each one goes through the dispatcher, so a confirmation racing the
// sweep still wins or loses cleanly.
type PaymentExpiryWorker struct {
	ledger     usecase.PaymentLedger
	dispatcher usecase.ConfirmationDispatcher
	interval   time.Duration
	ttl        time.Duration
	log        *zerolog.Logger
}

func NewPaymentExpiryWorker(ledger usecase.PaymentLedger, dispatcher usecase.ConfirmationDispatcher, interval, ttl time.Duration, logger *zerolog.Logger) *PaymentExpiryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "PaymentExpiryWorker").Logger()
	return &PaymentExpiryWorker{ledger: ledger, dispatcher: dispatcher, interval: interval, ttl: ttl, log: &l}
}

func (w *PaymentExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("ttl", w.ttl).Msg("Starting payment expiry worker")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment expiry worker")
			return ctx.Err()
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one sweep and returns how many payments it expired.
func (w *PaymentExpiryWorker) Tick(ctx context.Context) int {
	cutoff := time.Now().Add(-w.ttl)
	stale, err := w.ledger.ListPendingOlderThan(ctx, cutoff, expiryBatch)
	if err != nil {
		w.log.Error().Err(err).Msg("list stale payments failed")
		return 0
	}
	n := 0
	for _, p := range stale {
		res, err := w.dispatcher.Expire(ctx, p.ID)
		if err != nil {
			w.log.Warn().Err(err).Str("payment_id", p.ID).Msg("expire failed")
			metrics.IncConfirmation("expire", string(model.SourceScheduler), "error")
			continue
		}
		if res.Outcome == model.OutcomeApplied {
			metrics.ObserveResolution("expire", string(model.SourceScheduler), string(res.Outcome), res.Payment)
			n++
			continue
		}
		metrics.ObserveResolution("expire", string(model.SourceScheduler), string(res.Outcome), nil)
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("stale payments expired")
	}
	return n
}
