package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/infra/gateway"
	"discord-sales-bot/internal/infra/logging"
	"discord-sales-bot/internal/infra/metrics"
)

const maxWebhookBody = 1 << 20

type webhookAck struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

// handleWebhook turns a gateway call into at most one confirmation. Only
// failures the gateway should retry (store, lookup) answer 5xx.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := chi.URLParam(r, "gateway")
	a, ok := s.deps.Gateways.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown gateway"})
		return
	}

	result := "error"
	defer func() { metrics.ObserveWebhook(a.Name(), result, time.Since(start)) }()

	ctx := r.Context()
	log := logging.With(ctx, s.log).With().Str("gateway", a.Name()).Logger()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		result = "bad_payload"
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unreadable body"})
		return
	}
	if err := a.Verify(ctx, body, r.Header); err != nil {
		result = "bad_signature"
		log.Warn().Err(err).Msg("webhook signature rejected")
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid signature"})
		return
	}

	ev, err := a.Parse(ctx, body)
	switch {
	case errors.Is(err, gateway.ErrEventIgnored):
		result = "ignored"
		writeJSON(w, http.StatusOK, webhookAck{Received: true})
		return
	case errors.Is(err, gateway.ErrLookupUnavailable):
		result = "ignored"
		log.Warn().Msg("status lookup not configured, notification acknowledged without confirming")
		writeJSON(w, http.StatusOK, webhookAck{Received: true})
		return
	case errors.Is(err, gateway.ErrInvalidPayload):
		result = "bad_payload"
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payload"})
		return
	case err != nil:
		log.Error().Err(err).Msg("gateway status lookup failed")
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "status lookup failed"})
		return
	}

	log = log.With().Str("payment_id", ev.ExternalReference).Str("gateway_status", ev.Status).Logger()
	if !ev.Approved {
		result = "not_approved"
		log.Info().Msg("webhook status does not confirm")
		writeJSON(w, http.StatusOK, webhookAck{Received: true})
		return
	}

	src := model.ConfirmationSource{Kind: model.SourceWebhook, Actor: ev.Gateway}
	res, err := s.deps.Dispatcher.Confirm(ctx, ev.ExternalReference, src, ev.Metadata())
	switch {
	case err != nil && errors.Is(err, domain.ErrInvalidTransition) && res != nil:
		// cancelled or expired before the money arrived; retrying will not help
		result = string(res.Outcome)
		metrics.ObserveResolution("confirm", string(model.SourceWebhook), result, nil)
		log.Warn().Str("outcome", result).Msg("approved payment is no longer pending")
		writeJSON(w, http.StatusOK, webhookAck{Received: true, Outcome: result})
		return
	case err != nil:
		metrics.ObserveResolution("confirm", string(model.SourceWebhook), "error", nil)
		log.Error().Err(err).Msg("webhook confirmation failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "confirmation failed"})
		return
	}

	result = string(res.Outcome)
	var applied *model.Payment
	if res.Outcome == model.OutcomeApplied {
		applied = res.Payment
	}
	metrics.ObserveResolution("confirm", string(model.SourceWebhook), result, applied)
	if res.Outcome == model.OutcomeNotFound {
		log.Warn().Msg("webhook for unknown payment")
	}
	writeJSON(w, http.StatusOK, webhookAck{Received: true, Outcome: result})
}
