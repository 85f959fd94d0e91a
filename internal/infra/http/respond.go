package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/usecase"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrConfirmRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrOwnerImmutable), errors.Is(err, domain.ErrOwnerOnly):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrBackupInProgress),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrKeyUnavailable):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExhaustedKeySpace), errors.Is(err, domain.ErrLockTimeout):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

type paymentDTO struct {
	ID           string         `json:"id"`
	PrincipalID  string         `json:"principal_id"`
	DisplayName  string         `json:"display_name,omitempty"`
	Plan         string         `json:"plan"`
	Amount       string         `json:"amount"`
	Method       string         `json:"method"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	ConfirmedAt  *time.Time     `json:"confirmed_at,omitempty"`
	ConfirmedBy  *string        `json:"confirmed_by,omitempty"`
	CancelReason *string        `json:"cancel_reason,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func toPaymentDTO(p *model.Payment) paymentDTO {
	return paymentDTO{
		ID:           p.ID,
		PrincipalID:  p.PrincipalID,
		DisplayName:  p.DisplayName,
		Plan:         p.Plan,
		Amount:       p.Amount.StringFixed(2),
		Method:       p.Method,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		ConfirmedAt:  p.ConfirmedAt,
		ConfirmedBy:  p.ConfirmedBy,
		CancelReason: p.CancelReason,
		Metadata:     p.Metadata,
	}
}

type keyDTO struct {
	Value     string     `json:"value"`
	Plan      string     `json:"plan"`
	Duration  string     `json:"duration"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	PaymentID *string    `json:"payment_id,omitempty"`
	UsedBy    *string    `json:"used_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toKeyDTO(k *model.AccessKey) keyDTO {
	return keyDTO{
		Value:     k.Value,
		Plan:      k.PlanType,
		Duration:  string(k.Duration),
		Status:    string(k.Status),
		ExpiresAt: k.ExpiresAt,
		PaymentID: k.PaymentID,
		UsedBy:    k.UsedBy,
		CreatedAt: k.CreatedAt,
	}
}

type resolutionDTO struct {
	Outcome   string      `json:"outcome"`
	Payment   *paymentDTO `json:"payment,omitempty"`
	IssuedKey *keyDTO     `json:"issued_key,omitempty"`
	Warning   string      `json:"warning,omitempty"`
}

func toResolutionDTO(res *usecase.ConfirmationResult) resolutionDTO {
	out := resolutionDTO{Outcome: string(res.Outcome)}
	if res.Payment != nil {
		p := toPaymentDTO(res.Payment)
		out.Payment = &p
	}
	if res.IssuedKey != nil {
		k := toKeyDTO(res.IssuedKey)
		out.IssuedKey = &k
	}
	if res.SideEffectErr != nil {
		out.Warning = res.SideEffectErr.Error()
	}
	return out
}

type backupDTO struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func toBackupDTO(b model.BackupRecord) backupDTO {
	return backupDTO{Name: b.Name, SizeBytes: b.SizeBytes, CreatedAt: b.CreatedAt}
}
