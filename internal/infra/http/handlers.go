package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/infra/metrics"
	"discord-sales-bot/internal/usecase"
)

const dashboardActor = "dashboard"

var dashboardSource = model.ConfirmationSource{Kind: model.SourceDashboard, Actor: dashboardActor}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > 500 {
		return 500
	}
	return n
}

// ===== auth =====

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-API-Key")
	if key == "" {
		var req tokenRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		key = req.APIKey
	}
	if !s.auth.CheckAPIKey(key) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}
	tok, exp, err := s.auth.Mint()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok, ExpiresAt: exp})
}

// ===== payments =====

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	var status model.PaymentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := model.ParsePaymentStatus(raw)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err))
			return
		}
		status = st
	}
	list, err := s.deps.Ledger.ListByStatus(r.Context(), status, queryLimit(r, 100))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]paymentDTO, 0, len(list))
	for _, p := range list {
		items = append(items, toPaymentDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type createPaymentRequest struct {
	PrincipalID string `json:"principal_id"`
	DisplayName string `json:"display_name"`
	Plan        string `json:"plan"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	principal, err := model.ParsePrincipalID(req.PrincipalID)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err))
		return
	}
	in := usecase.NewPayment{
		Principal:   principal,
		DisplayName: req.DisplayName,
		Plan:        req.Plan,
		Method:      req.Method,
		Metadata:    map[string]any{"created_via": dashboardActor},
	}
	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: amount %q", domain.ErrInvalidArgument, req.Amount))
			return
		}
		in.Amount = amount
	}
	p, err := s.deps.Ledger.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.IncPayment(string(model.PaymentStatusPending))
	writeJSON(w, http.StatusCreated, toPaymentDTO(p))
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(p))
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Dispatcher.Confirm(r.Context(), chi.URLParam(r, "id"), dashboardSource, nil)
	s.writeResolution(w, r, "confirm", res, err)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	res, err := s.deps.Dispatcher.Cancel(r.Context(), chi.URLParam(r, "id"), dashboardSource, req.Reason)
	s.writeResolution(w, r, "cancel", res, err)
}

// writeResolution answers 200 for applied and idempotent repeats, 404 for an
// unknown id and 409 when the payment sits in another terminal state.
func (s *Server) writeResolution(w http.ResponseWriter, r *http.Request, action string, res *usecase.ConfirmationResult, err error) {
	source := string(model.SourceDashboard)
	if err != nil {
		if res != nil && errors.Is(err, domain.ErrInvalidTransition) {
			metrics.ObserveResolution(action, source, string(res.Outcome), nil)
			writeJSON(w, http.StatusConflict, toResolutionDTO(res))
			return
		}
		metrics.ObserveResolution(action, source, "error", nil)
		s.writeError(w, r, err)
		return
	}

	var applied *model.Payment
	if res.Outcome == model.OutcomeApplied {
		applied = res.Payment
	}
	metrics.ObserveResolution(action, source, string(res.Outcome), applied)
	if res.Outcome == model.OutcomeNotFound {
		writeJSON(w, http.StatusNotFound, toResolutionDTO(res))
		return
	}
	writeJSON(w, http.StatusOK, toResolutionDTO(res))
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	ok, err := s.deps.Ledger.Delete(r.Context(), chi.URLParam(r, "id"), dashboardActor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, domain.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== users =====

type userDTO struct {
	PrincipalID  string    `json:"principal_id"`
	DisplayName  string    `json:"display_name,omitempty"`
	IsOwner      bool      `json:"is_owner"`
	AuthorizedAt time.Time `json:"authorized_at"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Authz.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]userDTO, 0, len(users))
	for _, u := range users {
		items = append(items, userDTO{PrincipalID: u.PrincipalID, DisplayName: u.DisplayName, IsOwner: u.IsOwner, AuthorizedAt: u.AuthorizedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type addUserRequest struct {
	PrincipalID string `json:"principal_id"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := model.ParsePrincipalID(req.PrincipalID)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err))
		return
	}
	if err := s.deps.Authz.Add(r.Context(), id, req.DisplayName); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userDTO{PrincipalID: id, DisplayName: req.DisplayName, AuthorizedAt: time.Now().UTC()})
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParsePrincipalID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err))
		return
	}
	if err := s.deps.Authz.Remove(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== messages, stats, keys =====

type messageRequest struct {
	PrincipalID string `json:"principal_id"`
	Text        string `json:"text"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Messenger == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "messaging unavailable"})
		return
	}
	var req messageRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := model.ParsePrincipalID(req.PrincipalID)
	if err != nil || strings.TrimSpace(req.Text) == "" {
		s.writeError(w, r, fmt.Errorf("%w: principal_id and text are required", domain.ErrInvalidArgument))
		return
	}
	if err := s.deps.Messenger.SendDirect(r.Context(), id, req.Text); err != nil {
		metrics.IncNotification("discord", "manual", err)
		s.log.Error().Err(err).Str("principal_id", id).Msg("manual message failed")
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "message delivery failed"})
		return
	}
	metrics.IncNotification("discord", "manual", nil)
	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

type statsResponse struct {
	Payments struct {
		Total     int `json:"total"`
		Pending   int `json:"pending"`
		Paid      int `json:"paid"`
		Cancelled int `json:"cancelled"`
		Expired   int `json:"expired"`
	} `json:"payments"`
	Revenue         string `json:"revenue"`
	ConversionRate  string `json:"conversion_rate"`
	UniqueCustomers int    `json:"unique_customers"`
	PayingCustomers int    `json:"paying_customers"`
	Stock           struct {
		Limit     int `json:"limit"`
		Sold      int `json:"sold"`
		Available int `json:"available"`
	} `json:"stock"`
	AuthorizedUsers int    `json:"authorized_users"`
	SupportActive   bool   `json:"support_active"`
	Uptime          string `json:"uptime"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sales, err := s.deps.Stats.Sales(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.deps.Stats.Status(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var out statsResponse
	sum := sales.Summary
	out.Payments.Total = sum.Total
	out.Payments.Pending = sum.Pending
	out.Payments.Paid = sum.Paid
	out.Payments.Cancelled = sum.Cancelled
	out.Payments.Expired = sum.Expired
	out.Revenue = sum.Revenue.StringFixed(2)
	out.ConversionRate = sum.ConversionRate().StringFixed(1)
	out.UniqueCustomers = sum.UniqueCustomers
	out.PayingCustomers = sum.PayingCustomers
	out.Stock.Limit = sales.Stock.Limit
	out.Stock.Sold = sales.Stock.Sold
	out.Stock.Available = sales.Stock.Available()
	out.AuthorizedUsers = st.AuthorizedUsers
	out.SupportActive = st.SupportActive
	out.Uptime = st.Uptime.Truncate(time.Second).String()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	status := model.KeyStatus(strings.ToLower(r.URL.Query().Get("status")))
	switch status {
	case "", model.KeyStatusActive, model.KeyStatusUsed, model.KeyStatusExpired:
	default:
		s.writeError(w, r, fmt.Errorf("%w: status %q", domain.ErrInvalidArgument, status))
		return
	}
	keys, err := s.deps.Keys.List(r.Context(), status, queryLimit(r, 50))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]keyDTO, 0, len(keys))
	for _, k := range keys {
		items = append(items, toKeyDTO(k))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ===== backups =====

func (s *Server) backupsAvailable(w http.ResponseWriter) bool {
	if s.deps.Backups == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "backups unavailable"})
		return false
	}
	return true
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	if !s.backupsAvailable(w) {
		return
	}
	list, err := s.deps.Backups.ListBackups(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.deps.Backups.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]backupDTO, 0, len(list))
	for _, b := range list {
		items = append(items, toBackupDTO(b))
	}
	resp := map[string]any{
		"items":       items,
		"auto_active": st.AutoActive,
		"retention":   st.Retention,
	}
	if st.AutoActive {
		resp["interval"] = st.Interval.String()
		if st.NextRun != nil {
			resp["next_run"] = st.NextRun
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if !s.backupsAvailable(w) {
		return
	}
	rec, err := s.deps.Backups.CreateBackup(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBackupDTO(*rec))
}

type restoreRequest struct {
	Name    string `json:"name"`
	Confirm bool   `json:"confirm"`
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	if !s.backupsAvailable(w) {
		return
	}
	var req restoreRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !req.Confirm {
		s.writeError(w, r, domain.ErrConfirmRequired)
		return
	}
	if err := s.deps.Backups.RestoreBackup(r.Context(), req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Warn().Str("backup", req.Name).Msg("database restored from dashboard")
	writeJSON(w, http.StatusOK, map[string]any{"restored": req.Name})
}
