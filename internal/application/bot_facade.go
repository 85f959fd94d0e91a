package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/adapter"
	"discord-sales-bot/internal/usecase"
)

const (
	listLimit       = 20
	backupListLimit = 10
)

// BotFacade composes usecases into high-level bot commands.
// Facade methods return the reply text so the chat adapter just forwards it.
// A non-nil error is returned alongside a localized reply and is meant for
// logging and metrics only.
type BotFacade struct {
	Ledger     usecase.PaymentLedger
	Dispatcher usecase.ConfirmationDispatcher
	Authz      usecase.AuthorizationRegistry
	Keys       usecase.KeyUseCase
	Settings   usecase.SettingsUseCase
	Stats      usecase.StatsUseCase
	Backups    BackupService
	Messenger  adapter.Messenger

	tr  Translator
	log *zerolog.Logger
}

// NewBotFacade constructs a facade. Keys and Backups may be nil; the commands
// that need them then answer that the feature is disabled.
func NewBotFacade(
	ledger usecase.PaymentLedger,
	dispatcher usecase.ConfirmationDispatcher,
	authz usecase.AuthorizationRegistry,
	keys usecase.KeyUseCase,
	settings usecase.SettingsUseCase,
	stats usecase.StatsUseCase,
	backups BackupService,
	messenger adapter.Messenger,
	tr Translator,
	logger *zerolog.Logger,
) *BotFacade {
	l := logger.With().Str("component", "facade").Logger()
	return &BotFacade{
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Authz:      authz,
		Keys:       keys,
		Settings:   settings,
		Stats:      stats,
		Backups:    backups,
		Messenger:  messenger,
		tr:         tr,
		log:        &l,
	}
}

func (b *BotFacade) T(key string, args ...interface{}) string { return b.tr.T(key, args...) }

func commandSource(c Caller) model.ConfirmationSource {
	return model.ConfirmationSource{Kind: model.SourceCommand, Actor: c.ID}
}

// fail maps an error to its localized reply and passes the error through.
func (b *BotFacade) fail(err error) (string, error) {
	return b.errorText(err), err
}

func (b *BotFacade) errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return b.T("error_not_found")
	case errors.Is(err, domain.ErrOutOfStock):
		return b.T("error_out_of_stock")
	case errors.Is(err, domain.ErrOwnerImmutable):
		return b.T("error_owner_immutable")
	case errors.Is(err, domain.ErrOwnerOnly):
		return b.T("error_owner_only")
	case errors.Is(err, domain.ErrInvalidArgument):
		return b.T("error_invalid_argument", err)
	case errors.Is(err, domain.ErrBackupInProgress):
		return b.T("error_backup_in_progress")
	case errors.Is(err, domain.ErrKeyUnavailable):
		return b.T("error_key_unavailable")
	case errors.Is(err, domain.ErrExhaustedKeySpace):
		return b.T("error_key_space")
	case errors.Is(err, domain.ErrLockTimeout):
		return b.T("error_busy")
	}
	return b.T("error_generic")
}

func money(d decimal.Decimal) string { return "R$ " + d.StringFixed(2) }

// parseAmount accepts "99.99" and the Brazilian "99,99".
func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount %q", domain.ErrInvalidArgument, raw)
	}
	return d.Round(2), nil
}

func (b *BotFacade) stamp(t time.Time) string {
	return t.Local().Format("02/01/2006 15:04")
}

func (b *BotFacade) statusLabel(s model.PaymentStatus) string {
	return b.T("status_" + string(s))
}

func (b *BotFacade) paymentLine(p *model.Payment) string {
	name := p.DisplayName
	if name == "" {
		name = p.PrincipalID
	}
	return fmt.Sprintf("`%s` %s %s (%s) %s", p.ID, name, money(p.Amount), p.Plan, b.statusLabel(p.Status))
}

func (b *BotFacade) paymentCard(p *model.Payment) string {
	var sb strings.Builder
	sb.WriteString(b.T("payment_card_id", p.ID))
	sb.WriteString("\n")
	sb.WriteString(b.T("payment_card_customer", p.DisplayName, p.PrincipalID))
	sb.WriteString("\n")
	sb.WriteString(b.T("payment_card_amount", money(p.Amount), p.Method, p.Plan))
	sb.WriteString("\n")
	sb.WriteString(b.T("payment_card_status", b.statusLabel(p.Status)))
	sb.WriteString("\n")
	sb.WriteString(b.T("payment_card_created", b.stamp(p.CreatedAt)))
	if p.ConfirmedAt != nil {
		sb.WriteString("\n")
		sb.WriteString(b.T("payment_card_confirmed", b.stamp(*p.ConfirmedAt)))
	}
	if p.CancelReason != nil && *p.CancelReason != "" {
		sb.WriteString("\n")
		sb.WriteString(b.T("payment_card_reason", *p.CancelReason))
	}
	return sb.String()
}

// HandleHelp lists the commands the caller may run.
func (b *BotFacade) HandleHelp(isOwner bool, prefix string) string {
	text := b.T("help_text", prefix)
	if isOwner {
		text += "\n\n" + b.T("help_owner_text", prefix)
	}
	return text
}

// HandleCreatePayment opens a pending sale for the caller.
// args: [amount] [plan]
func (b *BotFacade) HandleCreatePayment(ctx context.Context, c Caller, args []string) (string, error) {
	in := usecase.NewPayment{Principal: c.ID, DisplayName: c.Name}
	if len(args) > 0 {
		amt, err := parseAmount(args[0])
		if err != nil {
			return b.fail(err)
		}
		in.Amount = amt
	}
	if len(args) > 1 {
		in.Plan = strings.Join(args[1:], " ")
	}
	p, err := b.openSale(ctx, in)
	if err != nil {
		return b.fail(err)
	}
	return b.T("payment_created") + "\n" + b.paymentCard(p), nil
}

// HandleOfferPayment opens a pending sale for another principal and sends
// them its details by DM.
// args: <@user> [plan] [amount]
func (b *BotFacade) HandleOfferPayment(ctx context.Context, c Caller, args []string, usage string) (string, error) {
	if len(args) < 1 {
		return usage, nil
	}
	target, err := model.ParsePrincipalID(args[0])
	if err != nil {
		return b.T("error_invalid_user", args[0]), nil
	}
	in := usecase.NewPayment{Principal: target, Metadata: map[string]any{"offered_by": c.ID}}
	if len(args) > 1 {
		in.Plan = args[1]
	}
	if len(args) > 2 {
		amt, err := parseAmount(args[2])
		if err != nil {
			return b.fail(err)
		}
		in.Amount = amt
	}
	p, err := b.openSale(ctx, in)
	if err != nil {
		return b.fail(err)
	}

	offer := b.T("payment_offer_dm", money(p.Amount), p.Plan, p.ID)
	if err := b.Messenger.SendDirect(ctx, target, offer); err != nil {
		b.log.Warn().Err(err).Str("payment_id", p.ID).Msg("payment offer DM failed")
		return b.T("payment_offer_dm_failed", p.ID), nil
	}
	return b.T("payment_offer_sent", target, p.ID), nil
}

func (b *BotFacade) openSale(ctx context.Context, in usecase.NewPayment) (*model.Payment, error) {
	if b.Settings != nil {
		if err := b.Settings.EnsureAvailable(ctx); err != nil {
			return nil, err
		}
	}
	return b.Ledger.Create(ctx, in)
}

// HandleManualSale records a sale settled outside any gateway: create and
// confirm in one step.
// args: <@user> <amount> [plan]
func (b *BotFacade) HandleManualSale(ctx context.Context, c Caller, args []string, usage string) (string, error) {
	if len(args) < 2 {
		return usage, nil
	}
	target, err := model.ParsePrincipalID(args[0])
	if err != nil {
		return b.T("error_invalid_user", args[0]), nil
	}
	amt, err := parseAmount(args[1])
	if err != nil {
		return b.fail(err)
	}
	in := usecase.NewPayment{
		Principal: target,
		Amount:    amt,
		Method:    model.ManualPaymentMethod,
		Manual:    true,
		Metadata:  map[string]any{"registered_by": c.ID},
	}
	if len(args) > 2 {
		in.Plan = strings.Join(args[2:], " ")
	}
	p, err := b.openSale(ctx, in)
	if err != nil {
		return b.fail(err)
	}
	res, err := b.Dispatcher.Confirm(ctx, p.ID, commandSource(c), nil)
	if err != nil {
		return b.fail(err)
	}
	return b.resolutionText(res, "confirm"), res.SideEffectErr
}

// HandleCheckPayment shows one payment. args: <id>
func (b *BotFacade) HandleCheckPayment(ctx context.Context, args []string, usage string) (string, error) {
	if len(args) < 1 {
		return usage, nil
	}
	p, err := b.Ledger.Get(ctx, args[0])
	if err != nil {
		return b.fail(err)
	}
	return b.paymentCard(p), nil
}

// HandleConfirmPayment routes a manual confirmation through the dispatcher. args: <id>
func (b *BotFacade) HandleConfirmPayment(ctx context.Context, c Caller, args []string, usage string) (string, error) {
	if len(args) < 1 {
		return usage, nil
	}
	res, err := b.Dispatcher.Confirm(ctx, args[0], commandSource(c), nil)
	if err != nil && (res == nil || !errors.Is(err, domain.ErrInvalidTransition)) {
		return b.fail(err)
	}
	return b.resolutionText(res, "confirm"), sideEffect(res)
}

// HandleCancelPayment args: <id> [reason...]
func (b *BotFacade) HandleCancelPayment(ctx context.Context, c Caller, args []string, usage string) (string, error) {
	if len(args) < 1 {
		return usage, nil
	}
	reason := strings.Join(args[1:], " ")
	res, err := b.Dispatcher.Cancel(ctx, args[0], commandSource(c), reason)
	if err != nil && (res == nil || !errors.Is(err, domain.ErrInvalidTransition)) {
		return b.fail(err)
	}
	return b.resolutionText(res, "cancel"), sideEffect(res)
}

func sideEffect(res *usecase.ConfirmationResult) error {
	if res == nil {
		return nil
	}
	return res.SideEffectErr
}

// resolutionText renders a dispatcher result. action is confirm or cancel.
func (b *BotFacade) resolutionText(res *usecase.ConfirmationResult, action string) string {
	switch res.Outcome {
	case model.OutcomeNotFound:
		return b.T("error_not_found")
	case model.OutcomeAlreadyConfirmed:
		return b.T("payment_already_confirmed", res.Payment.ID)
	case model.OutcomeAlreadyCancelled:
		return b.T("payment_already_cancelled", res.Payment.ID)
	case model.OutcomeAlreadyExpired:
		return b.T("payment_already_expired", res.Payment.ID)
	}

	var sb strings.Builder
	if action == "cancel" {
		sb.WriteString(b.T("payment_cancelled"))
	} else {
		sb.WriteString(b.T("payment_confirmed"))
	}
	sb.WriteString("\n")
	sb.WriteString(b.paymentCard(res.Payment))
	if res.IssuedKey != nil {
		sb.WriteString("\n")
		sb.WriteString(b.T("payment_key_issued", res.IssuedKey.Value))
	}
	if res.SideEffectErr != nil {
		sb.WriteString("\n")
		sb.WriteString(b.T("payment_side_effect_failed"))
	}
	return sb.String()
}

// HandleDeletePayment removes a record permanently. args: <id>
func (b *BotFacade) HandleDeletePayment(ctx context.Context, c Caller, args []string, usage string) (string, error) {
	if len(args) < 1 {
		return usage, nil
	}
	ok, err := b.Ledger.Delete(ctx, args[0], c.ID)
	if err != nil {
		return b.fail(err)
	}
	if !ok {
		return b.T("error_not_found"), nil
	}
	return b.T("payment_deleted", args[0]), nil
}

// HandleListPayments args: [status]
func (b *BotFacade) HandleListPayments(ctx context.Context, args []string) (string, error) {
	var status model.PaymentStatus
	if len(args) > 0 {
		s, err := model.ParsePaymentStatus(args[0])
		if err != nil {
			return b.T("error_invalid_status", args[0]), nil
		}
		status = s
	}
	ps, err := b.Ledger.ListByStatus(ctx, status, listLimit)
	if err != nil {
		return b.fail(err)
	}
	if len(ps) == 0 {
		return b.T("payments_empty"), nil
	}
	var sb strings.Builder
	sb.WriteString(b.T("payments_header", len(ps)))
	for _, p := range ps {
		sb.WriteString("\n")
		sb.WriteString(b.paymentLine(p))
	}
	return sb.String(), nil
}

func (b *BotFacade) HandleSales(ctx context.Context) (string, error) {
	rep, err := b.Stats.Sales(ctx)
	if err != nil {
		return b.fail(err)
	}
	s := rep.Summary
	return b.T("sales_report",
		s.Total, s.Paid, s.Pending, s.Cancelled, s.Expired,
		money(s.Revenue), s.ConversionRate().StringFixed(1),
		rep.Stock.Sold, rep.Stock.Limit,
	), nil
}

func (b *BotFacade) HandleCustomers(ctx context.Context) (string, error) {
	rep, err := b.Stats.Sales(ctx)
	if err != nil {
		return b.fail(err)
	}
	s := rep.Summary
	return b.T("customers_report", s.UniqueCustomers, s.PayingCustomers, rep.PendingCustomers()), nil
}

func (b *BotFacade) HandleStatus(ctx context.Context) (string, error) {
	st, err := b.Stats.Status(ctx)
	if err != nil {
		return b.fail(err)
	}
	support := b.T("support_off")
	if st.SupportActive {
		support = b.T("support_on")
	}
	return b.T("status_report",
		st.Uptime.Truncate(time.Second).String(), st.Payments, st.AuthorizedUsers,
		st.Stock.Available(), st.Stock.Limit, support,
	), nil
}

// HandleAddUser args: <@user> [display name...]
func (b *BotFacade) HandleAddUser(ctx context.Context, args []string, usage string) (string, error) {
	if len(args) < 1 {
		return usage, nil
	}
	id, err := model.ParsePrincipalID(args[0])
	if err != nil {
		return b.T("error_invalid_user", args[0]), nil
	}
	if err := b.Authz.Add(ctx, id, strings.Join(args[1:], " ")); err != nil {
		return b.fail(err)
	}
	return b.T("user_added", id), nil
}

// HandleRemoveUser args: <@user>
func (b *BotFacade) HandleRemoveUser(ctx context.Context, args []string, usage string) (string, error) {
	if len(args) < 1 {
		return usage, nil
	}
	id, err := model.ParsePrincipalID(args[0])
	if err != nil {
		return b.T("error_invalid_user", args[0]), nil
	}
	if err := b.Authz.Remove(ctx, id); err != nil {
		return b.fail(err)
	}
	return b.T("user_removed", id), nil
}

func (b *BotFacade) HandleListUsers(ctx context.Context) (string, error) {
	users, err := b.Authz.List(ctx)
	if err != nil {
		return b.fail(err)
	}
	var sb strings.Builder
	sb.WriteString(b.T("users_header", len(users)))
	for _, u := range users {
		sb.WriteString("\n")
		label := "<@" + u.PrincipalID + ">"
		if u.DisplayName != "" {
			label += " " + u.DisplayName
		}
		if u.IsOwner {
			label += " " + b.T("users_owner_tag")
		}
		sb.WriteString(label)
	}
	return sb.String(), nil
}

// HandleKeys shows the stock. With an argument the owner resets the sold counter.
// args: [sold]
func (b *BotFacade) HandleKeys(ctx context.Context, c Caller, isOwner bool, args []string) (string, error) {
	if len(args) > 0 {
		if !isOwner {
			return b.fail(domain.ErrOwnerOnly)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return b.T("error_invalid_number", args[0]), nil
		}
		if err := b.Settings.SetSold(ctx, n, c.ID); err != nil {
			return b.fail(err)
		}
	}
	st, err := b.Settings.Stock(ctx)
	if err != nil {
		return b.fail(err)
	}
	return b.T("keys_stock", st.Sold, st.Limit, st.Available()), nil
}

// HandleSetLimit args: <limit>
func (b *BotFacade) HandleSetLimit(ctx context.Context, c Caller, args []string, usage string) (string, error) {
	if len(args) < 1 {
		return usage, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return b.T("error_invalid_number", args[0]), nil
	}
	if err := b.Settings.SetLimit(ctx, n, c.ID); err != nil {
		return b.fail(err)
	}
	return b.T("keys_limit_set", n), nil
}

// HandleGenerateKey args: [plan] [duration]
func (b *BotFacade) HandleGenerateKey(ctx context.Context, c Caller, args []string) (string, error) {
	if b.Keys == nil {
		return b.T("keys_disabled"), nil
	}
	plan := model.DefaultPlan
	if len(args) > 0 {
		plan = args[0]
	}
	d := model.KeyDurationMonthly
	if len(args) > 1 {
		parsed, err := model.ParseKeyDuration(args[1])
		if err != nil {
			return b.T("error_invalid_duration", args[1]), nil
		}
		d = parsed
	}
	k, err := b.Keys.Issue(ctx, plan, d, c.ID)
	if err != nil {
		return b.fail(err)
	}
	return b.T("key_generated", k.Value, k.PlanType, string(k.Duration)), nil
}

// HandleRedeem args: <key>
func (b *BotFacade) HandleRedeem(ctx context.Context, c Caller, args []string, usage string) (string, error) {
	if b.Keys == nil {
		return b.T("keys_disabled"), nil
	}
	if len(args) < 1 {
		return usage, nil
	}
	k, err := b.Keys.Redeem(ctx, args[0], c.ID)
	if err != nil {
		return b.fail(err)
	}
	exp := b.T("key_no_expiry")
	if k.ExpiresAt != nil {
		exp = b.stamp(*k.ExpiresAt)
	}
	return b.T("key_redeemed", k.PlanType, exp), nil
}

// HandleListKeys args: [status]
func (b *BotFacade) HandleListKeys(ctx context.Context, args []string) (string, error) {
	if b.Keys == nil {
		return b.T("keys_disabled"), nil
	}
	status := model.KeyStatusActive
	if len(args) > 0 {
		status = model.KeyStatus(strings.ToLower(args[0]))
	}
	ks, err := b.Keys.List(ctx, status, listLimit)
	if err != nil {
		return b.fail(err)
	}
	if len(ks) == 0 {
		return b.T("keys_empty"), nil
	}
	var sb strings.Builder
	sb.WriteString(b.T("keys_header", len(ks), string(status)))
	for _, k := range ks {
		sb.WriteString(fmt.Sprintf("\n`%s` %s %s", k.Value, k.PlanType, k.Duration))
	}
	return sb.String(), nil
}

// HandleSupport toggles the support flag. args: [on|off]
func (b *BotFacade) HandleSupport(ctx context.Context, c Caller, args []string) (string, error) {
	if len(args) == 0 {
		active, err := b.Settings.SupportActive(ctx)
		if err != nil {
			return b.fail(err)
		}
		if active {
			return b.T("support_status", b.T("support_on")), nil
		}
		return b.T("support_status", b.T("support_off")), nil
	}
	var active bool
	switch strings.ToLower(args[0]) {
	case "on", "ativar", "ligar":
		active = true
	case "off", "desativar", "desligar":
	default:
		return b.T("support_usage"), nil
	}
	if err := b.Settings.SetSupportActive(ctx, active, c.ID); err != nil {
		return b.fail(err)
	}
	if active {
		return b.T("support_enabled"), nil
	}
	return b.T("support_disabled"), nil
}

// HandleSendChannel args: <channel id> <text...>
func (b *BotFacade) HandleSendChannel(ctx context.Context, args []string, usage string) (string, error) {
	if len(args) < 2 {
		return usage, nil
	}
	channel := strings.Trim(args[0], "<#>")
	if err := b.Messenger.SendChannel(ctx, channel, strings.Join(args[1:], " ")); err != nil {
		return b.T("message_failed"), err
	}
	return b.T("message_sent"), nil
}

// HandleSendDirect args: <@user> <text...>
func (b *BotFacade) HandleSendDirect(ctx context.Context, args []string, usage string) (string, error) {
	if len(args) < 2 {
		return usage, nil
	}
	id, err := model.ParsePrincipalID(args[0])
	if err != nil {
		return b.T("error_invalid_user", args[0]), nil
	}
	if err := b.Messenger.SendDirect(ctx, id, strings.Join(args[1:], " ")); err != nil {
		return b.T("message_failed"), err
	}
	return b.T("message_sent"), nil
}

// HandleBackup args: [create|status|start <hours>|stop]
func (b *BotFacade) HandleBackup(ctx context.Context, args []string) (string, error) {
	if b.Backups == nil {
		return b.T("backup_disabled"), nil
	}
	if len(args) == 0 {
		return b.T("backup_usage"), nil
	}
	switch strings.ToLower(args[0]) {
	case "create":
		rec, err := b.Backups.CreateBackup(ctx)
		if err != nil {
			return b.fail(err)
		}
		return b.T("backup_created", rec.Name), nil
	case "status":
		st, err := b.Backups.Status(ctx)
		if err != nil {
			return b.fail(err)
		}
		return b.backupStatusText(st), nil
	case "start":
		if len(args) < 2 {
			return b.T("backup_invalid_interval"), nil
		}
		hours, err := strconv.Atoi(args[1])
		if err != nil {
			return b.T("backup_invalid_interval"), nil
		}
		if err := b.Backups.StartAutoBackup(ctx, hours); err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				return b.T("backup_invalid_interval"), nil
			}
			return b.fail(err)
		}
		return b.T("backup_auto_started", hours), nil
	case "stop":
		if !b.Backups.StopAutoBackup() {
			return b.T("backup_auto_not_running"), nil
		}
		return b.T("backup_auto_stopped"), nil
	}
	return b.T("backup_usage"), nil
}

func (b *BotFacade) backupStatusText(st *model.BackupStatus) string {
	var sb strings.Builder
	if st.AutoActive {
		next := "-"
		if st.NextRun != nil {
			next = b.stamp(*st.NextRun)
		}
		sb.WriteString(b.T("backup_status_active", st.Interval.String(), next))
	} else {
		sb.WriteString(b.T("backup_status_inactive"))
	}
	sb.WriteString("\n")
	sb.WriteString(b.T("backup_status_files", st.Total, st.Retention))
	if st.Latest != nil {
		sb.WriteString("\n")
		sb.WriteString(b.T("backup_status_latest", st.Latest.Name, b.stamp(st.Latest.CreatedAt)))
	}
	return sb.String()
}

// HandleRestore overwrites the store from a backup. Without the confirmation
// word it only explains what would happen. args: <file> [confirm]
func (b *BotFacade) HandleRestore(ctx context.Context, args []string, usage string) (string, error) {
	if b.Backups == nil {
		return b.T("backup_disabled"), nil
	}
	if len(args) < 1 {
		return usage, nil
	}
	name := args[0]
	if len(args) < 2 || !isConfirmWord(args[1]) {
		return b.T("restore_confirm_required", name), nil
	}
	if err := b.Backups.RestoreBackup(ctx, name); err != nil {
		return b.fail(err)
	}
	return b.T("restore_done", name), nil
}

func isConfirmWord(s string) bool {
	switch strings.ToLower(s) {
	case "confirm", "confirmar", "sim", "yes":
		return true
	}
	return false
}

func (b *BotFacade) HandleListBackups(ctx context.Context) (string, error) {
	if b.Backups == nil {
		return b.T("backup_disabled"), nil
	}
	list, err := b.Backups.ListBackups(ctx)
	if err != nil {
		return b.fail(err)
	}
	if len(list) == 0 {
		return b.T("backups_empty"), nil
	}
	var sb strings.Builder
	sb.WriteString(b.T("backups_header", len(list)))
	for i, rec := range list {
		if i == backupListLimit {
			sb.WriteString("\n")
			sb.WriteString(b.T("backups_truncated", backupListLimit, len(list)))
			break
		}
		sb.WriteString(fmt.Sprintf("\n%d. `%s` %s (%s)", i+1, rec.Name, humanSize(rec.SizeBytes), b.stamp(rec.CreatedAt)))
	}
	return sb.String(), nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
