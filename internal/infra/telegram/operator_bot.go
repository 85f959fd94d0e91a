package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"discord-sales-bot/internal/application"
	"discord-sales-bot/internal/config"
	"discord-sales-bot/internal/domain/ports/adapter"
	"discord-sales-bot/internal/infra/metrics"
)

// Translator renders reply texts in the configured language.
type Translator interface {
	T(key string, args ...interface{}) string
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var _ adapter.PaymentNotifier = (*OperatorBot)(nil)

// OperatorBot mirrors payment events into one Telegram chat and answers a few
// read-only report commands sent from that chat.
type OperatorBot struct {
	bot    *tgbotapi.BotAPI
	out    sender
	chatID int64
	facade *application.BotFacade
	tr     Translator
	log    *zerolog.Logger
}

func NewOperatorBot(cfg config.TelegramConfig, facade *application.BotFacade, tr Translator, logger *zerolog.Logger) (*OperatorBot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.OperatorChatID == 0 {
		return nil, errors.New("telegram operator chat id is not set")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return newOperatorBot(bot, bot, cfg.OperatorChatID, facade, tr, logger), nil
}

func newOperatorBot(bot *tgbotapi.BotAPI, out sender, chatID int64, facade *application.BotFacade, tr Translator, logger *zerolog.Logger) *OperatorBot {
	l := logger.With().Str("component", "telegram").Logger()
	return &OperatorBot{bot: bot, out: out, chatID: chatID, facade: facade, tr: tr, log: &l}
}

// NotifyBuyer is a no-op: buyers are reached on Discord only.
func (o *OperatorBot) NotifyBuyer(context.Context, adapter.Notice) error { return nil }

func (o *OperatorBot) NotifyOperator(ctx context.Context, n adapter.Notice) error {
	p := n.Payment
	if p == nil {
		return nil
	}
	amount := "R$ " + p.Amount.StringFixed(2)
	var text string
	switch n.Kind {
	case adapter.NoticeConfirmed:
		text = o.tr.T("notify_operator_confirmed", p.ID, p.PrincipalID, amount, n.Source.String())
	case adapter.NoticeCancelled:
		text = o.tr.T("notify_operator_cancelled", p.ID, p.PrincipalID, amount, n.Source.String(), n.Reason)
	case adapter.NoticeExpired:
		text = o.tr.T("notify_operator_expired", p.ID, p.PrincipalID, amount)
	default:
		return nil
	}
	err := o.SendMessage(ctx, text)
	metrics.IncNotification("telegram", "operator", err)
	return err
}

func (o *OperatorBot) SendMessage(_ context.Context, text string) error {
	_, err := o.out.Send(tgbotapi.NewMessage(o.chatID, text))
	return err
}

// StartPolling reads updates until ctx is canceled.
func (o *OperatorBot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := o.bot.GetUpdatesChan(u)
	defer o.bot.StopReceivingUpdates()

	o.log.Info().Int64("chat_id", o.chatID).Msg("telegram operator mirror started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if err := o.handleUpdate(ctx, up); err != nil {
				o.log.Warn().Err(err).Msg("telegram update failed")
			}
		}
	}
}

// handleUpdate answers report commands from the operator chat and ignores everything else.
func (o *OperatorBot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Chat.ID != o.chatID || !msg.IsCommand() {
		return nil
	}

	var (
		text string
		err  error
	)
	name := strings.ToLower(msg.Command())
	switch name {
	case "status":
		text, err = o.facade.HandleStatus(ctx)
	case "vendas", "sales":
		text, err = o.facade.HandleSales(ctx)
	case "clientes", "customers":
		text, err = o.facade.HandleCustomers(ctx)
	case "help", "start":
		text = "/status /vendas /clientes"
	default:
		return nil
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.IncCommand("tg_"+name, status)
	if sendErr := o.SendMessage(ctx, text); sendErr != nil {
		return sendErr
	}
	return err
}
