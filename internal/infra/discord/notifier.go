package discord

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"discord-sales-bot/internal/domain/ports/adapter"
	"discord-sales-bot/internal/infra/metrics"
)

// Translator renders reply texts in the configured language.
type Translator interface {
	T(key string, args ...interface{}) string
}

var _ adapter.PaymentNotifier = (*Notifier)(nil)

// Notifier sends payment events by DM: to the buyer and to the owner.
type Notifier struct {
	m       adapter.Messenger
	tr      Translator
	ownerID string
}

func NewNotifier(m adapter.Messenger, tr Translator, ownerID string) *Notifier {
	return &Notifier{m: m, tr: tr, ownerID: ownerID}
}

func amount(d decimal.Decimal) string { return "R$ " + d.StringFixed(2) }

func (n *Notifier) NotifyBuyer(ctx context.Context, ev adapter.Notice) error {
	p := ev.Payment
	if p == nil || p.PrincipalID == "" {
		return nil
	}
	var text string
	switch ev.Kind {
	case adapter.NoticeConfirmed:
		text = n.tr.T("notify_buyer_confirmed", amount(p.Amount), p.ID)
		if ev.Key != nil {
			text += "\n" + n.tr.T("notify_buyer_key", ev.Key.Value)
		}
	case adapter.NoticeCancelled:
		text = n.tr.T("notify_buyer_cancelled", p.ID, ev.Reason)
	case adapter.NoticeExpired:
		text = n.tr.T("notify_buyer_expired", p.ID)
	default:
		return fmt.Errorf("unknown notice kind %q", ev.Kind)
	}
	err := n.m.SendDirect(ctx, p.PrincipalID, text)
	metrics.IncNotification("discord", "buyer", err)
	return err
}

func (n *Notifier) NotifyOperator(ctx context.Context, ev adapter.Notice) error {
	p := ev.Payment
	if p == nil || n.ownerID == "" {
		return nil
	}
	// the owner already sees the reply to their own command
	if ev.Source.Actor == n.ownerID {
		return nil
	}
	var text string
	switch ev.Kind {
	case adapter.NoticeConfirmed:
		text = n.tr.T("notify_operator_confirmed", p.ID, p.PrincipalID, amount(p.Amount), ev.Source.String())
	case adapter.NoticeCancelled:
		text = n.tr.T("notify_operator_cancelled", p.ID, p.PrincipalID, amount(p.Amount), ev.Source.String(), ev.Reason)
	case adapter.NoticeExpired:
		text = n.tr.T("notify_operator_expired", p.ID, p.PrincipalID, amount(p.Amount))
	default:
		return fmt.Errorf("unknown notice kind %q", ev.Kind)
	}
	err := n.m.SendDirect(ctx, n.ownerID, text)
	metrics.IncNotification("discord", "operator", err)
	return err
}
