package discord

import (
	"context"
	"strings"

	"discord-sales-bot/internal/application"
)

type commandHandler func(ctx context.Context, cmd command) (string, error)

// commandRoutes maps every chat command to its handler. Portuguese names are
// kept next to the English ones.
func (b *Bot) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"help":  b.handleHelp,
		"ajuda": b.handleHelp,

		"payment":        b.handlePayment,
		"pagamento":      b.withUsage("pagamento", b.facade.HandleOfferPayment),
		"addcliente":     b.withUsage("addcliente", b.facade.HandleManualSale),
		"checkpayment":   b.handleCheckPayment,
		"confirmpayment": b.withUsage("confirmpayment", b.facade.HandleConfirmPayment),
		"cancelpayment":  b.withUsage("cancelpayment", b.facade.HandleCancelPayment),
		"payments":       b.handleListPayments,
		"pagamentos":     b.handleListPayments,

		"vendas":   func(ctx context.Context, _ command) (string, error) { return b.facade.HandleSales(ctx) },
		"clientes": func(ctx context.Context, _ command) (string, error) { return b.facade.HandleCustomers(ctx) },
		"status":   func(ctx context.Context, _ command) (string, error) { return b.facade.HandleStatus(ctx) },

		"listusers": func(ctx context.Context, _ command) (string, error) { return b.facade.HandleListUsers(ctx) },

		"keys": func(ctx context.Context, cmd command) (string, error) {
			return b.facade.HandleKeys(ctx, cmd.Caller, cmd.IsOwner, cmd.Args)
		},
		"chaves": func(ctx context.Context, cmd command) (string, error) { return b.facade.HandleListKeys(ctx, cmd.Args) },
		"redeem": b.withUsage("redeem", b.facade.HandleRedeem),
		"atendimento": func(ctx context.Context, cmd command) (string, error) {
			return b.facade.HandleSupport(ctx, cmd.Caller, cmd.Args)
		},

		"send": func(ctx context.Context, cmd command) (string, error) {
			return b.facade.HandleSendChannel(ctx, cmd.Args, b.usage("send"))
		},
		"dm": func(ctx context.Context, cmd command) (string, error) {
			return b.facade.HandleSendDirect(ctx, cmd.Args, b.usage("dm"))
		},

		// owner only
		"adduser": b.ownerOnly(func(ctx context.Context, cmd command) (string, error) {
			return b.facade.HandleAddUser(ctx, cmd.Args, b.usage("adduser"))
		}),
		"removeuser": b.ownerOnly(func(ctx context.Context, cmd command) (string, error) {
			return b.facade.HandleRemoveUser(ctx, cmd.Args, b.usage("removeuser"))
		}),
		"deletepayment": b.ownerOnly(func(ctx context.Context, cmd command) (string, error) {
			return b.facade.HandleDeletePayment(ctx, cmd.Caller, cmd.Args, b.usage("deletepayment"))
		}),
		"setlimit": b.ownerOnly(b.withUsage("setlimit", b.facade.HandleSetLimit)),
		"genkey": b.ownerOnly(func(ctx context.Context, cmd command) (string, error) {
			return b.facade.HandleGenerateKey(ctx, cmd.Caller, cmd.Args)
		}),
		"backup":  b.ownerOnly(func(ctx context.Context, cmd command) (string, error) { return b.facade.HandleBackup(ctx, cmd.Args) }),
		"backups": b.ownerOnly(func(ctx context.Context, _ command) (string, error) { return b.facade.HandleListBackups(ctx) }),
		"restore": b.ownerOnly(func(ctx context.Context, cmd command) (string, error) {
			return b.facade.HandleRestore(ctx, cmd.Args, b.usage("restore"))
		}),
	}
}

func (b *Bot) ownerOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, cmd command) (string, error) {
		if !cmd.IsOwner {
			return b.tr.T("error_owner_only"), nil
		}
		return next(ctx, cmd)
	}
}

func (b *Bot) usage(name string) string {
	return b.tr.T("usage_"+name, b.cfg.Prefix)
}

// withUsage adapts the facade handlers that take the caller, the args and a usage text.
func (b *Bot) withUsage(name string, fn func(ctx context.Context, c application.Caller, args []string, usage string) (string, error)) commandHandler {
	return func(ctx context.Context, cmd command) (string, error) {
		return fn(ctx, cmd.Caller, cmd.Args, b.usage(name))
	}
}

func (b *Bot) handleHelp(_ context.Context, cmd command) (string, error) {
	return b.facade.HandleHelp(cmd.IsOwner, b.cfg.Prefix), nil
}

// handlePayment dispatches "!payment <create|list|check|confirm|cancel> ...".
func (b *Bot) handlePayment(ctx context.Context, cmd command) (string, error) {
	if len(cmd.Args) == 0 {
		return b.usage("payment"), nil
	}
	sub := cmd
	sub.Args = cmd.Args[1:]
	switch strings.ToLower(cmd.Args[0]) {
	case "create", "criar":
		return b.facade.HandleCreatePayment(ctx, cmd.Caller, sub.Args)
	case "list", "listar":
		return b.handleListPayments(ctx, sub)
	case "check":
		return b.handleCheckPayment(ctx, sub)
	case "confirm":
		return b.facade.HandleConfirmPayment(ctx, cmd.Caller, sub.Args, b.usage("confirmpayment"))
	case "cancel":
		return b.facade.HandleCancelPayment(ctx, cmd.Caller, sub.Args, b.usage("cancelpayment"))
	}
	return b.usage("payment"), nil
}

func (b *Bot) handleCheckPayment(ctx context.Context, cmd command) (string, error) {
	return b.facade.HandleCheckPayment(ctx, cmd.Args, b.usage("checkpayment"))
}

func (b *Bot) handleListPayments(ctx context.Context, cmd command) (string, error) {
	return b.facade.HandleListPayments(ctx, cmd.Args)
}
