package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"discord-sales-bot/internal/application"
	"discord-sales-bot/internal/config"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/adapter"
	"discord-sales-bot/internal/domain/ports/repository"
	"discord-sales-bot/internal/infra/backup"
	pg "discord-sales-bot/internal/infra/db/postgres"
	"discord-sales-bot/internal/infra/discord"
	"discord-sales-bot/internal/infra/gateway"
	httpapi "discord-sales-bot/internal/infra/http"
	"discord-sales-bot/internal/infra/i18n"
	"discord-sales-bot/internal/infra/inmem"
	"discord-sales-bot/internal/infra/logging"
	"discord-sales-bot/internal/infra/metrics"
	red "discord-sales-bot/internal/infra/redis"
	"discord-sales-bot/internal/infra/sched"
	"discord-sales-bot/internal/infra/telegram"
	"discord-sales-bot/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "console logs at debug level")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("bot stopped")
	}
	logger.Info().Msg("bye")
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	started := time.Now()
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		return err
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool, logger); err != nil {
		return err
	}

	// ---- Redis (optional) ----
	var (
		locker   adapter.Locker
		limiter  discord.RateLimiter
		settings repository.SettingRepository = pg.NewSettingRepo(pool)
	)
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()
		locker = red.NewLocker(rc, cfg.Redis.LockTTL, logger)
		limiter = red.NewRateLimiter(rc)
		settings = pg.NewSettingRepoCacheDecorator(settings, rc, time.Minute, logger)
		logger.Info().Msg("redis enabled for locks, rate limits and settings cache")
	} else {
		locker = inmem.NewKeyedLocker()
		limiter = inmem.NewRateLimiter()
	}

	// ---- Use cases ----
	amount, err := decimal.NewFromString(cfg.Payment.DefaultAmount)
	if err != nil {
		return err
	}
	duration, err := model.ParseKeyDuration(cfg.Keys.DefaultDuration)
	if err != nil {
		return err
	}
	keyRepo := pg.NewAccessKeyRepo(pool)

	ledger := usecase.NewPaymentLedger(pg.NewPaymentRepo(pool), usecase.PaymentDefaults{
		Amount: amount,
		Method: cfg.Payment.DefaultMethod,
		Plan:   cfg.Payment.DefaultPlan,
	}, logger)
	authz := usecase.NewAuthorizationRegistry(pg.NewUserRepo(pool), cfg.Bot.OwnerID, logger)
	if err := authz.Load(ctx); err != nil {
		return err
	}
	stock := usecase.NewSettingsUseCase(settings, cfg.Keys.TotalLimit, logger)
	gen := usecase.NewKeyGenerator(keyRepo, cfg.Keys.MaxAttempts, logger)
	keys := usecase.NewKeyUseCase(keyRepo, gen, usecase.KeyPolicy{Length: cfg.Keys.Length, DefaultDuration: duration}, logger)
	stats := usecase.NewStatsUseCase(ledger, stock, authz, started, logger)

	// ---- Discord transport ----
	session, err := discord.NewSession(cfg.Bot.Token)
	if err != nil {
		return err
	}
	messenger := discord.NewMessenger(session)
	notifiers := usecase.MultiNotifier{discord.NewNotifier(messenger, tr, cfg.Bot.OwnerID)}

	var issuer usecase.KeyUseCase
	if cfg.Keys.IssueOnConfirm {
		issuer = keys
	}

	// the dispatcher sees the Telegram mirror through this slice, appended below
	dispatcher := usecase.NewConfirmationDispatcher(ledger, locker, &notifiers, issuer, stock, logger)

	// ---- Backups ----
	dumper, err := backup.NewPgDumper(cfg.Database.URL, cfg.Backup.PgDumpPath, cfg.Backup.PsqlPath)
	if err != nil {
		return err
	}
	backups, err := backup.NewManager(backup.Config{
		Dir:       cfg.Backup.Dir,
		Product:   cfg.Backup.Product,
		Retention: cfg.Backup.Retention,
	}, dumper, logger)
	if err != nil {
		return err
	}

	facade := application.NewBotFacade(ledger, dispatcher, authz, keys, stock, stats, backups, messenger, tr, logger)

	// ---- Telegram operator mirror (optional) ----
	var operator *telegram.OperatorBot
	if cfg.Telegram.Token != "" {
		operator, err = telegram.NewOperatorBot(cfg.Telegram, facade, tr, logger)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, operator)
	}

	bot, err := discord.NewBot(session, cfg.Bot, facade, authz, limiter, tr, logger)
	if err != nil {
		return err
	}

	// ---- HTTP: webhooks, dashboard, metrics ----
	srv := httpapi.NewServer(cfg.HTTP, httpapi.Deps{
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Authz:      authz,
		Keys:       keys,
		Stats:      stats,
		Backups:    backups,
		Messenger:  messenger,
		Gateways:   newGateways(cfg.Webhook),
	}, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return bot.Start(ctx) })
	if operator != nil {
		g.Go(func() error { return operator.StartPolling(ctx) })
	}
	if cfg.Payment.PendingTTL > 0 {
		w := sched.NewPaymentExpiryWorker(ledger, dispatcher, cfg.Payment.ExpiryInterval, cfg.Payment.PendingTTL, logger)
		g.Go(func() error { return w.Run(ctx) })
	}
	keySweeper := sched.NewKeyExpiryWorker(cfg.Keys.SweepInterval, keys, logger)
	g.Go(func() error { return keySweeper.Run(ctx) })
	g.Go(func() error {
		pg.ReportPoolStats(ctx, pool, 30*time.Second)
		return nil
	})

	if cfg.Backup.AutoHours > 0 {
		if err := backups.StartAutoBackup(ctx, cfg.Backup.AutoHours); err != nil {
			return err
		}
		defer backups.StopAutoBackup()
	}

	logger.Info().Str("version", version).Str("language", tr.Lang()).Msg("bot running")
	return g.Wait()
}

func newGateways(cfg config.WebhookConfig) *gateway.Registry {
	verifier := func(name string) gateway.HMACVerifier {
		return gateway.HMACVerifier{Secret: cfg.Secrets[name], Header: cfg.SignatureHeader}
	}

	var mp gateway.MercadoPagoLookup
	if cfg.MercadoPago.AccessToken != "" {
		mp = gateway.NewMercadoPagoClient(cfg.MercadoPago.BaseURL, cfg.MercadoPago.AccessToken, 10*time.Second)
	}
	var ps gateway.PagSeguroLookup
	if cfg.PagSeguro.Token != "" {
		ps = gateway.NewPagSeguroClient(cfg.PagSeguro.BaseURL, cfg.PagSeguro.Email, cfg.PagSeguro.Token, 10*time.Second)
	}

	return gateway.NewRegistry(
		gateway.NewGeneric(verifier("generic")),
		gateway.NewMercadoPago(verifier("mercadopago"), mp),
		gateway.NewPagSeguro(verifier("pagseguro"), ps),
		gateway.NewStripe(cfg.Secrets["stripe"]),
	)
}
