package discord

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"discord-sales-bot/internal/application"
	"discord-sales-bot/internal/config"
	"discord-sales-bot/internal/infra/logging"
	"discord-sales-bot/internal/infra/metrics"
	red "discord-sales-bot/internal/infra/redis"
	"discord-sales-bot/internal/infra/worker"
	"discord-sales-bot/internal/usecase"
)

const commandTimeout = 2 * time.Minute

// RateLimiter is satisfied by both the Redis and the in-process limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, per time.Duration) (bool, error)
}

// Bot reads DM commands from the gateway and delegates them to the facade.
type Bot struct {
	session *discordgo.Session
	out     sender
	cfg     config.BotConfig
	facade  *application.BotFacade
	authz   usecase.AuthorizationRegistry
	limiter RateLimiter
	tr      Translator
	log     *zerolog.Logger

	routes map[string]commandHandler
	public map[string]bool
	pool   *worker.Pool
}

func NewBot(
	session *discordgo.Session,
	cfg config.BotConfig,
	facade *application.BotFacade,
	authz usecase.AuthorizationRegistry,
	limiter RateLimiter,
	tr Translator,
	logger *zerolog.Logger,
) (*Bot, error) {
	if session == nil {
		return nil, errors.New("discord session is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if authz == nil {
		return nil, errors.New("authorization registry is nil")
	}
	return newBot(session, session, cfg, facade, authz, limiter, tr, logger), nil
}

func newBot(session *discordgo.Session, out sender, cfg config.BotConfig, facade *application.BotFacade, authz usecase.AuthorizationRegistry, limiter RateLimiter, tr Translator, logger *zerolog.Logger) *Bot {
	if cfg.Prefix == "" {
		cfg.Prefix = "!"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	l := logger.With().Str("component", "discord").Logger()
	b := &Bot{
		session: session,
		out:     out,
		cfg:     cfg,
		facade:  facade,
		authz:   authz,
		limiter: limiter,
		tr:      tr,
		log:     &l,
		pool:    worker.NewPool("discord", cfg.Workers, &l),
	}
	b.routes = b.commandRoutes()
	b.public = map[string]bool{"help": true, "ajuda": true, "redeem": true}
	return b
}

// Start opens the gateway connection and handles messages until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.pool.Start(ctx)
	defer b.pool.Stop()

	removeReady := b.session.AddHandler(b.onReady)
	removeMsg := b.session.AddHandler(func(s *discordgo.Session, ev *discordgo.MessageCreate) {
		b.enqueue(ev.Message)
	})
	defer removeReady()
	defer removeMsg()

	if err := b.session.Open(); err != nil {
		return err
	}
	b.log.Info().Int("workers", b.cfg.Workers).Msg("discord bot connected")

	<-ctx.Done()
	if err := b.session.Close(); err != nil {
		b.log.Warn().Err(err).Msg("discord session close failed")
	}
	return ctx.Err()
}

func (b *Bot) onReady(s *discordgo.Session, ev *discordgo.Ready) {
	b.log.Info().Str("user", ev.User.Username).Str("user_id", ev.User.ID).Msg("discord ready")
	err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{{Name: b.cfg.Prefix + "help", Type: discordgo.ActivityTypeGame}},
		Status:     "online",
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("failed to update presence")
	}
}

// enqueue filters gateway events down to DM commands and hands them to the pool.
func (b *Bot) enqueue(m *discordgo.Message) {
	if !b.accepts(m) {
		return
	}
	err := b.pool.Submit(func(ctx context.Context) error {
		b.handleMessage(ctx, m)
		return nil
	})
	if err != nil {
		b.log.Warn().Err(err).Str("user_id", m.Author.ID).Msg("dropping command")
		metrics.IncCommand("unknown", "dropped")
		b.reply(context.Background(), m.ChannelID, b.tr.T("error_overloaded"))
	}
}

func (b *Bot) accepts(m *discordgo.Message) bool {
	if m == nil || m.Author == nil || m.Author.Bot {
		return false
	}
	// DMs only
	if m.GuildID != "" {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(m.Content), b.cfg.Prefix)
}

type command struct {
	Name      string
	Args      []string
	Caller    application.Caller
	ChannelID string
	IsOwner   bool
}

func (b *Bot) parse(m *discordgo.Message) (command, bool) {
	body := strings.TrimPrefix(strings.TrimSpace(m.Content), b.cfg.Prefix)
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return command{}, false
	}
	name := m.Author.GlobalName
	if name == "" {
		name = m.Author.Username
	}
	return command{
		Name:      strings.ToLower(fields[0]),
		Args:      fields[1:],
		Caller:    application.Caller{ID: m.Author.ID, Name: name},
		ChannelID: m.ChannelID,
		IsOwner:   b.authz.IsOwner(m.Author.ID),
	}, true
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	cmd, ok := b.parse(m)
	if !ok {
		return
	}
	ctx = logging.WithTraceID(ctx, m.ID)
	ctx = logging.WithPrincipal(ctx, cmd.Caller.ID)
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	log := logging.With(ctx, b.log).With().Str("command", cmd.Name).Logger()

	handler, known := b.routes[cmd.Name]
	label := cmd.Name
	if !known {
		label = "unknown"
	}

	if !b.public[cmd.Name] && !b.authz.IsAuthorized(cmd.Caller.ID) {
		metrics.IncCommand(label, "unauthorized")
		log.Warn().Msg("command from unauthorized principal")
		b.reply(ctx, cmd.ChannelID, b.tr.T("error_unauthorized"))
		return
	}

	if !known {
		metrics.IncCommand(label, "unknown")
		b.reply(ctx, cmd.ChannelID, b.tr.T("error_unknown_command", b.cfg.Prefix))
		return
	}

	if !cmd.IsOwner && !b.allow(ctx, cmd) {
		metrics.IncCommand(cmd.Name, "rate_limited")
		b.reply(ctx, cmd.ChannelID, b.tr.T("error_rate_limited"))
		return
	}

	text, err := handler(ctx, cmd)
	status := "ok"
	if err != nil {
		status = "error"
		log.Error().Err(err).Msg("command failed")
	}
	metrics.IncCommand(cmd.Name, status)
	if text != "" {
		b.reply(ctx, cmd.ChannelID, text)
	}
}

// allow applies the per-principal limit. Limiter errors let the command through.
func (b *Bot) allow(ctx context.Context, cmd command) bool {
	if b.limiter == nil || b.cfg.RateLimit <= 0 {
		return true
	}
	ok, err := b.limiter.Allow(ctx, red.PrincipalCommandKey(cmd.Caller.ID, cmd.Name), b.cfg.RateLimit, b.cfg.RateLimitWindow)
	if err != nil {
		b.log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}

func (b *Bot) reply(ctx context.Context, channelID, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := b.out.ChannelMessageSend(channelID, chunk, discordgo.WithContext(ctx)); err != nil {
			b.log.Warn().Err(err).Str("channel_id", channelID).Msg("reply failed")
			return
		}
	}
}
