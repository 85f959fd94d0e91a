package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"discord-sales-bot/internal/config"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/adapter"
	"discord-sales-bot/internal/infra/gateway"
	"discord-sales-bot/internal/infra/metrics"
	"discord-sales-bot/internal/usecase"
)

// BackupService is the part of the backup manager the dashboard drives.
type BackupService interface {
	CreateBackup(ctx context.Context) (*model.BackupRecord, error)
	ListBackups(ctx context.Context) ([]model.BackupRecord, error)
	RestoreBackup(ctx context.Context, name string) error
	Status(ctx context.Context) (*model.BackupStatus, error)
}

// Deps are the collaborators behind the webhook and dashboard routes.
// Nil Backups or Messenger disable the matching routes.
type Deps struct {
	Ledger     usecase.PaymentLedger
	Dispatcher usecase.ConfirmationDispatcher
	Authz      usecase.AuthorizationRegistry
	Keys       usecase.KeyUseCase
	Stats      usecase.StatsUseCase
	Backups    BackupService
	Messenger  adapter.Messenger
	Gateways   *gateway.Registry
}

type Server struct {
	deps    Deps
	auth    *AuthManager
	port    int
	timeout time.Duration
	log     *zerolog.Logger
	srv     *http.Server
}

func NewServer(cfg config.HTTPConfig, deps Deps, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "http").Logger()
	return &Server{
		deps:    deps,
		auth:    NewAuthManager(cfg.AdminAPIKey, cfg.JWTSecret, cfg.TokenTTL),
		port:    cfg.Port,
		timeout: cfg.RequestTimeout,
		log:     &l,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/webhook", func(r chi.Router) {
		r.Get("/test", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "gateways": s.deps.Gateways.Names()})
		})
		r.Post("/{gateway}", s.handleWebhook)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if s.timeout > 0 {
			r.Use(Timeout(s.timeout))
		}
		r.Post("/auth/token", s.handleToken)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Get("/payments", s.handleListPayments)
			r.Post("/payments", s.handleCreatePayment)
			r.Get("/payments/{id}", s.handleGetPayment)
			r.Post("/payments/{id}/confirm", s.handleConfirmPayment)
			r.Post("/payments/{id}/cancel", s.handleCancelPayment)
			r.Delete("/payments/{id}", s.handleDeletePayment)

			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleAddUser)
			r.Delete("/users/{id}", s.handleRemoveUser)

			r.Post("/messages", s.handleSendMessage)
			r.Get("/stats", s.handleStats)
			r.Get("/keys", s.handleListKeys)

			r.Get("/backups", s.handleListBackups)
			r.Post("/backups", s.handleCreateBackup)
			r.Post("/backups/restore", s.handleRestoreBackup)
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", s.port).Msg("HTTP server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info().Msg("HTTP server stopped")
	return nil
}
