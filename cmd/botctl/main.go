// Command botctl runs maintenance tasks against the bot's database and backup
// directory without starting the Discord connection.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"discord-sales-bot/internal/config"
	pg "discord-sales-bot/internal/infra/db/postgres"
	"discord-sales-bot/internal/infra/logging"
)

var Version = "dev"

var (
	cfgPath string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "botctl",
		Short:         "Maintenance commands for the sales bot",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logs on stderr")

	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(keysCmd())
	rootCmd.AddCommand(migrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what every subcommand shares: config, a logger and, on demand, a pool.
type env struct {
	cfg *config.Config
	log *zerolog.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(cfgPath, verbose)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	logCfg := cfg.Log
	logCfg.Format = "console"
	if !verbose {
		logCfg.Level = "warn"
	}
	return &env{cfg: cfg, log: logging.New(logCfg, verbose)}, nil
}

func (e *env) pool(ctx context.Context) (*pgxpool.Pool, error) {
	return pg.NewPgxPool(ctx, e.cfg.Database.URL, 2)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			pool, err := e.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := pg.EnsureSchema(cmd.Context(), pool, e.log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
