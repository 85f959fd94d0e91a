package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain/ports/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// EnsureSchema applies every embedded migration not yet recorded in
// schema_migrations, each in its own transaction.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *zerolog.Logger) error {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
  name       TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create schema_migrations: %w", mapErr(err))
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		var applied bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name=$1);`, name).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", name, mapErr(err))
		}
		if applied {
			continue
		}
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return err
		}
		err = NewTxManager(pool).WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			t := tx.(pgx.Tx)
			if _, err := t.Exec(ctx, string(body)); err != nil {
				return mapErr(err)
			}
			_, err := t.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1);`, name)
			return mapErr(err)
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		logger.Info().Str("migration", name).Msg("migration applied")
	}
	return nil
}
