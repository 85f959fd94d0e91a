package backup

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jackc/pgconn"
)

var _ Dumper = (*PgDumper)(nil)

// PgDumper shells out to pg_dump and psql. Connection parameters come from
// the same DSN the pool uses; the password travels in PGPASSWORD only.
type PgDumper struct {
	PgDump string
	Psql   string

	host     string
	port     uint16
	user     string
	database string
	password string
}

func NewPgDumper(dsn, pgDumpPath, psqlPath string) (*PgDumper, error) {
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if pgDumpPath == "" {
		pgDumpPath = "pg_dump"
	}
	if psqlPath == "" {
		psqlPath = "psql"
	}
	return &PgDumper{
		PgDump:   pgDumpPath,
		Psql:     psqlPath,
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		database: cfg.Database,
		password: cfg.Password,
	}, nil
}

func (d *PgDumper) connArgs() []string {
	return []string{
		"-h", d.host,
		"-p", strconv.Itoa(int(d.port)),
		"-U", d.user,
		"-d", d.database,
		"--no-password",
	}
}

func (d *PgDumper) Dump(ctx context.Context, path string) error {
	args := append(d.connArgs(), "-f", path)
	return d.run(ctx, d.PgDump, args)
}

func (d *PgDumper) Restore(ctx context.Context, path string) error {
	args := append(d.connArgs(), "-v", "ON_ERROR_STOP=1", "-f", path)
	return d.run(ctx, d.Psql, args)
}

func (d *PgDumper) run(ctx context.Context, bin string, args []string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+d.password)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[:512]
		}
		if msg == "" {
			return fmt.Errorf("%s: %w", bin, err)
		}
		return fmt.Errorf("%s: %w: %s", bin, err, msg)
	}
	return nil
}
