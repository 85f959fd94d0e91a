package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"discord-sales-bot/internal/infra/backup"
)

func newManager(e *env) (*backup.Manager, error) {
	dumper, err := backup.NewPgDumper(e.cfg.Database.URL, e.cfg.Backup.PgDumpPath, e.cfg.Backup.PsqlPath)
	if err != nil {
		return nil, err
	}
	return backup.NewManager(backup.Config{
		Dir:       e.cfg.Backup.Dir,
		Product:   e.cfg.Backup.Product,
		Retention: e.cfg.Backup.Retention,
	}, dumper, e.log)
}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, prune and restore database backups",
	}

	run := func(fn func(cmd *cobra.Command, m *backup.Manager, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			m, err := newManager(e)
			if err != nil {
				return err
			}
			return fn(cmd, m, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Dump the database now and prune old backups",
		RunE: run(func(cmd *cobra.Command, m *backup.Manager, _ []string) error {
			rec, err := m.CreateBackup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%d bytes)\n", rec.Name, rec.SizeBytes)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: run(func(cmd *cobra.Command, m *backup.Manager, _ []string) error {
			recs, err := m.ListBackups(cmd.Context())
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no backups")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tCREATED")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Name, r.SizeBytes, r.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete backups beyond the retention count",
		RunE: run(func(cmd *cobra.Command, m *backup.Manager, _ []string) error {
			n, err := m.PruneOldBackups(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d backup(s)\n", n)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the backup directory summary",
		RunE: run(func(cmd *cobra.Command, m *backup.Manager, _ []string) error {
			st, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dir:       %s\n", st.Dir)
			fmt.Fprintf(out, "backups:   %d (retention %d)\n", st.Total, st.Retention)
			if st.Latest != nil {
				fmt.Fprintf(out, "latest:    %s at %s\n", st.Latest.Name, st.Latest.CreatedAt.Format(time.RFC3339))
			}
			return nil
		}),
	})

	var yes bool
	restore := &cobra.Command{
		Use:   "restore <name>",
		Short: "Load a backup into the configured database",
		Long: `Load a backup into the configured database.

The current contents are overwritten. Stop the bot first and pass --yes to confirm.`,
		Args: cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, m *backup.Manager, args []string) error {
			if !yes {
				return errors.New("restore overwrites the database; pass --yes to confirm")
			}
			if err := m.RestoreBackup(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			return nil
		}),
	}
	restore.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the restore")
	cmd.AddCommand(restore)

	return cmd
}
