package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"discord-sales-bot/internal/domain/model"
	pg "discord-sales-bot/internal/infra/db/postgres"
	"discord-sales-bot/internal/usecase"
)

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage access keys",
	}

	var (
		plan     string
		duration string
		count    int
	)
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Issue new access keys and print them one per line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 || count > 100 {
				return fmt.Errorf("--count must be between 1 and 100")
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			d, err := model.ParseKeyDuration(duration)
			if err != nil {
				return err
			}
			pool, err := e.pool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := pg.NewAccessKeyRepo(pool)
			gen := usecase.NewKeyGenerator(repo, e.cfg.Keys.MaxAttempts, e.log)
			keys := usecase.NewKeyUseCase(repo, gen, usecase.KeyPolicy{Length: e.cfg.Keys.Length, DefaultDuration: d}, e.log)
			for i := 0; i < count; i++ {
				k, err := keys.Issue(cmd.Context(), plan, d, "botctl")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), k.Value)
			}
			return nil
		},
	}
	generate.Flags().StringVarP(&plan, "plan", "p", "Standard", "plan name stored on the key")
	generate.Flags().StringVarP(&duration, "duration", "d", "weekly", "daily, weekly, monthly or lifetime")
	generate.Flags().IntVarP(&count, "count", "n", 1, "number of keys")
	cmd.AddCommand(generate)

	return cmd
}
