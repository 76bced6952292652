package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/approved-premises/internal/audit"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending audit database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Database.DSN == "" {
				return errors.New("DATABASE_DSN is not set")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
			if err := audit.MigrateFromDSN(ctx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
				return err
			}
			slog.Info("database migrations complete")
			return nil
		},
	}
}
