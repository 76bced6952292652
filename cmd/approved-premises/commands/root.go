// Package commands is the command line of the approved premises web
// application
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/terra-clan/approved-premises/internal/config"
)

var (
	cfg      *config.Config
	logLevel string
)

// Execute runs the command named on the command line
func Execute() error {
	root := &cobra.Command{
		Use:           "approved-premises",
		Short:         "Approved Premises referral and placement web application",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				loaded.Log.Level = logLevel
			}
			cfg = loaded

			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: cfg.Log.SlogLevel(),
			}))
			slog.SetDefault(logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default from LOG_LEVEL)")

	root.AddCommand(serveCmd(), migrateCmd(), journeysCmd())
	if err := root.Execute(); err != nil {
		slog.Error("command failed", "command", os.Args[1:], "error", err)
		return err
	}
	return nil
}
