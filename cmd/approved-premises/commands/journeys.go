package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terra-clan/approved-premises/internal/journeys"
)

func journeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journeys",
		Short: "Inspect form journey definitions",
	}
	cmd.AddCommand(journeysListCmd(), journeysValidateCmd())
	return cmd
}

// loadJourneys loads the shipped definitions, then those in dir over them
func loadJourneys(dir string) (*journeys.Loader, error) {
	loader := journeys.NewLoader()
	if err := loader.LoadFromFS(journeys.Defaults()); err != nil {
		return nil, fmt.Errorf("load shipped journeys: %w", err)
	}
	if dir != "" {
		if err := loader.LoadFromDir(dir); err != nil {
			return nil, fmt.Errorf("load journeys from %s: %w", dir, err)
		}
	}
	return loader, nil
}

func journeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the sections, tasks and pages of every journey",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := loadJourneys(cfg.Journeys.Dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, j := range loader.List() {
				fmt.Fprintf(out, "# %s\n%s\n", loader.Source(j.Name), journeys.Describe(j))
			}
			return nil
		},
	}
}

func journeysValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check journey definitions without starting the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cfg.Journeys.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			loader, err := loadJourneys(dir)
			if err != nil {
				return err
			}
			for _, j := range loader.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "ok  %s (%d tasks)\n", j.Name, len(j.Tasks()))
			}
			return nil
		},
	}
}
