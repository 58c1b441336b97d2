package main

import (
	"context"
	"fmt"
	"time"

	"circulation_recall_daemon/internal/domain/recall"
	"circulation_recall_daemon/internal/infra/config"
	"circulation_recall_daemon/internal/infra/logger"

	"github.com/spf13/cobra"
)

type runtimeState struct {
	cfg *config.AppConfig
}

type runtimeKey struct{}

func newRootCommand() *cobra.Command {
	rt := &runtimeState{}

	root := &cobra.Command{
		Use:           "circulationd",
		Short:         "Library circulation batch daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load application configuration: %w", err)
			}
			logger.Init(cfg)
			rt.cfg = cfg
			return nil
		},
	}
	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		newSweepCommand(),
		newServeCommand(),
		newMigrateCommand(),
		newCheckCommand(),
		newRenewCommand(),
	)
	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return rt, nil
}

// parseDay parses a --date flag. Empty means today.
func parseDay(value string, now func() time.Time) (time.Time, error) {
	if value == "" {
		return recall.DateOnly(now()), nil
	}
	day, err := time.Parse(recall.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return day, nil
}
