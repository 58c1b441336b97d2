package main

import (
	"fmt"

	idb "circulation_recall_daemon/internal/infra/database"
	"circulation_recall_daemon/internal/infra/logger"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or revert the embedded schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			db, err := idb.NewPostgresConnection(rt.cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("could not connect to database: %w", err)
			}
			defer db.Close()

			if direction == "down" {
				err = idb.MigrateDown(db)
			} else {
				err = idb.MigrateUp(db)
			}
			if err != nil {
				return err
			}
			logger.Component("migrate").WithField("direction", direction).Info("Migrations applied")
			return nil
		},
	}
}
