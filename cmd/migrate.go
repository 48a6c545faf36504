package main

import (
	"coin-heist/internal/config"
	"coin-heist/internal/db"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand(log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			dbConn, err := db.Connect(cfg)
			if err != nil {
				return err
			}
			defer dbConn.Close()

			if err := db.Migrate(dbConn); err != nil {
				return err
			}
			log.Info("Migrations applied", zap.String("database", cfg.DatabaseName))
			return nil
		},
	}
}
