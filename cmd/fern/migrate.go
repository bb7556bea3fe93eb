package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger, sync, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer sync()

			conn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := migrateDatabase(cfg, conn, logger); err != nil {
				return err
			}

			logger.Info("migrations applied")
			return nil
		},
	}
}
