package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rpattn/formexport/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if err := db.RunMigrations(cfg.Database); err != nil {
			return err
		}
		slog.Info("migrations applied", "database", cfg.Database.DBName)
		return nil
	},
}
