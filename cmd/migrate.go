package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/db"
	"github.com/taskpilot/taskpilot/internal/config"
	"github.com/taskpilot/taskpilot/internal/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Applies the embedded schema migrations to the configured
PostgreSQL database. Safe to run repeatedly; already-applied
migrations are skipped.`,
	RunE: func(*cobra.Command, []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{
		Level: cfg.LogLevelSlog(),
		JSON:  cfg.LogJSON,
	})

	logger.Info("applying migrations",
		"host", cfg.PostgresHost,
		"database", cfg.PostgresDBName,
	)
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	logger.Info("migrations applied")
	return nil
}
