package main

import (
	"fmt"

	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		models := database.AllModels()
		if err := db.WithContext(cmd.Context()).AutoMigrate(models...); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("schema migrated", "models", len(models))
		return nil
	},
}
