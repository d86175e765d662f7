package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
	Long: `Apply or roll back the SQL migrations under MIGRATIONS_PATH.

Example usage:
  blogctl migrate up        # Apply every pending migration
  blogctl migrate down      # Roll back the last migration
  blogctl migrate goto 3    # Move to version 3`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return db.RunMigrations(cfg.MigrationsPath)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return db.MigrateDown(cfg.MigrationsPath)
	},
}

var migrateGotoCmd = &cobra.Command{
	Use:   "goto VERSION",
	Short: "Migrate up or down to VERSION",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return db.MigrateToVersion(cfg.MigrationsPath, uint(version))
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateGotoCmd)
}
