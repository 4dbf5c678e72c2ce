package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tsawler/ocrlayout/internal/output"
	"github.com/tsawler/ocrlayout/jobs"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the job database schema",
}

func migrationCommand(direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			if err := jobs.Migrate(url, direction); err != nil {
				return err
			}
			logger.Info().Str("direction", direction).Msg("migrations applied")
			return nil
		},
	}
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := databaseURL()
		if err != nil {
			return err
		}
		version, dirty, err := jobs.MigrationVersion(url)
		if err != nil {
			return err
		}
		return output.Write(cmd.OutOrStdout(), format, map[string]any{
			"version": version,
			"dirty":   dirty,
		})
	},
}

func databaseURL() (string, error) {
	if cfg.Database.URL == "" {
		return "", errors.New("database.url is not set (OCRLAYOUT_DATABASE_URL or DATABASE_URL)")
	}
	return cfg.Database.URL, nil
}

func init() {
	migrateCmd.AddCommand(migrationCommand("up", "Apply all pending migrations"))
	migrateCmd.AddCommand(migrationCommand("down", "Revert all migrations"))
	migrateCmd.AddCommand(migrateVersionCmd)

	rootCmd.AddCommand(migrateCmd)
}
