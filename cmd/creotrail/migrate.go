package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"creotrail/validator/pkg/config"
	"creotrail/validator/pkg/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and exit",
	Long: `Connect to the configured database and create any missing tables.
Opening the store is idempotent, so migrate is safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(_ context.Context, s *store.SQLStore, cfg *config.Config, _ *slog.Logger) error {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema ready (%s, %s layout)\n", cfg.Database.Driver, s.Layout())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
