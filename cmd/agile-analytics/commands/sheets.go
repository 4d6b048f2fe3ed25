package commands

import (
	"fmt"

	"agile-analytics/internal/sheets"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateTarget int

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Manage the sheet store",
}

var sheetsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back sheet store migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := sheets.ParseBackend(cfg.Sheets.Backend)
		if err != nil {
			return err
		}
		if err := sheets.Migrate(backend, cfg.Sheets.DSN, migrateTarget); err != nil {
			return err
		}
		log.Info().Str("backend", string(backend)).Int("target", migrateTarget).Msg("Sheet store migrated")
		return nil
	},
}

var sheetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the sheets in the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := sheets.ParseBackend(cfg.Sheets.Backend)
		if err != nil {
			return err
		}
		store, err := sheets.Open(cmd.Context(), backend, cfg.Sheets.DSN)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		names, err := store.Sheets(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	sheetsMigrateCmd.Flags().IntVar(&migrateTarget, "to", -1, "target schema version (-1 latest, 0 roll back everything)")

	sheetsCmd.AddCommand(sheetsMigrateCmd, sheetsListCmd)
	rootCmd.AddCommand(sheetsCmd)
}
