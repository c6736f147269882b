package main

import (
	"github.com/spf13/cobra"

	"github.com/2beens/dailymetrics/internal/db"
)

var schemaCmd = &cobra.Command{
	Use:   "ensure-schema",
	Short: "Create the service tables if they don't exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.EnsureSchema(commandContext(cmd), deps.dbPool); err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), true, "schema ensured on %s", deps.cfg.PostgresDBName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
