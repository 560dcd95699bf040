package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		// initStore migrates on open; this command exists so deployments can
		// run migrations as a separate step.
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("store.database_url is required")
		}
		defer st.Close() //nolint:errcheck

		zap.L().Info("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
