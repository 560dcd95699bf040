package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lavka-group/shop-assistant/internal/service"
)

var (
	leadsyncLimit   int
	leadsyncWorkers int
)

var leadsyncCmd = &cobra.Command{
	Use:   "leadsync",
	Short: "Push queued CRM leads to Bitrix24",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("store.database_url is required for lead sync")
		}
		defer st.Close() //nolint:errcheck

		crm, err := initCRM()
		if err != nil {
			return err
		}

		svc := service.New(st, crm, retryConfig())
		synced, err := svc.SyncLeads(ctx, leadsyncLimit, leadsyncWorkers)
		if err != nil {
			return err
		}

		zap.L().Info("lead sync complete", zap.Int("synced", synced))
		return nil
	},
}

func init() {
	leadsyncCmd.Flags().IntVar(&leadsyncLimit, "limit", 100, "maximum leads to sync")
	leadsyncCmd.Flags().IntVar(&leadsyncWorkers, "workers", 4, "concurrent pushes")
	rootCmd.AddCommand(leadsyncCmd)
}
