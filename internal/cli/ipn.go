package cli

import (
	"context"
	"fmt"
	"io"

	"donation-portal/internal/config"
	"donation-portal/internal/database"
	"donation-portal/internal/services"

	"github.com/spf13/cobra"
)

var registerIPNCmd = &cobra.Command{
	Use:   "register-ipn",
	Short: "Register the payment notification URL with Pesapal",
	Long: `Register the payment notification URL with Pesapal.

Until a notification URL is registered, donations complete in test mode
and event registrations are refused.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")

		cfg, store, err := connect()
		if err != nil {
			return err
		}
		defer database.CloseDatabase()

		gateway := services.NewPesapalService(cfg, store, services.NewTokenCache(database.GetRedis()))
		return runRegisterIPN(cmd.Context(), gateway, cfg, url, cmd.OutOrStdout())
	},
}

func init() {
	registerIPNCmd.Flags().String("url", "", "Notification URL (defaults to the configured public domain)")
}

type ipnRegistrar interface {
	RegisterIPNURL(ctx context.Context, ipnURL string) (string, error)
}

func runRegisterIPN(ctx context.Context, gateway ipnRegistrar, cfg *config.Config, url string, out io.Writer) error {
	if url == "" {
		url = cfg.IPNURL()
	}
	ipnID, err := gateway.RegisterIPNURL(ctx, url)
	if err != nil {
		return fmt.Errorf("register %s: %w", url, err)
	}
	fmt.Fprintf(out, "Registered %s (ipn id %s)\n", url, ipnID)
	return nil
}
