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

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password for a dashboard user",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		cfg, store, err := connect()
		if err != nil {
			return err
		}
		defer database.CloseDatabase()

		return runResetPassword(cmd.Context(), store, cfg, username, password, cmd.OutOrStdout())
	},
}

func init() {
	resetPasswordCmd.Flags().String("username", "admin", "Account to update")
	resetPasswordCmd.Flags().String("password", "", "New password (defaults to ADMIN_PASSWORD)")
}

func runResetPassword(ctx context.Context, store *database.Store, cfg *config.Config, username, password string, out io.Writer) error {
	if password == "" {
		password = cfg.AdminPassword
	}
	if err := services.NewAuthService(store, cfg).ResetPassword(ctx, username, password); err != nil {
		return fmt.Errorf("reset password for %q: %w", username, err)
	}
	fmt.Fprintf(out, "Password updated for %q\n", username)
	return nil
}
