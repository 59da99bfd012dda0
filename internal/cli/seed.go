package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"donation-portal/internal/config"
	"donation-portal/internal/database"
	"donation-portal/internal/services"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default admin account and sample events",
	Long: `Create the default admin account and sample events.

Existing rows are left alone, so the command can be run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := connect()
		if err != nil {
			return err
		}
		defer database.CloseDatabase()

		return runSeed(cmd.Context(), store, cfg, cmd.OutOrStdout())
	},
}

func runSeed(ctx context.Context, store *database.Store, cfg *config.Config, out io.Writer) error {
	if err := services.SeedDefaults(ctx, store, cfg, time.Now()); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	fmt.Fprintf(out, "Seed complete (admin user %q)\n", cfg.AdminUsername)
	return nil
}
