// Package cli implements the operator commands of the manage binary.
package cli

import (
	"fmt"
	"os"

	"donation-portal/internal/config"
	"donation-portal/internal/database"
	"donation-portal/pkg/logging"

	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:           "manage",
		Short:         "Operator tasks for the donation portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(registerIPNCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// connect loads configuration and opens the database the server uses
func connect() (*config.Config, *database.Store, error) {
	if err := config.InitConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.AppConfig
	logging.InitLogging(cfg.Environment)

	if err := database.InitDatabase(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, database.NewStore(database.GetDB()), nil
}
