package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loadsheet/infrastructure/config"
	"loadsheet/infrastructure/logging"
	"loadsheet/infrastructure/sqlite"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "loadsheet",
		Short: "Warehouse staging and loading sheet service",
		Long: `loadsheet tracks staging sheets from draft through loading to completion,
reconciling loaded pallets and loose cases against the staged plan.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default configs/config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// bootstrap loads config, builds the logger and opens a migrated database.
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, *sqlite.DB, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build logger: %w", err)
	}
	db, err := sqlite.OpenDB(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlite.ApplyMigrations(ctx, db, cfg.Database.MigrationsDir); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return cfg, log, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.Close()
			fmt.Printf("%s migrations applied to %s\n", color.GreenString("OK"), cfg.Database.Path)
			return nil
		},
	}
}
