// cmd/catalogctl/migrate.go
package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"catalog-sync/internal/app"
	"catalog-sync/internal/config"
	"catalog-sync/internal/storage/accounts"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply cache, write queue and accounts schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		pool, err := pgxpool.New(cmd.Context(), cfg.DBURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		if err := app.Migrate(cmd.Context(), cfg, pool); err != nil {
			return err
		}
		store, err := accounts.Open(accounts.Config{Driver: cfg.AccountsDriver, DSN: cfg.AccountsDSN, AutoMigrate: true})
		if err != nil {
			return err
		}
		defer store.Close()

		cmd.Println("Migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
