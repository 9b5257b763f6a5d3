package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/shopping-notifier/internal/config"
	"github.com/donaldgifford/shopping-notifier/internal/store"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run ledger database migrations",
		Long: "Migrate creates the default ledger table in PostgreSQL. Ledgers\n" +
			"with a custom name, and SQLite ledgers, create their table on first use.",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Ledger.Backend != config.LedgerPostgres {
				return fmt.Errorf("migrate requires the postgres ledger backend (got %q)", cfg.Ledger.Backend)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			l, err := store.NewPostgresLedger(ctx, cfg.Ledger.Postgres.DSN(),
				store.WithTable(cfg.Ledger.Name),
				store.WithPostgresLogger(log),
			)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer l.Close()

			log.Info("running migrations", "host", cfg.Ledger.Postgres.Host)

			applied, err := l.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			log.Info("migrations complete", "applied", len(applied), "versions", applied)
			return nil
		},
	}
}
