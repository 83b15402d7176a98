package cli

import (
	"fmt"

	"hiretrack/internal/config"
	"hiretrack/internal/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the storage schema",
	Long: `Create or update the database schema. Migration is idempotent and
safe to run against an existing database.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to apply Vault secrets: %w", err)
	}

	st, err := store.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.LogError(err, "Failed to close storage")
		}
	}()

	if err := st.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Storage schema is up to date",
		"driver", cfg.Storage.Driver)
	fmt.Println("Migration completed")
	return nil
}
