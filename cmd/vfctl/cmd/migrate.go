package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vectorflow/vectorflow/internal/config"
	"github.com/vectorflow/vectorflow/internal/db"
)

var printSchema bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Apply the embedded schema to the database named by DATABASE_URL.
Every statement is idempotent, so running it twice is harmless.

Examples:
  vfctl migrate
  vfctl migrate --print > schema.sql`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&printSchema, "print", false, "print the schema instead of applying it")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if printSchema {
		fmt.Fprint(cmd.OutOrStdout(), db.Schema())
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
	return nil
}
