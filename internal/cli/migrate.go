package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/abkit/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	RunE:  runMigrateStatus,
}

var migrateToCmd = &cobra.Command{
	Use:   "to <version>",
	Short: "Migrate the schema up or down to a target version",
	Args:  cobra.ExactArgs(1),
	RunE:  runMigrateTo,
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateToCmd)
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	version, dirty, err := migrate.CurrentVersion(cmd.Context(), app.DB)
	if err != nil {
		return err
	}

	fmt.Printf("Schema version: %d\n", version)
	if dirty {
		fmt.Println("WARNING: the last migration did not finish cleanly")
	}
	return nil
}

func runMigrateTo(cmd *cobra.Command, args []string) error {
	target, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}

	if err := migrate.To(cmd.Context(), app.DB, target); err != nil {
		return err
	}
	fmt.Printf("Schema migrated to version %d\n", target)
	return nil
}
