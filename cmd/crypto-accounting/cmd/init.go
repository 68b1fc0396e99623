package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema and starter accounts",
	Long: `Initialize the ledger database.

This command:
1. Creates the SQLite database file if missing
2. Applies pending schema migrations
3. Seeds the starter chart of accounts when the database is empty

Both steps are idempotent; running init again is harmless.

Example:
  crypto-accounting init`,
	Run: runInit,
}

func runInit(cmd *cobra.Command, args []string) {
	eng := openEngine()
	defer eng.close()

	accounts, err := eng.store.ListAccounts()
	exitOnError(err, "failed to list accounts")

	slog.Info("ledger ready", "path", eng.conn.Path(), "accounts", len(accounts))
	fmt.Printf("Ledger ready at %s (%d accounts)\n", eng.conn.Path(), len(accounts))
}
