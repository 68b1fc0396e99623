// Package cmd provides CLI commands for crypto-accounting.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Myoxsis/Crypto-Accounting-v2/pkg/config"
	"github.com/Myoxsis/Crypto-Accounting-v2/pkg/db"
	"github.com/Myoxsis/Crypto-Accounting-v2/pkg/ledger"
	"github.com/Myoxsis/Crypto-Accounting-v2/pkg/posting"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "crypto-accounting",
	Short: "Double-entry ledger for crypto and fiat activity",
	Long: `crypto-accounting records financial activity (fiat deposits and
withdrawals, wallet transfers, DEX supplies and borrows, swaps, bridges)
as double-entry bookkeeping transactions in a local SQLite database, and
derives the ledger and account balances from them.

Example:
  crypto-accounting init
  crypto-accounting post deposit --currency USD --amount 100
  crypto-accounting balances`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(balancesCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

// engine bundles one open instance of the ledger engine. Each command opens
// its own and closes it when done; there is no package-level handle.
type engine struct {
	conn    *db.Connection
	flusher *db.Flusher
	store   *ledger.Store
	service *posting.Service
}

// openEngine loads configuration, opens the database, brings the schema to
// the current version, seeds the chart of accounts on first run, and wires
// the store, posting service, and background flusher.
func openEngine() *engine {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.Validate(), "invalid configuration")

	slog.Debug("Opening database", "path", cfg.DBPath)
	conn, err := db.Open(cfg.DBPath)
	exitOnError(err, "failed to open database")

	exitOnError(db.Migrate(conn), "failed to migrate database")
	exitOnError(db.SeedIfEmpty(conn), "failed to seed accounts")

	flusher := db.NewFlusher(conn, cfg.FlushInterval)
	store := ledger.NewStore(conn)
	return &engine{
		conn:    conn,
		flusher: flusher,
		store:   store,
		service: posting.NewService(store, flusher),
	}
}

func (e *engine) close() {
	e.flusher.Close()
	e.conn.Close()
}
