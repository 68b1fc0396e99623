package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// accountsCmd represents the accounts command.
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the chart of accounts",
	Run:   runAccounts,
}

// ledgerCmd represents the ledger command.
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show all transaction lines, newest first",
	Run:   runLedger,
}

// balancesCmd represents the balances command.
var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show the signed USD balance of every account",
	Run:   runBalances,
}

func runAccounts(cmd *cobra.Command, args []string) {
	eng := openEngine()
	defer eng.close()

	accounts, err := eng.store.ListAccounts()
	exitOnError(err, "failed to list accounts")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tTYPE\tCURRENCY")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Code, a.Name, a.Type, a.Currency)
	}
	w.Flush()
}

func runLedger(cmd *cobra.Command, args []string) {
	eng := openEngine()
	defer eng.close()

	rows, err := eng.store.ListLedger()
	exitOnError(err, "failed to list ledger")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TXN\tTIMESTAMP\tTYPE\tACCOUNT\tSIDE\tUSD\tASSET\tQTY\tNOTES")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s %s\t%s\t%s\t%s\t%s\t%s\n",
			r.TxnID, r.TS, r.Type, r.AccountCode, r.AccountName, r.Side,
			r.AmountUSD.StringFixed(2), r.Asset, r.Qty.String(), r.Notes)
	}
	w.Flush()
}

func runBalances(cmd *cobra.Command, args []string) {
	eng := openEngine()
	defer eng.close()

	rows, err := eng.store.BalancesByAccount()
	exitOnError(err, "failed to read balances")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tTYPE\tBALANCE (USD)")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Code, r.Name, r.Type, r.BalanceUSD.StringFixed(2))
	}
	w.Flush()
}
