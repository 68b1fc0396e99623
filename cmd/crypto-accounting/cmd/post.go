package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Myoxsis/Crypto-Accounting-v2/pkg/posting"
)

var (
	postDate  string
	postTime  string
	postNotes string

	depositCurrency string
	depositAmount   string
	depositRate     string

	moveAsset string
	moveQty   string
	moveFrom  int64
	moveTo    int64

	borrowAsset  string
	borrowQty    string
	borrowWallet int64
	borrowUSD    string

	swapWallet    int64
	swapFromAsset string
	swapFromQty   string
	swapFromUSD   string
	swapToAsset   string
	swapToQty     string
	swapToUSD     string
)

// postCmd groups one subcommand per transaction kind.
var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Record a transaction",
	Long: `Record one atomic double-entry transaction.

Each subcommand builds a balanced set of transaction lines for its kind and
commits them atomically; on any failure nothing is written.

Example:
  crypto-accounting post deposit --currency EUR --amount 50 --rate 1.08
  crypto-accounting post swap --wallet 1 --from-asset ETH --from-qty 1 --from-usd 100 --to-asset USDC --to-qty 105 --to-usd 105`,
}

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Record a fiat deposit",
	Run: func(cmd *cobra.Command, args []string) {
		eng := openEngine()
		defer eng.close()
		id, err := eng.service.PostFiatDeposit(fiatInput())
		exitOnError(err, "failed to post deposit")
		reportPosted("Fiat Deposit", id)
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Record a fiat withdrawal",
	Run: func(cmd *cobra.Command, args []string) {
		eng := openEngine()
		defer eng.close()
		id, err := eng.service.PostFiatWithdrawal(fiatInput())
		exitOnError(err, "failed to post withdrawal")
		reportPosted("Withdrawal", id)
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Move an asset between wallets",
	Run: func(cmd *cobra.Command, args []string) {
		eng := openEngine()
		defer eng.close()
		id, err := eng.service.PostWalletTransfer(moveInput())
		exitOnError(err, "failed to post wallet transfer")
		reportPosted("Wallet Transfer", id)
	},
}

var supplyCmd = &cobra.Command{
	Use:   "supply",
	Short: "Supply an asset to a DEX",
	Run: func(cmd *cobra.Command, args []string) {
		eng := openEngine()
		defer eng.close()
		id, err := eng.service.PostSupplyToDex(moveInput())
		exitOnError(err, "failed to post supply")
		reportPosted("Supply to DEX", id)
	},
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Bridge an asset across chains",
	Run: func(cmd *cobra.Command, args []string) {
		eng := openEngine()
		defer eng.close()
		id, err := eng.service.PostBridge(moveInput())
		exitOnError(err, "failed to post bridge")
		reportPosted("Bridge", id)
	},
}

var borrowCmd = &cobra.Command{
	Use:   "borrow",
	Short: "Borrow an asset from a DEX",
	Run: func(cmd *cobra.Command, args []string) {
		eng := openEngine()
		defer eng.close()
		id, err := eng.service.PostBorrowFromDex(posting.Borrow{
			TS:        parseTS(),
			Asset:     strings.ToUpper(borrowAsset),
			Qty:       mustDecimal("--qty", borrowQty),
			WalletID:  borrowWallet,
			AmountUSD: mustDecimal("--usd", borrowUSD),
			Notes:     postNotes,
		})
		exitOnError(err, "failed to post borrow")
		reportPosted("Borrow from DEX", id)
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Swap one asset for another",
	Run: func(cmd *cobra.Command, args []string) {
		eng := openEngine()
		defer eng.close()
		id, err := eng.service.PostSwap(posting.Swap{
			TS:        parseTS(),
			WalletID:  swapWallet,
			FromAsset: strings.ToUpper(swapFromAsset),
			FromQty:   mustDecimal("--from-qty", swapFromQty),
			FromUSD:   mustDecimal("--from-usd", swapFromUSD),
			ToAsset:   strings.ToUpper(swapToAsset),
			ToQty:     mustDecimal("--to-qty", swapToQty),
			ToUSD:     mustDecimal("--to-usd", swapToUSD),
			Notes:     postNotes,
		})
		exitOnError(err, "failed to post swap")
		reportPosted("Swap", id)
	},
}

func init() {
	// Flags shared by every posting subcommand
	postCmd.PersistentFlags().StringVar(&postDate, "date", "", "Transaction date (YYYY-MM-DD, default today)")
	postCmd.PersistentFlags().StringVar(&postTime, "time", "", "Transaction time (HH:MM, default now)")
	postCmd.PersistentFlags().StringVar(&postNotes, "notes", "", "Free-form notes")

	for _, c := range []*cobra.Command{depositCmd, withdrawCmd} {
		c.Flags().StringVar(&depositCurrency, "currency", "USD", "Currency (USD or EUR)")
		c.Flags().StringVar(&depositAmount, "amount", "", "Amount in the given currency (required)")
		c.Flags().StringVar(&depositRate, "rate", "", "EUR→USD rate (required for EUR)")
		c.MarkFlagRequired("amount")
	}

	for _, c := range []*cobra.Command{transferCmd, supplyCmd, bridgeCmd} {
		c.Flags().StringVar(&moveAsset, "asset", "", "Asset symbol (required)")
		c.Flags().StringVar(&moveQty, "qty", "", "Quantity to move (required)")
		c.Flags().Int64Var(&moveFrom, "from-wallet", 0, "Source wallet id (required)")
		c.Flags().Int64Var(&moveTo, "to-wallet", 0, "Destination wallet id (required)")
		c.MarkFlagRequired("asset")
		c.MarkFlagRequired("qty")
		c.MarkFlagRequired("from-wallet")
		c.MarkFlagRequired("to-wallet")
	}

	borrowCmd.Flags().StringVar(&borrowAsset, "asset", "", "Borrowed asset symbol (required)")
	borrowCmd.Flags().StringVar(&borrowQty, "qty", "", "Borrowed quantity (required)")
	borrowCmd.Flags().Int64Var(&borrowWallet, "wallet", 0, "Receiving wallet id (required)")
	borrowCmd.Flags().StringVar(&borrowUSD, "usd", "", "USD value of the loan (required)")
	borrowCmd.MarkFlagRequired("asset")
	borrowCmd.MarkFlagRequired("qty")
	borrowCmd.MarkFlagRequired("wallet")
	borrowCmd.MarkFlagRequired("usd")

	swapCmd.Flags().Int64Var(&swapWallet, "wallet", 0, "Wallet id (required)")
	swapCmd.Flags().StringVar(&swapFromAsset, "from-asset", "", "Asset given up (required)")
	swapCmd.Flags().StringVar(&swapFromQty, "from-qty", "", "Quantity given up (required)")
	swapCmd.Flags().StringVar(&swapFromUSD, "from-usd", "", "USD value given up (required)")
	swapCmd.Flags().StringVar(&swapToAsset, "to-asset", "", "Asset received (required)")
	swapCmd.Flags().StringVar(&swapToQty, "to-qty", "", "Quantity received (required)")
	swapCmd.Flags().StringVar(&swapToUSD, "to-usd", "", "USD value received (required)")
	for _, f := range []string{"wallet", "from-asset", "from-qty", "from-usd", "to-asset", "to-qty", "to-usd"} {
		swapCmd.MarkFlagRequired(f)
	}

	postCmd.AddCommand(depositCmd)
	postCmd.AddCommand(withdrawCmd)
	postCmd.AddCommand(transferCmd)
	postCmd.AddCommand(supplyCmd)
	postCmd.AddCommand(bridgeCmd)
	postCmd.AddCommand(borrowCmd)
	postCmd.AddCommand(swapCmd)
}

func fiatInput() posting.FiatMovement {
	in := posting.FiatMovement{
		TS:       parseTS(),
		Currency: strings.ToUpper(depositCurrency),
		Amount:   mustDecimal("--amount", depositAmount),
		Notes:    postNotes,
	}
	if depositRate != "" {
		in.USDRate = mustDecimal("--rate", depositRate)
	}
	return in
}

func moveInput() posting.WalletMove {
	return posting.WalletMove{
		TS:         parseTS(),
		Asset:      strings.ToUpper(moveAsset),
		Qty:        mustDecimal("--qty", moveQty),
		FromWallet: moveFrom,
		ToWallet:   moveTo,
		Notes:      postNotes,
	}
}

// parseTS combines the --date and --time flags into a timestamp. With no
// date it is now; with a date but no time, the date at the current clock
// time; with both, seconds are zero.
func parseTS() time.Time {
	now := time.Now()
	if postDate == "" {
		return now
	}
	day, err := time.ParseInLocation("2006-01-02", postDate, time.Local)
	exitOnError(err, "invalid --date")
	if postTime == "" {
		return time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.Local)
	}
	clock, err := time.Parse("15:04", postTime)
	exitOnError(err, "invalid --time")
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
}

func mustDecimal(flag, value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		exitOnError(err, fmt.Sprintf("invalid %s", flag))
	}
	return d
}

func reportPosted(kind string, id int64) {
	slog.Info("transaction posted", "kind", kind, "txn_id", id)
	fmt.Printf("%s posted (txn %d)\n", kind, id)
}
