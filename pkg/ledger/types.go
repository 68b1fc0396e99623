// Package ledger holds the double-entry data model and the Store, the only
// component that issues SQL against the ledger tables.
package ledger

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// TimeLayout is the timestamp format stored on transactions: ISO-8601 with
// second precision, no zone.
const TimeLayout = "2006-01-02T15:04:05"

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Sides of a transaction line.
const (
	Debit  = 1
	Credit = -1
)

// Account is one row of the chart of accounts. Accounts are created at seed
// time and never mutated by the posting paths.
type Account struct {
	ID       int64
	Code     string
	Name     string
	Type     AccountType
	ParentID sql.NullInt64
	Currency string // ISO code for fiat accounts, empty otherwise
}

// Transaction is the header of one atomic economic event. Immutable once
// created; corrections are new offsetting transactions.
type Transaction struct {
	ID    int64
	TS    string // TimeLayout
	Type  string // posting kind label, e.g. "Fiat Deposit"
	Notes string
}

// Line is one side of a double-entry posting. Owned by its transaction and
// never updated after insert.
type Line struct {
	ID          int64
	TxnID       int64
	AccountID   int64
	DrCr        int // Debit or Credit
	AmountUSD   decimal.Decimal
	AssetSymbol string          // optional
	Qty         decimal.Decimal // asset-native quantity, zero when n/a
	WalletID    int64           // free-standing wallet identifier, 0 when n/a
}

// LedgerRow is one line of the ledger view, newest transaction first.
type LedgerRow struct {
	LineID      int64
	TxnID       int64
	TS          string
	Type        string
	AccountCode string
	AccountName string
	Side        string // "DEBIT" or "CREDIT"
	AmountUSD   decimal.Decimal
	Asset       string
	Qty         decimal.Decimal
	Notes       string
}

// BalanceRow is the signed USD balance of one account.
type BalanceRow struct {
	Code       string
	Name       string
	Type       AccountType
	BalanceUSD decimal.Decimal
}
