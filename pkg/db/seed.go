package db

import (
	"database/sql"
	"fmt"
)

// seedAccount is one row of the starter chart of accounts.
type seedAccount struct {
	Code     string
	Name     string
	Type     string
	Currency string // empty for non-fiat accounts
}

// starterAccounts is the minimal chart a fresh ledger needs before any
// posting can succeed. Codes are unique and never reused.
var starterAccounts = []seedAccount{
	{"1010", "Bank – USD", "ASSET", "USD"},
	{"1011", "Bank – EUR", "ASSET", "EUR"},
	{"1100", "Crypto Assets (Control)", "ASSET", ""},
	{"2000", "Loans from DEX", "LIABILITY", ""},
	{"3000", "Owner Contributions", "EQUITY", ""},
	{"3100", "Owner Draws", "EQUITY", ""},
	{"3200", "Retained Earnings", "EQUITY", ""},
	{"4000", "Realized Gain/Loss", "INCOME", ""},
	{"4100", "Rewards Income", "INCOME", ""},
	{"5000", "Fees – Trading", "EXPENSE", ""},
	{"5010", "Fees – Network/Gas", "EXPENSE", ""},
}

// SeedIfEmpty populates the starter chart of accounts exactly once. If the
// accounts table already has rows it does nothing, so it is safe to call on
// every startup. The whole batch runs in one transaction; each insert uses
// INSERT OR IGNORE keyed by the unique code, so a duplicate seed attempt
// cannot violate the unique-code constraint.
func SeedIfEmpty(conn *Connection) error {
	var count int
	if err := conn.QueryRow(`SELECT COUNT(1) FROM accounts`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	return conn.Transaction(func(tx *sql.Tx) error {
		stmt := `
			INSERT OR IGNORE INTO accounts (code, name, type, parent_id, currency)
			VALUES (?, ?, ?, NULL, ?)
		`
		for _, a := range starterAccounts {
			var currency any
			if a.Currency != "" {
				currency = a.Currency
			}
			if _, err := tx.Exec(stmt, a.Code, a.Name, a.Type, currency); err != nil {
				return fmt.Errorf("failed to seed account %s: %w", a.Code, err)
			}
		}
		return nil
	})
}
