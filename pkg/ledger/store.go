package ledger

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Myoxsis/Crypto-Accounting-v2/pkg/db"
)

// Store is the data access layer over accounts, transactions, and
// transaction lines.
type Store struct {
	conn *db.Connection
}

// NewStore creates a Store on an open connection.
func NewStore(conn *db.Connection) *Store {
	return &Store{conn: conn}
}

// ListAccounts returns all accounts ordered by code ascending.
func (s *Store) ListAccounts() ([]Account, error) {
	rows, err := s.conn.Query(`
		SELECT id, code, name, type, parent_id, COALESCE(currency, '')
		FROM accounts
		ORDER BY code ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		var typ string
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &typ, &a.ParentID, &a.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Type = AccountType(typ)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// AccountIDByCode resolves a unique account code to its id. Returns
// ErrAccountNotFound when no such code exists.
func (s *Store) AccountIDByCode(code string) (int64, error) {
	var id int64
	err := s.conn.QueryRow(`SELECT id FROM accounts WHERE code = ? LIMIT 1`, code).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("account %q: %w", code, ErrAccountNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve account %q: %w", code, err)
	}
	return id, nil
}

// InsertTransaction inserts one transaction header and all of its lines as a
// single atomic unit: either every row commits or none do. Returns the
// generated transaction id. On any failure the unit rolls back entirely and
// the original error is returned, so readers never observe a partial
// transaction.
func (s *Store) InsertTransaction(header Transaction, lines []Line) (int64, error) {
	var txnID int64
	err := s.conn.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT INTO transactions (ts, type, notes) VALUES (?, ?, ?)`,
			header.TS, header.Type, nullString(header.Notes),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		txnID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read transaction id: %w", err)
		}

		for _, l := range lines {
			_, err := tx.Exec(`
				INSERT INTO transaction_lines (txn_id, account_id, drcr, amount_usd, asset_symbol, qty, wallet_id)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				txnID,
				l.AccountID,
				l.DrCr,
				l.AmountUSD.InexactFloat64(),
				nullString(l.AssetSymbol),
				nullDecimal(l.Qty),
				nullID(l.WalletID),
			)
			if err != nil {
				return fmt.Errorf("failed to insert transaction line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return txnID, nil
}

// ListLedger returns every transaction line joined with its transaction and
// account, newest transaction first, line id ascending as a stable tie-break
// for same-timestamp transactions.
func (s *Store) ListLedger() ([]LedgerRow, error) {
	rows, err := s.conn.Query(`
		SELECT tl.id, t.id, t.ts, t.type, a.code, a.name,
		       CASE WHEN tl.drcr = 1 THEN 'DEBIT' ELSE 'CREDIT' END,
		       ROUND(tl.amount_usd, 2),
		       COALESCE(tl.asset_symbol, ''), COALESCE(tl.qty, 0), COALESCE(t.notes, '')
		FROM transaction_lines tl
		JOIN transactions t ON t.id = tl.txn_id
		JOIN accounts a ON a.id = tl.account_id
		ORDER BY t.ts DESC, tl.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}
	defer rows.Close()

	var ledger []LedgerRow
	for rows.Next() {
		var r LedgerRow
		var amount, qty float64
		if err := rows.Scan(
			&r.LineID, &r.TxnID, &r.TS, &r.Type, &r.AccountCode, &r.AccountName,
			&r.Side, &amount, &r.Asset, &qty, &r.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		r.AmountUSD = decimal.NewFromFloat(amount).Round(2)
		r.Qty = decimal.NewFromFloat(qty)
		ledger = append(ledger, r)
	}
	return ledger, rows.Err()
}

// BalancesByAccount returns the signed USD balance (debits positive) of
// every account, ordered by code. Accounts with no lines report balance 0:
// the join is an outer join on purpose.
func (s *Store) BalancesByAccount() ([]BalanceRow, error) {
	rows, err := s.conn.Query(`
		SELECT a.code, a.name, a.type,
		       COALESCE(ROUND(SUM(CASE WHEN tl.drcr = 1 THEN tl.amount_usd ELSE -tl.amount_usd END), 2), 0)
		FROM accounts a
		LEFT JOIN transaction_lines tl ON tl.account_id = a.id
		GROUP BY a.id
		ORDER BY a.code ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read balances: %w", err)
	}
	defer rows.Close()

	var balances []BalanceRow
	for rows.Next() {
		var r BalanceRow
		var typ string
		var balance float64
		if err := rows.Scan(&r.Code, &r.Name, &typ, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		r.Type = AccountType(typ)
		r.BalanceUSD = decimal.NewFromFloat(balance).Round(2)
		balances = append(balances, r)
	}
	return balances, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDecimal(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return d.InexactFloat64()
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
