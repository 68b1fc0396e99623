package db

import (
	"database/sql"
	"fmt"
	"strconv"
)

const schemaVersionKey = "schema_version"

// schema0001 creates the core ledger tables.
const schema0001 = `
-- Chart of accounts
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY,
    code TEXT UNIQUE,
    name TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('ASSET','LIABILITY','EQUITY','INCOME','EXPENSE')),
    parent_id INTEGER,
    currency TEXT
);

-- Known crypto assets (symbol registry)
CREATE TABLE IF NOT EXISTS assets (
    id INTEGER PRIMARY KEY,
    symbol TEXT NOT NULL,
    name TEXT NOT NULL,
    chain TEXT,
    decimals INTEGER DEFAULT 8
);

-- Wallets referenced by transaction lines (free-standing, not enforced)
CREATE TABLE IF NOT EXISTS wallets (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    chain TEXT,
    address TEXT
);

-- One row per atomic economic event
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY,
    ts TEXT NOT NULL,
    type TEXT NOT NULL,
    notes TEXT
);

-- Double-entry lines; every transaction's lines sum to zero in USD
CREATE TABLE IF NOT EXISTS transaction_lines (
    id INTEGER PRIMARY KEY,
    txn_id INTEGER NOT NULL,
    account_id INTEGER NOT NULL,
    drcr INTEGER NOT NULL CHECK (drcr IN (-1,1)),
    amount_usd REAL NOT NULL DEFAULT 0,
    asset_symbol TEXT,
    qty REAL,
    wallet_id INTEGER
);
`

// migration is one ordered, idempotent schema step. Statements must be safe
// to re-run (CREATE TABLE IF NOT EXISTS, not unconditional create).
type migration struct {
	version int
	name    string
	stmts   string
}

var migrations = []migration{
	{version: 1, name: "core ledger tables", stmts: schema0001},
}

// Migrate brings the database schema to the current version. It ensures the
// meta table exists, reads the stored schema version (0 if absent), and
// applies each pending migration step together with its version bump inside
// one transaction, so a partial failure leaves the version unchanged.
// Safe to call on every startup.
func Migrate(conn *Connection) error {
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}

	version, err := SchemaVersion(conn)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		err := conn.Transaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.stmts); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
			if err := setMetadataTx(tx, schemaVersionKey, strconv.Itoa(m.version)); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		version = m.version
	}

	return nil
}

// SchemaVersion returns the stored schema version, or 0 when none is
// recorded yet.
func SchemaVersion(conn *Connection) (int, error) {
	value, err := GetMetadata(conn, schemaVersionKey)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	version, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", value, err)
	}
	return version, nil
}

// GetMetadata retrieves a metadata value. Missing keys yield "".
func GetMetadata(conn *Connection, key string) (string, error) {
	var value string
	err := conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata %q: %w", key, err)
	}
	return value, nil
}

// SetMetadata sets a metadata value.
func SetMetadata(conn *Connection, key, value string) error {
	_, err := conn.Exec(metadataUpsert, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata %q: %w", key, err)
	}
	return nil
}

func setMetadataTx(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(metadataUpsert, key, value)
	return err
}

const metadataUpsert = `
	INSERT INTO meta (key, value)
	VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
`
