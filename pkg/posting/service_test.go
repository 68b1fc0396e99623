package posting

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Myoxsis/Crypto-Accounting-v2/pkg/db"
	"github.com/Myoxsis/Crypto-Accounting-v2/pkg/ledger"
)

var testTS = time.Date(2025, 8, 1, 10, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *ledger.Store, *db.Connection) {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, db.SeedIfEmpty(conn))
	store := ledger.NewStore(conn)
	return NewService(store, nil), store, conn
}

func usd(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func balances(t *testing.T, store *ledger.Store) map[string]decimal.Decimal {
	t.Helper()
	rows, err := store.BalancesByAccount()
	require.NoError(t, err)
	byCode := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		byCode[r.Code] = r.BalanceUSD
	}
	return byCode
}

// assertBalanceLaw re-sums every committed transaction's lines and fails if
// any transaction's signed USD amounts stray beyond the rounding slack.
func assertBalanceLaw(t *testing.T, conn *db.Connection) {
	t.Helper()
	rows, err := conn.Query(`
		SELECT txn_id, SUM(drcr * amount_usd)
		FROM transaction_lines
		GROUP BY txn_id
	`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var txnID int64
		var sum float64
		require.NoError(t, rows.Scan(&txnID, &sum))
		assert.InDelta(t, 0, sum, 0.01, "transaction %d is unbalanced", txnID)
	}
	require.NoError(t, rows.Err())
}

func countRows(t *testing.T, conn *db.Connection, table string) int {
	t.Helper()
	var count int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(1) FROM `+table).Scan(&count))
	return count
}

func TestPostFiatDeposit_USD(t *testing.T) {
	svc, store, conn := newTestService(t)

	txnID, err := svc.PostFiatDeposit(FiatMovement{
		TS: testTS, Currency: "USD", Amount: usd("100"), Notes: "initial funding",
	})
	require.NoError(t, err)
	assert.Positive(t, txnID)

	b := balances(t, store)
	assert.True(t, b["1010"].Equal(usd("100.00")), "bank balance %s", b["1010"])
	assert.True(t, b["3000"].Equal(usd("-100.00")), "equity balance %s", b["3000"])
	assertBalanceLaw(t, conn)
}

func TestPostFiatDeposit_EURConversion(t *testing.T) {
	svc, store, conn := newTestService(t)

	_, err := svc.PostFiatDeposit(FiatMovement{
		TS: testTS, Currency: "EUR", Amount: usd("50"), USDRate: usd("1.08"),
	})
	require.NoError(t, err)

	rows, err := store.ListLedger()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	debit := rows[0]
	assert.Equal(t, "1011", debit.AccountCode)
	assert.Equal(t, "DEBIT", debit.Side)
	assert.True(t, debit.AmountUSD.Equal(usd("54.00")), "amount %s", debit.AmountUSD)
	assert.Equal(t, "EUR", debit.Asset)
	assert.True(t, debit.Qty.Equal(usd("50")))

	credit := rows[1]
	assert.Equal(t, "3000", credit.AccountCode)
	assert.Equal(t, "CREDIT", credit.Side)
	assert.True(t, credit.AmountUSD.Equal(usd("54.00")))
	assertBalanceLaw(t, conn)
}

func TestPostFiatDeposit_Invalid(t *testing.T) {
	svc, _, conn := newTestService(t)

	tests := []struct {
		name    string
		input   FiatMovement
		wantErr error
	}{
		{
			"zero amount",
			FiatMovement{TS: testTS, Currency: "USD", Amount: usd("0")},
			ledger.ErrInvalidAmount,
		},
		{
			"negative amount",
			FiatMovement{TS: testTS, Currency: "USD", Amount: usd("-5")},
			ledger.ErrInvalidAmount,
		},
		{
			"EUR without rate",
			FiatMovement{TS: testTS, Currency: "EUR", Amount: usd("50")},
			ledger.ErrInvalidRate,
		},
		{
			"EUR with negative rate",
			FiatMovement{TS: testTS, Currency: "EUR", Amount: usd("50"), USDRate: usd("-1")},
			ledger.ErrInvalidRate,
		},
		{
			"unsupported currency",
			FiatMovement{TS: testTS, Currency: "GBP", Amount: usd("50")},
			ledger.ErrInvalidRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PostFiatDeposit(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Zero(t, countRows(t, conn, "transactions"), "rejected postings must not persist")
}

func TestPostFiatWithdrawal(t *testing.T) {
	svc, store, conn := newTestService(t)

	_, err := svc.PostFiatDeposit(FiatMovement{TS: testTS, Currency: "USD", Amount: usd("200")})
	require.NoError(t, err)
	_, err = svc.PostFiatWithdrawal(FiatMovement{TS: testTS.Add(time.Hour), Currency: "USD", Amount: usd("80")})
	require.NoError(t, err)

	b := balances(t, store)
	assert.True(t, b["1010"].Equal(usd("120.00")), "bank balance %s", b["1010"])
	assert.True(t, b["3100"].Equal(usd("80.00")), "draws balance %s", b["3100"])
	assertBalanceLaw(t, conn)
}

func TestPostWalletMoves_ZeroUSDEffect(t *testing.T) {
	post := map[string]func(*Service, WalletMove) (int64, error){
		"Wallet Transfer": (*Service).PostWalletTransfer,
		"Supply to DEX":   (*Service).PostSupplyToDex,
		"Bridge":          (*Service).PostBridge,
	}

	for kind, fn := range post {
		t.Run(kind, func(t *testing.T) {
			svc, store, conn := newTestService(t)

			_, err := fn(svc, WalletMove{
				TS: testTS, Asset: "ETH", Qty: usd("1.5"), FromWallet: 1, ToWallet: 2,
			})
			require.NoError(t, err)

			rows, err := store.ListLedger()
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, kind, rows[0].Type)

			// A custody move carries the quantity but no USD valuation, so
			// balances stay untouched.
			for _, r := range rows {
				assert.Equal(t, "1100", r.AccountCode)
				assert.True(t, r.AmountUSD.IsZero())
				assert.Equal(t, "ETH", r.Asset)
				assert.True(t, r.Qty.Equal(usd("1.5")))
			}
			b := balances(t, store)
			assert.True(t, b["1100"].IsZero())
			assertBalanceLaw(t, conn)
		})
	}
}

func TestPostWalletMove_InvalidQty(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.PostWalletTransfer(WalletMove{
		TS: testTS, Asset: "ETH", Qty: usd("0"), FromWallet: 1, ToWallet: 2,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestPostBorrowFromDex(t *testing.T) {
	svc, store, conn := newTestService(t)

	_, err := svc.PostBorrowFromDex(Borrow{
		TS: testTS, Asset: "USDC", Qty: usd("500"), WalletID: 3, AmountUSD: usd("500"),
	})
	require.NoError(t, err)

	b := balances(t, store)
	assert.True(t, b["1100"].Equal(usd("500.00")), "control balance %s", b["1100"])
	assert.True(t, b["2000"].Equal(usd("-500.00")), "loan balance %s", b["2000"])
	assertBalanceLaw(t, conn)
}

func TestPostBorrowFromDex_Invalid(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.PostBorrowFromDex(Borrow{TS: testTS, Asset: "USDC", Qty: usd("0"), WalletID: 3, AmountUSD: usd("500")})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.PostBorrowFromDex(Borrow{TS: testTS, Asset: "USDC", Qty: usd("500"), WalletID: 3, AmountUSD: usd("-1")})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestPostSwap_WithGain(t *testing.T) {
	svc, store, conn := newTestService(t)

	_, err := svc.PostSwap(Swap{
		TS: testTS, WalletID: 1,
		FromAsset: "ETH", FromQty: usd("0.05"), FromUSD: usd("100.00"),
		ToAsset: "USDC", ToQty: usd("105"), ToUSD: usd("105.00"),
	})
	require.NoError(t, err)

	rows, err := store.ListLedger()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// The valuation gap posts to realized gain/loss as a credit of 5.00.
	gain := rows[2]
	assert.Equal(t, "4000", gain.AccountCode)
	assert.Equal(t, "CREDIT", gain.Side)
	assert.True(t, gain.AmountUSD.Equal(usd("5.00")), "gain %s", gain.AmountUSD)

	assertBalanceLaw(t, conn)
}

func TestPostSwap_WithLoss(t *testing.T) {
	svc, store, conn := newTestService(t)

	_, err := svc.PostSwap(Swap{
		TS: testTS, WalletID: 1,
		FromAsset: "ETH", FromQty: usd("0.05"), FromUSD: usd("100.00"),
		ToAsset: "USDC", ToQty: usd("97"), ToUSD: usd("97.00"),
	})
	require.NoError(t, err)

	rows, err := store.ListLedger()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	loss := rows[2]
	assert.Equal(t, "4000", loss.AccountCode)
	assert.Equal(t, "DEBIT", loss.Side)
	assert.True(t, loss.AmountUSD.Equal(usd("3.00")))

	assertBalanceLaw(t, conn)
}

func TestPostSwap_EqualLegsSkipGainLine(t *testing.T) {
	svc, store, conn := newTestService(t)

	_, err := svc.PostSwap(Swap{
		TS: testTS, WalletID: 1,
		FromAsset: "ETH", FromQty: usd("0.05"), FromUSD: usd("100.00"),
		ToAsset: "USDC", ToQty: usd("100"), ToUSD: usd("100.00"),
	})
	require.NoError(t, err)

	rows, err := store.ListLedger()
	require.NoError(t, err)
	assert.Len(t, rows, 2, "no gain/loss line when legs match")
	assertBalanceLaw(t, conn)
}

func TestPostSwap_InvalidInputs(t *testing.T) {
	svc, _, _ := newTestService(t)

	base := Swap{
		TS: testTS, WalletID: 1,
		FromAsset: "ETH", FromQty: usd("1"), FromUSD: usd("100"),
		ToAsset: "USDC", ToQty: usd("100"), ToUSD: usd("100"),
	}

	tests := []struct {
		name   string
		mutate func(*Swap)
	}{
		{"zero fromQty", func(s *Swap) { s.FromQty = usd("0") }},
		{"zero fromUsd", func(s *Swap) { s.FromUSD = usd("0") }},
		{"zero toQty", func(s *Swap) { s.ToQty = usd("0") }},
		{"negative toUsd", func(s *Swap) { s.ToUSD = usd("-1") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := svc.PostSwap(in)
			assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
		})
	}
}

func TestPost_UnseededChart(t *testing.T) {
	// Migrated but never seeded: every posting kind must fail with the
	// account-not-found error and persist nothing.
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(conn))
	svc := NewService(ledger.NewStore(conn), nil)

	_, err = svc.PostFiatDeposit(FiatMovement{TS: testTS, Currency: "USD", Amount: usd("100")})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	_, err = svc.PostSwap(Swap{
		TS: testTS, WalletID: 1,
		FromAsset: "ETH", FromQty: usd("1"), FromUSD: usd("100"),
		ToAsset: "USDC", ToQty: usd("100"), ToUSD: usd("100"),
	})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	assert.Zero(t, countRows(t, conn, "transactions"))
	assert.Zero(t, countRows(t, conn, "transaction_lines"))
}

func TestValidateBalanced(t *testing.T) {
	balanced := []ledger.Line{
		{DrCr: ledger.Debit, AmountUSD: usd("100.00")},
		{DrCr: ledger.Credit, AmountUSD: usd("100.00")},
	}
	assert.NoError(t, validateBalanced(balanced))

	withinSlack := []ledger.Line{
		{DrCr: ledger.Debit, AmountUSD: usd("100.00")},
		{DrCr: ledger.Credit, AmountUSD: usd("99.99")},
	}
	assert.NoError(t, validateBalanced(withinSlack), "0.01 rounding slack is allowed")

	unbalanced := []ledger.Line{
		{DrCr: ledger.Debit, AmountUSD: usd("100.00")},
		{DrCr: ledger.Credit, AmountUSD: usd("99.00")},
	}
	assert.ErrorIs(t, validateBalanced(unbalanced), ledger.ErrUnbalanced)

	single := []ledger.Line{{DrCr: ledger.Debit, AmountUSD: usd("100.00")}}
	assert.ErrorIs(t, validateBalanced(single), ledger.ErrUnbalanced)
}

type countingFlusher struct {
	requests int
}

func (c *countingFlusher) Request() { c.requests++ }

func TestCommit_RequestsFlush(t *testing.T) {
	_, store, _ := newTestService(t)
	flush := &countingFlusher{}
	svc := NewService(store, flush)

	_, err := svc.PostFiatDeposit(FiatMovement{TS: testTS, Currency: "USD", Amount: usd("10")})
	require.NoError(t, err)
	assert.Equal(t, 1, flush.requests, "a successful commit schedules one flush")

	_, err = svc.PostFiatDeposit(FiatMovement{TS: testTS, Currency: "USD", Amount: usd("0")})
	require.Error(t, err)
	assert.Equal(t, 1, flush.requests, "a rejected posting schedules no flush")
}
