// Package posting builds balanced transaction line sets for each posting
// kind and commits them atomically through the ledger store.
package posting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Myoxsis/Crypto-Accounting-v2/pkg/ledger"
)

// Kind labels an economic event type. The label is stored verbatim on the
// transaction header.
type Kind string

const (
	KindFiatDeposit    Kind = "Fiat Deposit"
	KindFiatWithdrawal Kind = "Withdrawal"
	KindWalletTransfer Kind = "Wallet Transfer"
	KindSupplyToDex    Kind = "Supply to DEX"
	KindBorrowFromDex  Kind = "Borrow from DEX"
	KindSwap           Kind = "Swap"
	KindBridge         Kind = "Bridge"
)

// Fixed chart-of-accounts codes the posting rules bind to. Seeded at
// bootstrap; resolving any of these to no account is a configuration error.
const (
	codeBankUSD          = "1010"
	codeBankEUR          = "1011"
	codeCryptoControl    = "1100"
	codeLoansFromDex     = "2000"
	codeOwnerContrib     = "3000"
	codeOwnerDraws       = "3100"
	codeRealizedGainLoss = "4000"
)

// balanceTolerance is the rounding slack allowed by the balance law.
var balanceTolerance = decimal.New(1, -2) // 0.01

// FlushRequester is notified after each successful commit so durable
// persistence can be scheduled. Requests must never block.
type FlushRequester interface {
	Request()
}

// Service posts transactions against the ledger store.
type Service struct {
	store *ledger.Store
	flush FlushRequester // optional
}

// NewService creates a posting Service. flush may be nil.
func NewService(store *ledger.Store, flush FlushRequester) *Service {
	return &Service{store: store, flush: flush}
}

// commit validates the balance law on the constructed lines and inserts the
// transaction atomically. All amounts must already be rounded to 2 decimal
// places: rounding happens exactly once, before validation, so validation
// and storage agree.
func (s *Service) commit(ts time.Time, kind Kind, notes string, lines []ledger.Line) (int64, error) {
	if err := validateBalanced(lines); err != nil {
		return 0, err
	}
	header := ledger.Transaction{
		TS:    ts.Format(ledger.TimeLayout),
		Type:  string(kind),
		Notes: notes,
	}
	txnID, err := s.store.InsertTransaction(header, lines)
	if err != nil {
		return 0, err
	}
	if s.flush != nil {
		s.flush.Request()
	}
	return txnID, nil
}

// validateBalanced enforces the core invariant: the signed USD amounts of a
// transaction's lines sum to zero within the rounding tolerance. Given
// correct line construction this never fires; it exists so the balance law
// is checked in exactly one place, before anything is persisted.
func validateBalanced(lines []ledger.Line) error {
	if len(lines) < 2 {
		return fmt.Errorf("%d line(s): %w", len(lines), ledger.ErrUnbalanced)
	}
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.AmountUSD.Mul(decimal.NewFromInt(int64(l.DrCr))))
	}
	if sum.Abs().GreaterThan(balanceTolerance) {
		return fmt.Errorf("lines sum to %s USD: %w", sum.StringFixed(2), ledger.ErrUnbalanced)
	}
	return nil
}

// requirePositive rejects non-positive required quantities.
func requirePositive(name string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%s must be > 0: %w", name, ledger.ErrInvalidAmount)
	}
	return nil
}
