package posting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Myoxsis/Crypto-Accounting-v2/pkg/ledger"
)

// FiatMovement is the input for fiat deposits and withdrawals. USDRate is
// the EUR→USD rate and is required when Currency is EUR.
type FiatMovement struct {
	TS       time.Time
	Currency string // "USD" or "EUR"
	Amount   decimal.Decimal
	USDRate  decimal.Decimal
	Notes    string
}

// WalletMove is the input for the custody moves: wallet transfer, supply to
// DEX, and bridge. The move shifts qty of an asset between two wallets of
// the crypto control account with no USD effect.
type WalletMove struct {
	TS         time.Time
	Asset      string
	Qty        decimal.Decimal
	FromWallet int64
	ToWallet   int64
	Notes      string
}

// Borrow is the input for borrowing an asset from a DEX, establishing a
// liability valued at AmountUSD.
type Borrow struct {
	TS        time.Time
	Asset     string
	Qty       decimal.Decimal
	WalletID  int64
	AmountUSD decimal.Decimal
	Notes     string
}

// Swap is the input for exchanging one asset for another within a wallet.
// When the two legs are valued differently, the difference posts to the
// realized gain/loss account.
type Swap struct {
	TS        time.Time
	WalletID  int64
	FromAsset string
	FromQty   decimal.Decimal
	FromUSD   decimal.Decimal
	ToAsset   string
	ToQty     decimal.Decimal
	ToUSD     decimal.Decimal
	Notes     string
}

// fiatUSD converts a fiat amount to USD, rounded to 2 decimal places.
func fiatUSD(in FiatMovement) (decimal.Decimal, error) {
	if err := requirePositive("amount", in.Amount); err != nil {
		return decimal.Zero, err
	}
	var usd decimal.Decimal
	switch in.Currency {
	case "USD":
		usd = in.Amount
	case "EUR":
		if !in.USDRate.IsPositive() {
			return decimal.Zero, fmt.Errorf("EUR deposit needs a EUR→USD rate: %w", ledger.ErrInvalidRate)
		}
		usd = in.USDRate.Mul(in.Amount)
	default:
		return decimal.Zero, fmt.Errorf("unsupported currency %q: %w", in.Currency, ledger.ErrInvalidRate)
	}
	usd = usd.Round(2)
	if !usd.IsPositive() {
		return decimal.Zero, fmt.Errorf("converted amount %s: %w", usd, ledger.ErrInvalidAmount)
	}
	return usd, nil
}

func bankCode(currency string) string {
	if currency == "EUR" {
		return codeBankEUR
	}
	return codeBankUSD
}

// PostFiatDeposit records money entering a bank account from the owner:
// debit the bank, credit owner contributions.
func (s *Service) PostFiatDeposit(in FiatMovement) (int64, error) {
	usd, err := fiatUSD(in)
	if err != nil {
		return 0, err
	}
	bankID, err := s.store.AccountIDByCode(bankCode(in.Currency))
	if err != nil {
		return 0, err
	}
	equityID, err := s.store.AccountIDByCode(codeOwnerContrib)
	if err != nil {
		return 0, err
	}
	lines := []ledger.Line{
		{AccountID: bankID, DrCr: ledger.Debit, AmountUSD: usd, AssetSymbol: in.Currency, Qty: in.Amount},
		{AccountID: equityID, DrCr: ledger.Credit, AmountUSD: usd, AssetSymbol: in.Currency, Qty: in.Amount},
	}
	return s.commit(in.TS, KindFiatDeposit, in.Notes, lines)
}

// PostFiatWithdrawal records money leaving a bank account to the owner:
// debit owner draws, credit the bank.
func (s *Service) PostFiatWithdrawal(in FiatMovement) (int64, error) {
	usd, err := fiatUSD(in)
	if err != nil {
		return 0, err
	}
	drawsID, err := s.store.AccountIDByCode(codeOwnerDraws)
	if err != nil {
		return 0, err
	}
	bankID, err := s.store.AccountIDByCode(bankCode(in.Currency))
	if err != nil {
		return 0, err
	}
	lines := []ledger.Line{
		{AccountID: drawsID, DrCr: ledger.Debit, AmountUSD: usd, AssetSymbol: in.Currency, Qty: in.Amount},
		{AccountID: bankID, DrCr: ledger.Credit, AmountUSD: usd, AssetSymbol: in.Currency, Qty: in.Amount},
	}
	return s.commit(in.TS, KindFiatWithdrawal, in.Notes, lines)
}

// PostWalletTransfer moves an asset between two of the owner's wallets.
func (s *Service) PostWalletTransfer(in WalletMove) (int64, error) {
	return s.postWalletMove(KindWalletTransfer, in)
}

// PostSupplyToDex moves an asset from a wallet into a DEX position.
func (s *Service) PostSupplyToDex(in WalletMove) (int64, error) {
	return s.postWalletMove(KindSupplyToDex, in)
}

// PostBridge moves an asset across chains between wallets.
func (s *Service) PostBridge(in WalletMove) (int64, error) {
	return s.postWalletMove(KindBridge, in)
}

// postWalletMove posts a custody move between wallets of the crypto control
// account. Both lines carry amount_usd = 0: moving an asset between wallets
// is not a valuation event, so the net USD effect is zero by construction.
func (s *Service) postWalletMove(kind Kind, in WalletMove) (int64, error) {
	if err := requirePositive("qty", in.Qty); err != nil {
		return 0, err
	}
	controlID, err := s.store.AccountIDByCode(codeCryptoControl)
	if err != nil {
		return 0, err
	}
	lines := []ledger.Line{
		{AccountID: controlID, DrCr: ledger.Debit, AmountUSD: decimal.Zero, AssetSymbol: in.Asset, Qty: in.Qty, WalletID: in.ToWallet},
		{AccountID: controlID, DrCr: ledger.Credit, AmountUSD: decimal.Zero, AssetSymbol: in.Asset, Qty: in.Qty, WalletID: in.FromWallet},
	}
	return s.commit(in.TS, kind, in.Notes, lines)
}

// PostBorrowFromDex records an asset borrowed from a DEX: debit the crypto
// control account with the borrowed asset, credit the loan liability.
func (s *Service) PostBorrowFromDex(in Borrow) (int64, error) {
	if err := requirePositive("qty", in.Qty); err != nil {
		return 0, err
	}
	if err := requirePositive("amountUsd", in.AmountUSD); err != nil {
		return 0, err
	}
	usd := in.AmountUSD.Round(2)
	controlID, err := s.store.AccountIDByCode(codeCryptoControl)
	if err != nil {
		return 0, err
	}
	loansID, err := s.store.AccountIDByCode(codeLoansFromDex)
	if err != nil {
		return 0, err
	}
	lines := []ledger.Line{
		{AccountID: controlID, DrCr: ledger.Debit, AmountUSD: usd, AssetSymbol: in.Asset, Qty: in.Qty, WalletID: in.WalletID},
		{AccountID: loansID, DrCr: ledger.Credit, AmountUSD: usd},
	}
	return s.commit(in.TS, KindBorrowFromDex, in.Notes, lines)
}

// PostSwap records exchanging one asset for another within a wallet. The two
// legs are valued independently; when they differ by more than the rounding
// tolerance a third line on the realized gain/loss account absorbs the gap
// and keeps the transaction balanced: credit on a gain, debit on a loss.
func (s *Service) PostSwap(in Swap) (int64, error) {
	for _, q := range []struct {
		name string
		d    decimal.Decimal
	}{
		{"fromQty", in.FromQty}, {"fromUsd", in.FromUSD},
		{"toQty", in.ToQty}, {"toUsd", in.ToUSD},
	} {
		if err := requirePositive(q.name, q.d); err != nil {
			return 0, err
		}
	}
	fromUSD := in.FromUSD.Round(2)
	toUSD := in.ToUSD.Round(2)

	controlID, err := s.store.AccountIDByCode(codeCryptoControl)
	if err != nil {
		return 0, err
	}
	lines := []ledger.Line{
		{AccountID: controlID, DrCr: ledger.Debit, AmountUSD: toUSD, AssetSymbol: in.ToAsset, Qty: in.ToQty, WalletID: in.WalletID},
		{AccountID: controlID, DrCr: ledger.Credit, AmountUSD: fromUSD, AssetSymbol: in.FromAsset, Qty: in.FromQty, WalletID: in.WalletID},
	}

	diff := toUSD.Sub(fromUSD)
	if diff.Abs().GreaterThan(balanceTolerance) {
		gainLossID, err := s.store.AccountIDByCode(codeRealizedGainLoss)
		if err != nil {
			return 0, err
		}
		side := ledger.Credit // gain
		if diff.IsNegative() {
			side = ledger.Debit // loss
		}
		lines = append(lines, ledger.Line{
			AccountID: gainLossID,
			DrCr:      side,
			AmountUSD: diff.Abs(),
			WalletID:  in.WalletID,
		})
	}
	return s.commit(in.TS, KindSwap, in.Notes, lines)
}
