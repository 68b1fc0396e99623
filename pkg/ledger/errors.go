package ledger

import "errors"

// Error taxonomy of the engine. All errors surface to the caller unmodified;
// there is no recovery or retry inside the engine.
var (
	// ErrAccountNotFound means a referenced account code does not exist.
	// After seeding, the fixed chart of accounts is expected to be present,
	// so callers should treat this as a configuration error.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount means a required quantity was non-positive or not a
	// finite number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRate means a currency conversion rate was missing or
	// non-positive when one was required.
	ErrInvalidRate = errors.New("invalid conversion rate")

	// ErrUnbalanced means a constructed line set failed the balance law.
	// With correct line construction this is unreachable; it is a defensive
	// invariant check, not a user-facing validation path.
	ErrUnbalanced = errors.New("unbalanced transaction")
)
