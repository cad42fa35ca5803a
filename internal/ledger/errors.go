package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrMissingLedger is returned when an operation needs a prior row to base
// its computation on and the ledger has none.
var ErrMissingLedger = errors.New("ledger: no prior row to compute from")

// InvalidAmountError rejects a transaction amount that is not a positive
// number.
type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid transaction amount %s: must be a positive number", e.Amount)
}

// LimitExceededError rejects a deposit that would push the balance over the
// configured maximum.
type LimitExceededError struct {
	Max decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("deposit failed: this transaction would exceed the maximum balance of %s", e.Max.StringFixed(2))
}

// InsufficientFundsError rejects a withdrawal larger than the available
// balance.
type InsufficientFundsError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("withdrawal failed: insufficient funds: tried to withdraw %s but the balance is %s",
		e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// InvalidConfigurationError reports a missing or unusable setting.
type InvalidConfigurationError struct {
	Setting string
	Reason  string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("configuration %q is invalid: %s", e.Setting, e.Reason)
}

// StoreUnavailableError wraps an underlying persistence failure.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("ledger store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }
