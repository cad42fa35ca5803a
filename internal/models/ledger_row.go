package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RowKind classifies a ledger row by the event it records.
type RowKind string

const (
	RowKindDeposit    RowKind = "Deposit"
	RowKindWithdrawal RowKind = "Withdrawal"
	RowKindInterest   RowKind = "Interest"
)

// RowHandle identifies the position of an appended row within the store.
// Handles are assigned by the store and strictly increase with append order;
// the zero handle is the tail of an empty ledger.
type RowHandle int64

// LedgerRow represents a single immutable record of a balance-affecting
// event. Amount is always the positive magnitude of the change; the kind
// implies its sign. Balance is the running account balance after this row
// is applied, rounded to 2 fractional digits.
type LedgerRow struct {
	ID        uuid.UUID       `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      RowKind         `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
}

// Signed returns the amount with the sign implied by the row kind.
func (r LedgerRow) Signed() decimal.Decimal {
	if r.Kind == RowKindWithdrawal {
		return r.Amount.Neg()
	}
	return r.Amount
}
