package interfaces

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/piggy-bank-ledger/internal/models"
)

var (
	// ErrEmptyLedger is returned by LastRow when no row has been appended yet.
	ErrEmptyLedger = errors.New("ledger store: no rows")

	// ErrTailMoved is returned by Append when another writer appended a row
	// after the caller observed the tail.
	ErrTailMoved = errors.New("ledger store: tail moved since read")
)

// LedgerStore is the append-only table of transaction rows the engine reads
// from and appends to. Rows are never edited or removed.
type LedgerStore interface {
	// LastRow returns the most recently appended row together with its
	// handle, or ErrEmptyLedger when the table has no rows.
	LastRow(ctx context.Context) (models.LedgerRow, models.RowHandle, error)

	// Append durably adds row at the end and returns its handle, but only
	// if the store's tail still equals tail; it fails with ErrTailMoved
	// otherwise. The append is atomic: no partial row is ever visible.
	Append(ctx context.Context, tail models.RowHandle, row models.LedgerRow) (models.RowHandle, error)

	// Balance re-reads the persisted balance of an appended row. The stored
	// value is authoritative, not the arithmetic that produced it.
	Balance(ctx context.Context, handle models.RowHandle) (decimal.Decimal, error)

	// Rows returns the full row history in append order.
	Rows(ctx context.Context) ([]models.LedgerRow, error)
}
