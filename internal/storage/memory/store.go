package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/piggy-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/models"
)

// MemoryLedgerStore is an in-memory implementation of
// interfaces.LedgerStore. It keeps rows in a slice guarded by a mutex and
// is safe for concurrent use. Handles are the 1-based slice positions.
type MemoryLedgerStore struct {
	mu   sync.Mutex
	rows []models.LedgerRow
}

// NewMemoryLedgerStore creates an empty in-memory ledger store.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		rows: make([]models.LedgerRow, 0),
	}
}

// LastRow returns the tail row and its handle, or ErrEmptyLedger when
// nothing has been appended yet.
func (m *MemoryLedgerStore) LastRow(ctx context.Context) (models.LedgerRow, models.RowHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.rows) == 0 {
		return models.LedgerRow{}, 0, interfaces.ErrEmptyLedger
	}
	return m.rows[len(m.rows)-1], models.RowHandle(len(m.rows)), nil
}

// Append adds row at the end if the tail is still where the caller saw it.
func (m *MemoryLedgerStore) Append(ctx context.Context, tail models.RowHandle, row models.LedgerRow) (models.RowHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if models.RowHandle(len(m.rows)) != tail {
		return 0, interfaces.ErrTailMoved
	}
	m.rows = append(m.rows, row)
	return models.RowHandle(len(m.rows)), nil
}

// Balance re-reads the stored balance for an appended row.
func (m *MemoryLedgerStore) Balance(ctx context.Context, handle models.RowHandle) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if handle < 1 || int(handle) > len(m.rows) {
		return decimal.Decimal{}, fmt.Errorf("no row with handle %d", handle)
	}
	return m.rows[handle-1].Balance, nil
}

// Rows returns a copy of the full history so callers cannot mutate the
// store's internal state.
func (m *MemoryLedgerStore) Rows(ctx context.Context) ([]models.LedgerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]models.LedgerRow, len(m.rows))
	copy(copied, m.rows)
	return copied, nil
}

// Compile-time check: MemoryLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
