package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopicRowAppended is the default topic ledger row events are published to.
const TopicRowAppended = "ledger_row_appended"

// RowAppended is emitted after a row has been durably appended and its
// balance confirmed by a read-back from the store.
type RowAppended struct {
	RowID      string          `json:"row_id"`
	Kind       string          `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	OccurredAt time.Time       `json:"occurred_at"`
}
