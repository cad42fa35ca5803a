package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/piggy-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_rows (
	seq     BIGSERIAL PRIMARY KEY,
	id      UUID        NOT NULL,
	ts      TIMESTAMPTZ NOT NULL,
	kind    TEXT        NOT NULL,
	amount  NUMERIC     NOT NULL,
	balance NUMERIC     NOT NULL
)`

// PostgresLedgerStore is a lib/pq backed implementation of
// interfaces.LedgerStore. Handles are the seq values assigned by the
// database, which strictly increase with append order.
type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// Init creates the ledger table when it does not exist yet.
func (p *PostgresLedgerStore) Init(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *PostgresLedgerStore) LastRow(ctx context.Context) (models.LedgerRow, models.RowHandle, error) {
	const query = `SELECT seq, id, ts, kind, amount, balance FROM ledger_rows
	ORDER BY seq DESC LIMIT 1`

	var (
		row models.LedgerRow
		seq int64
	)
	err := p.db.QueryRowContext(ctx, query).Scan(&seq, &row.ID, &row.Timestamp, &row.Kind, &row.Amount, &row.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LedgerRow{}, 0, interfaces.ErrEmptyLedger
	}
	if err != nil {
		return models.LedgerRow{}, 0, err
	}
	return row, models.RowHandle(seq), nil
}

// Append inserts the row inside a transaction that first re-checks the
// tail, so a competing writer causes ErrTailMoved instead of a lost update.
func (p *PostgresLedgerStore) Append(ctx context.Context, tail models.RowHandle, row models.LedgerRow) (models.RowHandle, error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	var current int64
	err = dbTx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM ledger_rows`).Scan(&current)
	if err != nil {
		return 0, err
	}
	if models.RowHandle(current) != tail {
		err = interfaces.ErrTailMoved
		return 0, err
	}

	const insert = `INSERT INTO ledger_rows (id, ts, kind, amount, balance)
	VALUES ($1, $2, $3, $4, $5) RETURNING seq`

	var seq int64
	err = dbTx.QueryRowContext(ctx, insert, row.ID, row.Timestamp, string(row.Kind), row.Amount, row.Balance).Scan(&seq)
	if err != nil {
		return 0, err
	}

	if err = dbTx.Commit(); err != nil {
		return 0, err
	}
	return models.RowHandle(seq), nil
}

func (p *PostgresLedgerStore) Balance(ctx context.Context, handle models.RowHandle) (decimal.Decimal, error) {
	const query = `SELECT balance FROM ledger_rows WHERE seq = $1`

	var balance decimal.Decimal
	err := p.db.QueryRowContext(ctx, query, int64(handle)).Scan(&balance)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return balance, nil
}

func (p *PostgresLedgerStore) Rows(ctx context.Context) ([]models.LedgerRow, error) {
	const query = `SELECT id, ts, kind, amount, balance FROM ledger_rows ORDER BY seq`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var entries []models.LedgerRow
	for rows.Next() {
		var entry models.LedgerRow
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Kind, &entry.Amount, &entry.Balance); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
