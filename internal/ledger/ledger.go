package ledger

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/piggy-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/models"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/models/events"
)

// Clock supplies row timestamps; replaceable in tests.
type Clock func() time.Time

// Ledger is the transaction engine. It holds a reference to the storage
// layer and a mutex serializing the read-validate-append-confirm sequence
// of every operation, so no two operations can compute from the same stale
// tail within this process. The store's tail-checked Append guards against
// writers outside the process.
type Ledger struct {
	store     interfaces.LedgerStore
	cfg       interfaces.ConfigSource
	publisher interfaces.EventPublisher
	now       Clock
	mu        sync.Mutex
}

// Option configures optional Ledger collaborators.
type Option func(*Ledger)

// WithPublisher makes the engine publish a RowAppended event after every
// confirmed append.
func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithClock overrides the timestamp source.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.now = c }
}

// New creates a Ledger backed by the given store. Configuration is read
// from cfg at the start of each operation, never cached.
func New(store interfaces.LedgerStore, cfg interfaces.ConfigSource, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// round2 rounds to 2 fractional digits, half away from zero.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func validateAmount(amount decimal.Decimal) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return &InvalidAmountError{Amount: amount}
	}
	return nil
}

// Deposit appends a Deposit row for amount and returns the confirmed new
// balance. It fails with LimitExceededError when the deposit would push the
// balance over the configured maximum, leaving the store untouched.
func (l *Ledger) Deposit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := validateAmount(amount); err != nil {
		return decimal.Decimal{}, err
	}

	max, err := l.cfg.MaxBalance()
	if err != nil {
		return decimal.Decimal{}, &InvalidConfigurationError{Setting: "max balance", Reason: err.Error()}
	}

	current, tail, err := l.tail(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if current.Add(amount).GreaterThan(max) {
		return decimal.Decimal{}, &LimitExceededError{Max: max}
	}

	return l.append(ctx, tail, models.RowKindDeposit, amount, round2(current.Add(amount)))
}

// Withdraw appends a Withdrawal row for amount and returns the confirmed
// new balance. It fails with InsufficientFundsError when amount exceeds the
// available balance, leaving the store untouched.
func (l *Ledger) Withdraw(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := validateAmount(amount); err != nil {
		return decimal.Decimal{}, err
	}

	current, tail, err := l.tail(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if amount.GreaterThan(current) {
		return decimal.Decimal{}, &InsufficientFundsError{Requested: amount, Available: current}
	}

	return l.append(ctx, tail, models.RowKindWithdrawal, amount, round2(current.Sub(amount)))
}

// AccrueInterest appends an Interest row computed from the current balance
// and the configured per-period rate. Interest may push the balance past
// the configured maximum; only deposits are capped. Each invocation
// compounds on whatever the balance is at call time.
func (l *Ledger) AccrueInterest(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rate, err := l.cfg.InterestRatePerPeriod()
	if err != nil {
		return &InvalidConfigurationError{Setting: "interest rate per period", Reason: err.Error()}
	}
	if rate.Cmp(decimal.Zero) <= 0 {
		return &InvalidConfigurationError{Setting: "interest rate per period", Reason: "must be a positive number"}
	}

	row, tail, err := l.store.LastRow(ctx)
	if errors.Is(err, interfaces.ErrEmptyLedger) {
		return ErrMissingLedger
	}
	if err != nil {
		return &StoreUnavailableError{Op: "read last row", Err: err}
	}

	interest := round2(row.Balance.Mul(rate))
	_, err = l.append(ctx, tail, models.RowKindInterest, interest, round2(row.Balance.Add(interest)))
	return err
}

// CurrentBalanceDisplay returns the last row's balance formatted to 2
// decimal places, or the zero-state default when no transactions exist yet.
func (l *Ledger) CurrentBalanceDisplay(ctx context.Context) (string, error) {
	row, _, err := l.store.LastRow(ctx)
	if errors.Is(err, interfaces.ErrEmptyLedger) {
		return "0.00", nil
	}
	if err != nil {
		return "", &StoreUnavailableError{Op: "read last row", Err: err}
	}
	return row.Balance.StringFixed(2), nil
}

// Rows returns the full transaction history in append order.
func (l *Ledger) Rows(ctx context.Context) ([]models.LedgerRow, error) {
	rows, err := l.store.Rows(ctx)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "read rows", Err: err}
	}
	return rows, nil
}

// tail reads the current balance and tail handle, treating an empty ledger
// as the zero seed state.
func (l *Ledger) tail(ctx context.Context) (decimal.Decimal, models.RowHandle, error) {
	row, handle, err := l.store.LastRow(ctx)
	if errors.Is(err, interfaces.ErrEmptyLedger) {
		return decimal.Zero, 0, nil
	}
	if err != nil {
		return decimal.Decimal{}, 0, &StoreUnavailableError{Op: "read last row", Err: err}
	}
	return row.Balance, handle, nil
}

// append durably adds the new row, then re-reads its balance from the
// store. The stored value is the authoritative result of the computation;
// the engine's own arithmetic is only a prediction of it.
func (l *Ledger) append(ctx context.Context, tail models.RowHandle, kind models.RowKind, amount, balance decimal.Decimal) (decimal.Decimal, error) {
	row := models.LedgerRow{
		ID:        uuid.New(),
		Timestamp: l.now(),
		Kind:      kind,
		Amount:    amount,
		Balance:   balance,
	}

	handle, err := l.store.Append(ctx, tail, row)
	if err != nil {
		return decimal.Decimal{}, &StoreUnavailableError{Op: "append row", Err: err}
	}

	confirmed, err := l.store.Balance(ctx, handle)
	if err != nil {
		return decimal.Decimal{}, &StoreUnavailableError{Op: "confirm balance", Err: err}
	}

	l.publish(events.RowAppended{
		RowID:      row.ID.String(),
		Kind:       string(kind),
		Amount:     amount,
		Balance:    confirmed,
		OccurredAt: row.Timestamp,
	})
	return confirmed, nil
}

func (l *Ledger) publish(event events.RowAppended) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(events.TopicRowAppended, event); err != nil {
		log.Printf("publish %s event: %v", event.Kind, err)
	}
}
