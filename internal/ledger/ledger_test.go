package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/piggy-bank-ledger/internal/models"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/models/events"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/storage/memory"
)

// staticConfig is a fixed ConfigSource for tests.
type staticConfig struct {
	rate    decimal.Decimal
	max     decimal.Decimal
	rateErr error
	maxErr  error
}

func (c staticConfig) InterestRatePerPeriod() (decimal.Decimal, error) { return c.rate, c.rateErr }
func (c staticConfig) MaxBalance() (decimal.Decimal, error)           { return c.max, c.maxErr }
func (c staticConfig) Title() string                                  { return "Test Bank" }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestLedger creates an engine over a fresh in-memory store with a fixed
// clock.
func newTestLedger(t *testing.T, cfg staticConfig, opts ...Option) (*Ledger, *memory.MemoryLedgerStore) {
	t.Helper()
	store := memory.NewMemoryLedgerStore()
	opts = append(opts, WithClock(func() time.Time {
		return time.Date(2026, time.January, 4, 3, 0, 0, 0, time.UTC)
	}))
	return New(store, cfg, opts...), store
}

func rowCount(t *testing.T, store *memory.MemoryLedgerStore) int {
	t.Helper()
	rows, err := store.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows() failed: %v", err)
	}
	return len(rows)
}

func lastRow(t *testing.T, store *memory.MemoryLedgerStore) models.LedgerRow {
	t.Helper()
	row, _, err := store.LastRow(context.Background())
	if err != nil {
		t.Fatalf("LastRow() failed: %v", err)
	}
	return row
}

func TestDeposit(t *testing.T) {
	testCases := []struct {
		name        string
		deposits    []string
		wantBalance string
	}{
		{"single deposit", []string{"50.00"}, "50.00"},
		{"two deposits accumulate", []string{"50.00", "20.00"}, "70.00"},
		{"sub-cent amount rounds half away from zero", []string{"0.005"}, "0.01"},
		{"repeat deposits are never coalesced", []string{"10", "10"}, "20.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, store := newTestLedger(t, staticConfig{max: d("1000")})

			var balance decimal.Decimal
			var err error
			for _, amount := range tc.deposits {
				balance, err = l.Deposit(context.Background(), d(amount))
				if err != nil {
					t.Fatalf("Deposit(%s) failed: %v", amount, err)
				}
			}

			if got := balance.StringFixed(2); got != tc.wantBalance {
				t.Errorf("balance = %s, want %s", got, tc.wantBalance)
			}
			if got := rowCount(t, store); got != len(tc.deposits) {
				t.Errorf("row count = %d, want %d", got, len(tc.deposits))
			}
			row := lastRow(t, store)
			if row.Kind != models.RowKindDeposit {
				t.Errorf("last row kind = %s, want %s", row.Kind, models.RowKindDeposit)
			}
		})
	}
}

func TestDepositLimitExceeded(t *testing.T) {
	l, store := newTestLedger(t, staticConfig{max: d("100")})

	if _, err := l.Deposit(context.Background(), d("60")); err != nil {
		t.Fatalf("Deposit(60) failed: %v", err)
	}

	_, err := l.Deposit(context.Background(), d("40.01"))
	var limitErr *LimitExceededError
	if !errors.As(err, &limitErr) {
		t.Fatalf("Deposit(40.01) error = %v, want LimitExceededError", err)
	}
	if got := limitErr.Max.StringFixed(2); got != "100.00" {
		t.Errorf("LimitExceededError.Max = %s, want 100.00", got)
	}
	if got := rowCount(t, store); got != 1 {
		t.Errorf("row count after rejected deposit = %d, want 1", got)
	}

	// A deposit landing exactly on the cap is still allowed.
	if _, err := l.Deposit(context.Background(), d("40")); err != nil {
		t.Errorf("Deposit(40) up to the cap failed: %v", err)
	}
}

func TestInvalidAmounts(t *testing.T) {
	testCases := []struct {
		name   string
		amount string
	}{
		{"zero", "0"},
		{"negative", "-5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, store := newTestLedger(t, staticConfig{max: d("1000")})

			var amountErr *InvalidAmountError
			if _, err := l.Deposit(context.Background(), d(tc.amount)); !errors.As(err, &amountErr) {
				t.Errorf("Deposit(%s) error = %v, want InvalidAmountError", tc.amount, err)
			}
			if _, err := l.Withdraw(context.Background(), d(tc.amount)); !errors.As(err, &amountErr) {
				t.Errorf("Withdraw(%s) error = %v, want InvalidAmountError", tc.amount, err)
			}
			if got := rowCount(t, store); got != 0 {
				t.Errorf("row count = %d, want 0 (store must stay untouched)", got)
			}
		})
	}
}

func TestDepositMissingMaxBalance(t *testing.T) {
	l, store := newTestLedger(t, staticConfig{maxErr: errors.New("MAX_BALANCE is not set")})

	_, err := l.Deposit(context.Background(), d("10"))
	var cfgErr *InvalidConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Deposit error = %v, want InvalidConfigurationError", err)
	}
	if got := rowCount(t, store); got != 0 {
		t.Errorf("row count = %d, want 0", got)
	}
}

func TestWithdraw(t *testing.T) {
	l, store := newTestLedger(t, staticConfig{max: d("1000")})

	if _, err := l.Deposit(context.Background(), d("100")); err != nil {
		t.Fatalf("Deposit(100) failed: %v", err)
	}

	balance, err := l.Withdraw(context.Background(), d("30.50"))
	if err != nil {
		t.Fatalf("Withdraw(30.50) failed: %v", err)
	}
	if got := balance.StringFixed(2); got != "69.50" {
		t.Errorf("balance = %s, want 69.50", got)
	}

	row := lastRow(t, store)
	if row.Kind != models.RowKindWithdrawal {
		t.Errorf("last row kind = %s, want %s", row.Kind, models.RowKindWithdrawal)
	}
	if got := row.Amount.StringFixed(2); got != "30.50" {
		t.Errorf("last row amount = %s, want 30.50 (positive magnitude)", got)
	}
	if got := row.Signed().StringFixed(2); got != "-30.50" {
		t.Errorf("signed amount = %s, want -30.50", got)
	}
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	l, store := newTestLedger(t, staticConfig{max: d("1000")})

	if _, err := l.Deposit(context.Background(), d("70")); err != nil {
		t.Fatalf("Deposit(70) failed: %v", err)
	}

	_, err := l.Withdraw(context.Background(), d("70.01"))
	var fundsErr *InsufficientFundsError
	if !errors.As(err, &fundsErr) {
		t.Fatalf("Withdraw(70.01) error = %v, want InsufficientFundsError", err)
	}
	if got := fundsErr.Requested.StringFixed(2); got != "70.01" {
		t.Errorf("InsufficientFundsError.Requested = %s, want 70.01", got)
	}
	if got := fundsErr.Available.StringFixed(2); got != "70.00" {
		t.Errorf("InsufficientFundsError.Available = %s, want 70.00", got)
	}
	if got := rowCount(t, store); got != 1 {
		t.Errorf("row count after rejected withdrawal = %d, want 1", got)
	}

	// Withdrawing the whole balance is allowed.
	balance, err := l.Withdraw(context.Background(), d("70"))
	if err != nil {
		t.Fatalf("Withdraw(70) failed: %v", err)
	}
	if got := balance.StringFixed(2); got != "0.00" {
		t.Errorf("balance after full withdrawal = %s, want 0.00", got)
	}
}

func TestAccrueInterest(t *testing.T) {
	l, store := newTestLedger(t, staticConfig{max: d("1000"), rate: d("0.01246575342")})

	if _, err := l.Deposit(context.Background(), d("100.00")); err != nil {
		t.Fatalf("Deposit(100.00) failed: %v", err)
	}
	if err := l.AccrueInterest(context.Background()); err != nil {
		t.Fatalf("AccrueInterest() failed: %v", err)
	}

	row := lastRow(t, store)
	if row.Kind != models.RowKindInterest {
		t.Errorf("last row kind = %s, want %s", row.Kind, models.RowKindInterest)
	}
	if got := row.Amount.StringFixed(2); got != "1.25" {
		t.Errorf("interest amount = %s, want 1.25", got)
	}
	if got := row.Balance.StringFixed(2); got != "101.25" {
		t.Errorf("balance = %s, want 101.25", got)
	}
}

func TestAccrueInterestMayExceedMaxBalance(t *testing.T) {
	// The cap applies to deposits only; accrual is allowed to breach it.
	l, store := newTestLedger(t, staticConfig{max: d("100"), rate: d("0.01246575342")})

	if _, err := l.Deposit(context.Background(), d("100")); err != nil {
		t.Fatalf("Deposit(100) failed: %v", err)
	}
	if err := l.AccrueInterest(context.Background()); err != nil {
		t.Fatalf("AccrueInterest() above the cap failed: %v", err)
	}
	if got := lastRow(t, store).Balance.StringFixed(2); got != "101.25" {
		t.Errorf("balance = %s, want 101.25", got)
	}
}

func TestAccrueInterestCompounds(t *testing.T) {
	l, store := newTestLedger(t, staticConfig{max: d("1000"), rate: d("0.01246575342")})

	if _, err := l.Deposit(context.Background(), d("100.00")); err != nil {
		t.Fatalf("Deposit(100.00) failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := l.AccrueInterest(context.Background()); err != nil {
			t.Fatalf("AccrueInterest() run %d failed: %v", i+1, err)
		}
	}

	// Second run compounds on 101.25: round2(101.25 * rate) = 1.26.
	row := lastRow(t, store)
	if got := row.Amount.StringFixed(2); got != "1.26" {
		t.Errorf("second interest amount = %s, want 1.26", got)
	}
	if got := row.Balance.StringFixed(2); got != "102.51" {
		t.Errorf("balance = %s, want 102.51", got)
	}
	if got := rowCount(t, store); got != 3 {
		t.Errorf("row count = %d, want 3", got)
	}
}

func TestAccrueInterestEmptyLedger(t *testing.T) {
	l, _ := newTestLedger(t, staticConfig{rate: d("0.01")})

	if err := l.AccrueInterest(context.Background()); !errors.Is(err, ErrMissingLedger) {
		t.Errorf("AccrueInterest() on empty ledger = %v, want ErrMissingLedger", err)
	}
}

func TestAccrueInterestInvalidRate(t *testing.T) {
	testCases := []struct {
		name string
		cfg  staticConfig
	}{
		{"zero rate", staticConfig{rate: d("0")}},
		{"negative rate", staticConfig{rate: d("-0.01")}},
		{"missing rate", staticConfig{rateErr: errors.New("INTEREST_RATE_PER_PERIOD is not set")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, store := newTestLedger(t, tc.cfg)

			err := l.AccrueInterest(context.Background())
			var cfgErr *InvalidConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("AccrueInterest() error = %v, want InvalidConfigurationError", err)
			}
			if got := rowCount(t, store); got != 0 {
				t.Errorf("row count = %d, want 0", got)
			}
		})
	}
}

func TestConfirmedBalanceMatchesStored(t *testing.T) {
	l, store := newTestLedger(t, staticConfig{max: d("1000")})

	returned, err := l.Deposit(context.Background(), d("12.34"))
	if err != nil {
		t.Fatalf("Deposit(12.34) failed: %v", err)
	}

	row, handle, err := store.LastRow(context.Background())
	if err != nil {
		t.Fatalf("LastRow() failed: %v", err)
	}
	stored, err := store.Balance(context.Background(), handle)
	if err != nil {
		t.Fatalf("Balance(%d) failed: %v", handle, err)
	}

	if !returned.Equal(stored) {
		t.Errorf("returned balance %s != stored balance %s", returned, stored)
	}
	if !returned.Equal(row.Balance) {
		t.Errorf("returned balance %s != last row balance %s", returned, row.Balance)
	}
}

func TestScenario(t *testing.T) {
	// 0.00 → +50.00 → +20.00 → −70.01 (fails) → −30.00 → 40.00.
	l, store := newTestLedger(t, staticConfig{max: d("1000")})
	ctx := context.Background()

	if b, err := l.Deposit(ctx, d("50.00")); err != nil || b.StringFixed(2) != "50.00" {
		t.Fatalf("Deposit(50.00) = %v, %v; want 50.00", b, err)
	}
	if b, err := l.Deposit(ctx, d("20.00")); err != nil || b.StringFixed(2) != "70.00" {
		t.Fatalf("Deposit(20.00) = %v, %v; want 70.00", b, err)
	}

	_, err := l.Withdraw(ctx, d("70.01"))
	var fundsErr *InsufficientFundsError
	if !errors.As(err, &fundsErr) {
		t.Fatalf("Withdraw(70.01) error = %v, want InsufficientFundsError", err)
	}
	if got := fundsErr.Available.StringFixed(2); got != "70.00" {
		t.Errorf("available = %s, want 70.00", got)
	}

	if b, err := l.Withdraw(ctx, d("30.00")); err != nil || b.StringFixed(2) != "40.00" {
		t.Fatalf("Withdraw(30.00) = %v, %v; want 40.00", b, err)
	}
	if got := rowCount(t, store); got != 3 {
		t.Errorf("row count = %d, want 3", got)
	}
}

func TestCurrentBalanceDisplay(t *testing.T) {
	l, _ := newTestLedger(t, staticConfig{max: d("1000")})
	ctx := context.Background()

	if got, err := l.CurrentBalanceDisplay(ctx); err != nil || got != "0.00" {
		t.Errorf("CurrentBalanceDisplay() on empty ledger = %q, %v; want 0.00", got, err)
	}

	if _, err := l.Deposit(ctx, d("50")); err != nil {
		t.Fatalf("Deposit(50) failed: %v", err)
	}
	if got, err := l.CurrentBalanceDisplay(ctx); err != nil || got != "50.00" {
		t.Errorf("CurrentBalanceDisplay() = %q, %v; want 50.00", got, err)
	}
}

// recordingPublisher captures published events and optionally fails.
type recordingPublisher struct {
	events []events.RowAppended
	err    error
}

func (p *recordingPublisher) Publish(topic string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event.(events.RowAppended))
	return nil
}

func TestPublisherReceivesEvents(t *testing.T) {
	publisher := &recordingPublisher{}
	l, _ := newTestLedger(t, staticConfig{max: d("1000")}, WithPublisher(publisher))

	balance, err := l.Deposit(context.Background(), d("25"))
	if err != nil {
		t.Fatalf("Deposit(25) failed: %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Kind != string(models.RowKindDeposit) {
		t.Errorf("event kind = %s, want %s", event.Kind, models.RowKindDeposit)
	}
	if !event.Balance.Equal(balance) {
		t.Errorf("event balance = %s, want the confirmed %s", event.Balance, balance)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker unreachable")}
	l, store := newTestLedger(t, staticConfig{max: d("1000")}, WithPublisher(publisher))

	if _, err := l.Deposit(context.Background(), d("25")); err != nil {
		t.Fatalf("Deposit(25) failed on publish error: %v", err)
	}
	if got := rowCount(t, store); got != 1 {
		t.Errorf("row count = %d, want 1", got)
	}
}

// failingStore simulates an unreachable store.
type failingStore struct {
	err error
}

func (s failingStore) LastRow(ctx context.Context) (models.LedgerRow, models.RowHandle, error) {
	return models.LedgerRow{}, 0, s.err
}

func (s failingStore) Append(ctx context.Context, tail models.RowHandle, row models.LedgerRow) (models.RowHandle, error) {
	return 0, s.err
}

func (s failingStore) Balance(ctx context.Context, handle models.RowHandle) (decimal.Decimal, error) {
	return decimal.Decimal{}, s.err
}

func (s failingStore) Rows(ctx context.Context) ([]models.LedgerRow, error) {
	return nil, s.err
}

func TestStoreUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	l := New(failingStore{err: cause}, staticConfig{max: d("1000"), rate: d("0.01")})
	ctx := context.Background()

	var storeErr *StoreUnavailableError
	if _, err := l.Deposit(ctx, d("10")); !errors.As(err, &storeErr) {
		t.Errorf("Deposit error = %v, want StoreUnavailableError", err)
	}
	if _, err := l.Withdraw(ctx, d("10")); !errors.As(err, &storeErr) {
		t.Errorf("Withdraw error = %v, want StoreUnavailableError", err)
	}
	if err := l.AccrueInterest(ctx); !errors.As(err, &storeErr) {
		t.Errorf("AccrueInterest error = %v, want StoreUnavailableError", err)
	}

	_, err := l.Deposit(ctx, d("10"))
	if !errors.Is(err, cause) {
		t.Errorf("error %v should wrap the underlying cause %v", err, cause)
	}
}
