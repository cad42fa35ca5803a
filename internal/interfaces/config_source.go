package interfaces

import "github.com/shopspring/decimal"

// ConfigSource exposes the read-only settings the engine consults at the
// start of every operation. Implementations must not cache values between
// calls; the engine re-reads them on each invocation.
type ConfigSource interface {
	// InterestRatePerPeriod is the rate applied by one accrual run.
	InterestRatePerPeriod() (decimal.Decimal, error)

	// MaxBalance is the ceiling a deposit must not push the balance past.
	MaxBalance() (decimal.Decimal, error)

	// Title is the display name shown on the balance page.
	Title() string
}
