// Package config reads all settings from the process environment, the same
// surface a .env file loaded at startup populates.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/piggy-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/piggy-bank-ledger/internal/models/events"
)

// Environment variable names.
const (
	EnvAddr         = "LEDGER_ADDR"
	EnvTitle        = "LEDGER_TITLE"
	EnvInterestRate = "INTEREST_RATE_PER_PERIOD"
	EnvMaxBalance   = "MAX_BALANCE"
	EnvInterestDay  = "INTEREST_DAY"
	EnvInterestHour = "INTEREST_HOUR"
	EnvDatabaseURL  = "DATABASE_URL"
	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvKafkaTopic   = "KAFKA_TOPIC"
)

// EnvSource implements interfaces.ConfigSource by re-reading the
// environment on every call. Nothing is cached, so the engine always sees
// the current settings.
type EnvSource struct{}

// FromEnv returns the environment-backed configuration source.
func FromEnv() EnvSource { return EnvSource{} }

func (EnvSource) InterestRatePerPeriod() (decimal.Decimal, error) {
	return parseDecimal(EnvInterestRate)
}

func (EnvSource) MaxBalance() (decimal.Decimal, error) {
	return parseDecimal(EnvMaxBalance)
}

func (EnvSource) Title() string {
	if v := os.Getenv(EnvTitle); v != "" {
		return v
	}
	return "Piggy Bank"
}

var _ interfaces.ConfigSource = EnvSource{}

func parseDecimal(key string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return decimal.Decimal{}, fmt.Errorf("%s is not set", key)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Addr is the listen address for the HTTP server.
func Addr() string {
	if v := os.Getenv(EnvAddr); v != "" {
		return v
	}
	return ":8080"
}

// DatabaseURL is the postgres connection string; empty selects the
// in-memory store.
func DatabaseURL() string {
	return os.Getenv(EnvDatabaseURL)
}

// KafkaBrokers is the comma-separated broker list; empty disables event
// publishing.
func KafkaBrokers() []string {
	v := os.Getenv(EnvKafkaBrokers)
	if v == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(v, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// KafkaTopic is the topic row events are published to.
func KafkaTopic() string {
	if v := os.Getenv(EnvKafkaTopic); v != "" {
		return v
	}
	return events.TopicRowAppended
}

// InterestDay is the weekday the accrual trigger fires on, in cron form
// (SUN, MON, ...).
func InterestDay() string {
	if v := os.Getenv(EnvInterestDay); v != "" {
		return strings.ToUpper(v)
	}
	return "SUN"
}

// InterestHour is the hour of day (0-23) the accrual trigger fires at.
func InterestHour() (int, error) {
	v := os.Getenv(EnvInterestHour)
	if v == "" {
		return 3, nil
	}
	hour, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", EnvInterestHour, err)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%s: %d is not an hour of day", EnvInterestHour, hour)
	}
	return hour, nil
}
