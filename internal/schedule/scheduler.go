// Package schedule drives the periodic interest accrual. The engine knows
// nothing about timing; it is only called.
package schedule

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Accruer is the single operation the scheduler invokes.
type Accruer interface {
	AccrueInterest(ctx context.Context) error
}

// Scheduler fires the accrual once a week at a fixed day and hour.
type Scheduler struct {
	cron *cron.Cron
	spec string
}

// New builds a scheduler firing every week on the given cron weekday
// (SUN, MON, ...) at the given hour. Calling it twice in the same window
// appends two compounding interest rows; that is the accrual contract, not
// a bug to guard against here.
func New(day string, hour int, accruer Accruer) (*Scheduler, error) {
	spec := fmt.Sprintf("0 %d * * %s", hour, day)

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := accruer.AccrueInterest(context.Background()); err != nil {
			log.Printf("interest accrual failed: %v", err)
			return
		}
		log.Println("interest accrual row appended")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid interest schedule %q: %w", spec, err)
	}

	return &Scheduler{cron: c, spec: spec}, nil
}

// Spec returns the cron expression the scheduler runs on.
func (s *Scheduler) Spec() string { return s.spec }

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	log.Printf("interest accrual scheduled at %q", s.spec)
	s.cron.Start()
}

// Stop halts the cron loop and returns a context that is done once any
// in-flight accrual has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
