// internal/domain/accrual.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccrualFailure records one position that could not be advanced in a run.
type AccrualFailure struct {
	PositionID int64  `json:"position_id"`
	Error      string `json:"error"`
}

// AccrualReport summarises one run of the accrual engine.
type AccrualReport struct {
	RunID       string           `json:"run_id"`
	RunDate     time.Time        `json:"run_date"`
	Selected    int              `json:"selected"`    // Positions returned by the due query
	Processed   int              `json:"processed"`   // Positions advanced and paid
	Completed   int              `json:"completed"`   // Positions that reached maturity in this run
	Skipped     int              `json:"skipped"`     // Positions already advanced by a concurrent run
	TotalPaid   decimal.Decimal  `json:"total_paid"`  // Sum of profit credited
	Interrupted bool             `json:"interrupted"` // Context was cancelled before every position was attempted
	Failures    []AccrualFailure `json:"failures"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
}
