// internal/domain/position.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus defines the lifecycle state of an investment position.
type PositionStatus string

const (
	PositionStatusActive    PositionStatus = "active"
	PositionStatusCompleted PositionStatus = "completed"
)

// Position is one purchased instance of an investment plan.
type Position struct {
	ID                int64           `db:"id" json:"id"`
	UserID            int64           `db:"user_id" json:"user_id"`
	PlanID            int64           `db:"plan_id" json:"plan_id"`
	PurchasePrice     decimal.Decimal `db:"purchase_price" json:"purchase_price"`
	DailyProfitAmount decimal.Decimal `db:"daily_profit_amount" json:"daily_profit_amount"`
	StartDate         time.Time       `db:"start_date" json:"start_date"`
	EndDate           time.Time       `db:"end_date" json:"end_date"`
	DaysRemaining     int             `db:"days_remaining" json:"days_remaining"`
	TotalProfitEarned decimal.Decimal `db:"total_profit_earned" json:"total_profit_earned"`
	Status            PositionStatus  `db:"status" json:"status"`
	LastAccrualDate   *time.Time      `db:"last_accrual_date" json:"last_accrual_date"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// NewPosition snapshots the plan terms into a fresh active position starting on startDate.
func NewPosition(userID int64, plan *Plan, startDate time.Time) *Position {
	now := time.Now().UTC()
	start := DateOf(startDate)
	return &Position{
		UserID:            userID,
		PlanID:            plan.ID,
		PurchasePrice:     plan.Price,
		DailyProfitAmount: plan.DailyProfit,
		StartDate:         start,
		EndDate:           start.AddDate(0, 0, plan.DurationDays),
		DaysRemaining:     plan.DurationDays,
		TotalProfitEarned: decimal.Zero,
		Status:            PositionStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// IsDue reports whether the position should accrue on runDate.
func (p *Position) IsDue(runDate time.Time) bool {
	if p.Status != PositionStatusActive || p.DaysRemaining <= 0 {
		return false
	}
	return p.LastAccrualDate == nil || p.LastAccrualDate.Before(DateOf(runDate))
}

// Accrue advances the position by one day. It returns false, leaving the position
// untouched, when the position is not due on runDate.
func (p *Position) Accrue(runDate time.Time) bool {
	if !p.IsDue(runDate) {
		return false
	}
	day := DateOf(runDate)
	p.DaysRemaining--
	p.TotalProfitEarned = p.TotalProfitEarned.Add(p.DailyProfitAmount)
	p.LastAccrualDate = &day
	if p.DaysRemaining == 0 {
		p.Status = PositionStatusCompleted
	}
	p.UpdatedAt = time.Now().UTC()
	return true
}
