// internal/domain/plan.go
package domain

import "github.com/shopspring/decimal"

// Plan is an entry of the investment plan catalog. The catalog is administered elsewhere;
// the ledger only reads it and snapshots the terms into a Position at purchase time.
type Plan struct {
	ID           int64           `db:"id" json:"id"`
	Name         string          `db:"plan_name" json:"plan_name"`
	Price        decimal.Decimal `db:"price" json:"price"`
	DurationDays int             `db:"duration_days" json:"duration_days"`
	DailyProfit  decimal.Decimal `db:"daily_profit" json:"daily_profit"`
	// TotalROI is carried as published by the catalog. Accrual never checks it.
	TotalROI decimal.Decimal `db:"total_roi" json:"total_roi"`
	IsActive bool            `db:"is_active" json:"is_active"`
}
