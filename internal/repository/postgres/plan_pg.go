// internal/repository/postgres/plan_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"yieldwallet/internal/domain"
	"yieldwallet/internal/repository"
	"yieldwallet/internal/util"

	"github.com/jmoiron/sqlx"
)

// PlanCatalog implements repository.PlanCatalog over the investment_plans table.
type PlanCatalog struct{}

// NewPlanCatalog creates a new PlanCatalog.
func NewPlanCatalog(db *sqlx.DB) repository.PlanCatalog {
	return &PlanCatalog{}
}

// GetActivePlan looks a plan up by ID and refuses inactive ones.
func (c *PlanCatalog) GetActivePlan(ctx context.Context, q repository.DBExecutor, planID int64) (*domain.Plan, error) {
	var plan domain.Plan
	query := `SELECT id, plan_name, price, duration_days, daily_profit, total_roi, is_active
              FROM investment_plans WHERE id = $1`
	if err := q.GetContext(ctx, &plan, query, planID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrPlanNotFound
		}
		return nil, mapError(err, "failed to get investment plan %d", planID)
	}
	if !plan.IsActive {
		return nil, util.ErrPlanInactive
	}
	return &plan, nil
}
