// internal/repository/plan_catalog.go
package repository

import (
	"context"

	"yieldwallet/internal/domain"
)

// PlanCatalog is the read-only view of the investment plan catalog.
type PlanCatalog interface {
	// GetActivePlan returns the plan, or util.ErrPlanNotFound / util.ErrPlanInactive.
	GetActivePlan(ctx context.Context, q DBExecutor, planID int64) (*domain.Plan, error)
}
