// internal/repository/postgres/position_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"yieldwallet/internal/domain"
	"yieldwallet/internal/repository"
	"yieldwallet/internal/util"

	"github.com/jmoiron/sqlx"
)

const positionColumns = `id, user_id, plan_id, purchase_price, daily_profit_amount, start_date, end_date,
	days_remaining, total_profit_earned, status, last_accrual_date, created_at, updated_at`

// duePredicate selects positions that still owe a payout for run date $1.
const duePredicate = `status = 'active' AND days_remaining > 0
	AND (last_accrual_date IS NULL OR last_accrual_date < $1)`

// PositionRepository implements repository.PositionRepository for PostgreSQL.
type PositionRepository struct{}

// NewPositionRepository creates a new PositionRepository.
func NewPositionRepository(db *sqlx.DB) repository.PositionRepository {
	return &PositionRepository{}
}

// CreatePosition inserts a new position using the provided DBExecutor.
func (r *PositionRepository) CreatePosition(ctx context.Context, q repository.DBExecutor, p *domain.Position) error {
	query := `INSERT INTO investment_positions (user_id, plan_id, purchase_price, daily_profit_amount, start_date, end_date,
                  days_remaining, total_profit_earned, status, last_accrual_date, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		p.UserID, p.PlanID, p.PurchasePrice, p.DailyProfitAmount, p.StartDate, p.EndDate,
		p.DaysRemaining, p.TotalProfitEarned, p.Status, p.LastAccrualDate, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return mapError(err, "failed to create position for user %d, plan %d", p.UserID, p.PlanID)
	}
	return nil
}

// ListDueIDs returns the IDs of every position due on runDate.
func (r *PositionRepository) ListDueIDs(ctx context.Context, q repository.DBExecutor, runDate time.Time) ([]int64, error) {
	ids := []int64{}
	query := `SELECT id FROM investment_positions WHERE ` + duePredicate + ` ORDER BY id`
	if err := q.SelectContext(ctx, &ids, query, domain.DateOf(runDate)); err != nil {
		return nil, mapError(err, "failed to list positions due on %s", runDate.Format(domain.DateLayout))
	}
	return ids, nil
}

// GetDueForUpdate locks the position row and re-checks the due predicate under the lock.
// A position advanced by a concurrent run no longer matches and yields util.ErrNotFound.
func (r *PositionRepository) GetDueForUpdate(ctx context.Context, q repository.DBExecutor, id int64, runDate time.Time) (*domain.Position, error) {
	var position domain.Position
	query := `SELECT ` + positionColumns + ` FROM investment_positions WHERE id = $2 AND ` + duePredicate + ` FOR UPDATE`
	if err := q.GetContext(ctx, &position, query, domain.DateOf(runDate), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, mapError(err, "failed to lock position %d", id)
	}
	return &position, nil
}

// SaveAccrual persists the fields changed by one accrual step.
func (r *PositionRepository) SaveAccrual(ctx context.Context, q repository.DBExecutor, p *domain.Position) error {
	query := `UPDATE investment_positions
              SET days_remaining = $1, total_profit_earned = $2, status = $3, last_accrual_date = $4, updated_at = $5
              WHERE id = $6`
	result, err := q.ExecContext(ctx, query, p.DaysRemaining, p.TotalProfitEarned, p.Status, p.LastAccrualDate, p.UpdatedAt, p.ID)
	if err != nil {
		return mapError(err, "failed to save accrual for position %d", p.ID)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapError(err, "failed to get rows affected after saving position %d", p.ID)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
