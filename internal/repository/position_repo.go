// internal/repository/position_repo.go
package repository

import (
	"context"
	"time"

	"yieldwallet/internal/domain"
)

// PositionRepository defines the interface for investment position operations.
type PositionRepository interface {
	// CreatePosition inserts a new position and sets its ID.
	CreatePosition(ctx context.Context, q DBExecutor, position *domain.Position) error
	// ListDueIDs returns the IDs of positions due for accrual on runDate, oldest first.
	ListDueIDs(ctx context.Context, q DBExecutor, runDate time.Time) ([]int64, error)
	// GetDueForUpdate locks a position and returns it only if it is still due on runDate;
	// otherwise it returns util.ErrNotFound.
	GetDueForUpdate(ctx context.Context, q DBExecutor, id int64, runDate time.Time) (*domain.Position, error)
	// SaveAccrual persists the countdown, profit, status and accrual date of a position.
	SaveAccrual(ctx context.Context, q DBExecutor, position *domain.Position) error
}
