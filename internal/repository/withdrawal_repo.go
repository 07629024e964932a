// internal/repository/withdrawal_repo.go
package repository

import (
	"context"

	"yieldwallet/internal/domain"
)

// WithdrawalRepository defines the interface for withdrawal request operations.
type WithdrawalRepository interface {
	// CreateRequest inserts a new request and sets its ID.
	CreateRequest(ctx context.Context, q DBExecutor, request *domain.WithdrawalRequest) error
	// GetForUpdate retrieves a request and locks it for the rest of the transaction.
	GetForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.WithdrawalRequest, error)
	// SaveProcessed persists the terminal status, notes and processed date of a request.
	// It fails with util.ErrConflict if the stored request is no longer pending.
	SaveProcessed(ctx context.Context, q DBExecutor, request *domain.WithdrawalRequest) error
}
