// internal/repository/postgres/withdrawal_pg.go
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

// WithdrawalRepository implements repository.WithdrawalRepository for PostgreSQL.
type WithdrawalRepository struct{}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(db *sqlx.DB) repository.WithdrawalRepository {
	return &WithdrawalRepository{}
}

// CreateRequest inserts a new withdrawal request using the provided DBExecutor.
func (r *WithdrawalRepository) CreateRequest(ctx context.Context, q repository.DBExecutor, req *domain.WithdrawalRequest) error {
	query := `INSERT INTO withdrawal_requests (user_id, amount, bank_name, account_number, account_name, status, transaction_id, request_date)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		req.UserID, req.Amount, req.BankName, req.AccountNumber, req.AccountName, req.Status, req.TransactionID, req.RequestDate,
	).Scan(&req.ID)
	if err != nil {
		return mapError(err, "failed to create withdrawal request for user %d", req.UserID)
	}
	return nil
}

// GetForUpdate retrieves a withdrawal request and locks its row.
func (r *WithdrawalRepository) GetForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.WithdrawalRequest, error) {
	var req domain.WithdrawalRequest
	query := `SELECT id, user_id, amount, bank_name, account_number, account_name, status, admin_notes,
                     transaction_id, request_date, processed_date
              FROM withdrawal_requests WHERE id = $1 FOR UPDATE`
	if err := q.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrRequestNotFound
		}
		return nil, mapError(err, "failed to get withdrawal request %d", id)
	}
	return &req, nil
}

// SaveProcessed stores the terminal state of a request that was pending.
func (r *WithdrawalRepository) SaveProcessed(ctx context.Context, q repository.DBExecutor, req *domain.WithdrawalRequest) error {
	query := `UPDATE withdrawal_requests SET status = $1, admin_notes = $2, processed_date = $3
              WHERE id = $4 AND status = 'pending'`
	result, err := q.ExecContext(ctx, query, req.Status, req.AdminNotes, req.ProcessedDate, req.ID)
	if err != nil {
		return mapError(err, "failed to update withdrawal request %d", req.ID)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapError(err, "failed to get rows affected after updating withdrawal request %d", req.ID)
	}
	if rowsAffected == 0 {
		return util.ErrConflict
	}
	return nil
}
