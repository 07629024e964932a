// internal/repository/postgres/transaction_pg.go
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
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, user_id, type, amount, description, status, created_at, updated_at`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct {
	// Methods receive a DBExecutor so they can join the caller's transaction.
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &TransactionRepository{}
}

// Append inserts a new ledger entry using the provided DBExecutor.
func (r *TransactionRepository) Append(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (user_id, type, amount, description, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := q.QueryRowContext(ctx, query,
		transaction.UserID,
		transaction.Type,
		transaction.Amount,
		transaction.Description,
		transaction.Status,
		transaction.CreatedAt,
		transaction.UpdatedAt,
	).Scan(&transaction.ID)

	if err != nil {
		return mapError(err, "failed to append %s transaction for user %d", transaction.Type, transaction.UserID)
	}
	return nil
}

// GetForUpdate retrieves a ledger entry by ID and locks its row.
func (r *TransactionRepository) GetForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	if err := q.GetContext(ctx, &transaction, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrTransactionNotFound
		}
		return nil, mapError(err, "failed to get transaction %d", id)
	}
	return &transaction, nil
}

// FindLatestPending returns the newest pending entry for user, amount and type.
// Ties on created_at are broken by the higher ID.
func (r *TransactionRepository) FindLatestPending(ctx context.Context, q repository.DBExecutor, userID int64, amount decimal.Decimal, txType domain.TransactionType) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND amount = $2 AND type = $3 AND status = 'pending'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE`
	if err := q.GetContext(ctx, &transaction, query, userID, amount, txType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrTransactionNotFound
		}
		return nil, mapError(err, "failed to find pending %s transaction for user %d", txType, userID)
	}
	return &transaction, nil
}

// Finalize moves a pending entry to its terminal status.
func (r *TransactionRepository) Finalize(ctx context.Context, q repository.DBExecutor, id int64, status domain.TransactionStatus, descriptionSuffix string) error {
	query := `UPDATE transactions SET status = $1, description = description || $2, updated_at = $3
              WHERE id = $4 AND status = 'pending'`
	result, err := q.ExecContext(ctx, query, status, descriptionSuffix, time.Now().UTC(), id)
	if err != nil {
		return mapError(err, "failed to finalize transaction %d", id)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapError(err, "failed to get rows affected after finalizing transaction %d", id)
	}
	if rowsAffected == 0 {
		return util.ErrInvalidState
	}
	return nil
}

// LedgerBalance computes the balance implied by the ledger; see domain.Transaction.SignedEffect.
func (r *TransactionRepository) LedgerBalance(ctx context.Context, q repository.DBExecutor, userID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE
				WHEN status = 'completed' AND type IN ('admin_credit', 'recharge', 'profit', 'checkin_bonus') THEN amount
				WHEN status = 'completed' AND type IN ('plan_purchase', 'withdrawal') THEN -amount
				WHEN status = 'pending' AND type = 'withdrawal' THEN -amount
				ELSE 0
			END), 0)
		FROM transactions
		WHERE user_id = $1`
	var total decimal.Decimal
	if err := q.GetContext(ctx, &total, query, userID); err != nil {
		return decimal.Zero, mapError(err, "failed to sum ledger for user %d", userID)
	}
	return total, nil
}
