// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"yieldwallet/internal/domain"
	"yieldwallet/internal/repository"
	"yieldwallet/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct {
	// Methods receive a DBExecutor so they can join the caller's transaction.
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *sqlx.DB) repository.WalletRepository {
	return &WalletRepository{}
}

// CreateWallet inserts a new wallet into the database using the provided DBExecutor.
// An existing wallet for the same user is left untouched.
func (r *WalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (user_id, balance, last_checkin_date, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5)
              ON CONFLICT (user_id) DO NOTHING`
	_, err := q.ExecContext(ctx, query, wallet.UserID, wallet.Balance, wallet.LastCheckinDate, wallet.CreatedAt, wallet.UpdatedAt)
	if err != nil {
		return mapError(err, "failed to create wallet for user %d", wallet.UserID)
	}
	return nil
}

// GetWallet retrieves a wallet by its owner's user ID using the provided DBExecutor.
func (r *WalletRepository) GetWallet(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT user_id, balance, last_checkin_date, created_at, updated_at FROM wallets WHERE user_id = $1`
	err := q.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrUserNotFound
		}
		return nil, mapError(err, "failed to get wallet for user %d", userID)
	}
	return &wallet, nil
}

// Adjust applies delta in one conditional statement, so the sufficiency check and the
// debit can never be separated by a concurrent writer.
func (r *WalletRepository) Adjust(ctx context.Context, q repository.DBExecutor, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = $2
              WHERE user_id = $3 AND balance + $1 >= 0
              RETURNING balance`
	var balance decimal.Decimal
	err := q.QueryRowContext(ctx, query, delta, time.Now().UTC(), userID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, mapError(err, "failed to adjust wallet balance for user %d", userID)
	}

	if err := r.ensureExists(ctx, q, userID); err != nil {
		return decimal.Zero, err
	}
	return decimal.Zero, util.ErrInsufficientBalance
}

// CreditCheckinBonus credits the bonus only if day differs from the stored last check-in date.
func (r *WalletRepository) CreditCheckinBonus(ctx context.Context, q repository.DBExecutor, userID int64, amount decimal.Decimal, day time.Time) (decimal.Decimal, error) {
	query := `UPDATE wallets SET balance = balance + $1, last_checkin_date = $2, updated_at = $3
              WHERE user_id = $4 AND last_checkin_date IS DISTINCT FROM $2
              RETURNING balance`
	var balance decimal.Decimal
	err := q.QueryRowContext(ctx, query, amount, domain.DateOf(day), time.Now().UTC(), userID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, mapError(err, "failed to credit check-in bonus for user %d", userID)
	}

	if err := r.ensureExists(ctx, q, userID); err != nil {
		return decimal.Zero, err
	}
	return decimal.Zero, util.ErrAlreadyClaimed
}

// ensureExists tells a refused conditional update apart from a missing wallet.
func (r *WalletRepository) ensureExists(ctx context.Context, q repository.DBExecutor, userID int64) error {
	var exists bool
	if err := q.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM wallets WHERE user_id = $1)`, userID); err != nil {
		return mapError(err, "failed to check wallet for user %d", userID)
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, util.ErrUserNotFound)
	}
	return nil
}
