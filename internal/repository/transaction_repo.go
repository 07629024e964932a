// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"yieldwallet/internal/domain"

	"github.com/shopspring/decimal"
)

// TransactionRepository defines the interface for the append-only ledger.
type TransactionRepository interface {
	// Append adds a new ledger entry and sets its ID.
	Append(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// GetForUpdate retrieves an entry and locks it for the rest of the transaction.
	GetForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// FindLatestPending locates the most recent pending entry matching user, amount and type.
	FindLatestPending(ctx context.Context, q DBExecutor, userID int64, amount decimal.Decimal, txType domain.TransactionType) (*domain.Transaction, error)
	// Finalize moves a pending entry to completed or cancelled, appending descriptionSuffix.
	// It fails with util.ErrInvalidState if the entry is no longer pending.
	Finalize(ctx context.Context, q DBExecutor, id int64, status domain.TransactionStatus, descriptionSuffix string) error
	// LedgerBalance sums the signed effect of every entry of a user.
	LedgerBalance(ctx context.Context, q DBExecutor, userID int64) (decimal.Decimal, error)
}
