// internal/repository/wallet_repo.go
package repository

import (
	"context"
	"time"

	"yieldwallet/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet balance operations.
// Balances are only ever changed through Adjust and CreditCheckinBonus, both of which
// must run inside the caller's transaction together with the matching ledger entry.
type WalletRepository interface {
	// CreateWallet provisions a wallet for a user. It is a no-op when the user already has one.
	CreateWallet(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
	// GetWallet retrieves a wallet by its owner's user ID.
	GetWallet(ctx context.Context, q DBExecutor, userID int64) (*domain.Wallet, error)
	// Adjust applies a signed delta and returns the new balance. A debit that would take
	// the balance below zero is refused with util.ErrInsufficientBalance without changing anything.
	Adjust(ctx context.Context, q DBExecutor, userID int64, delta decimal.Decimal) (decimal.Decimal, error)
	// CreditCheckinBonus credits amount and stamps day as the last check-in, unless the wallet
	// already checked in on day (util.ErrAlreadyClaimed).
	CreditCheckinBonus(ctx context.Context, q DBExecutor, userID int64, amount decimal.Decimal, day time.Time) (decimal.Decimal, error)
}
