// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Wallet is a user's monetary balance. The owning user is managed by the identity service;
// the wallet is keyed by that user's ID.
type Wallet struct {
	UserID          int64           `db:"user_id" json:"user_id"`                     // Primary key, issued by the identity service
	Balance         decimal.Decimal `db:"balance" json:"balance"`                     // Current balance, NUMERIC(20, 4) in DB, never negative
	LastCheckinDate *time.Time      `db:"last_checkin_date" json:"last_checkin_date"` // Calendar day of the last check-in bonus
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`               // Timestamp of creation
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`               // Timestamp of last update
}

// NewWallet creates a new Wallet instance.
func NewWallet(userID int64) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		UserID:    userID,
		Balance:   decimal.Zero, // Initialize balance to 0
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CheckedInOn reports whether the check-in bonus was already taken on day.
func (w *Wallet) CheckedInOn(day time.Time) bool {
	return w.LastCheckinDate != nil && SameDay(*w.LastCheckinDate, day)
}

// BankDetails identifies the payout destination of a withdrawal.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// Reconciliation compares a stored balance with the balance implied by the ledger.
type Reconciliation struct {
	UserID        int64           `json:"user_id"`
	Balance       decimal.Decimal `json:"balance"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	Difference    decimal.Decimal `json:"difference"`
	Balanced      bool            `json:"balanced"`
}

// NewReconciliation builds a Reconciliation from the two sides.
func NewReconciliation(userID int64, balance, ledgerBalance decimal.Decimal) *Reconciliation {
	diff := balance.Sub(ledgerBalance)
	return &Reconciliation{
		UserID:        userID,
		Balance:       balance,
		LedgerBalance: ledgerBalance,
		Difference:    diff,
		Balanced:      diff.IsZero(),
	}
}
