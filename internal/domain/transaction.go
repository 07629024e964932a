// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the type of a ledger entry.
type TransactionType string

const (
	TransactionTypeAdminCredit  TransactionType = "admin_credit"
	TransactionTypeRecharge     TransactionType = "recharge"
	TransactionTypeWithdrawal   TransactionType = "withdrawal"
	TransactionTypePlanPurchase TransactionType = "plan_purchase"
	TransactionTypeProfit       TransactionType = "profit"
	TransactionTypeCheckinBonus TransactionType = "checkin_bonus"
)

// IsCredit reports whether entries of this type add to the wallet.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeAdminCredit, TransactionTypeRecharge, TransactionTypeProfit, TransactionTypeCheckinBonus:
		return true
	}
	return false
}

// TransactionStatus defines the status of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Ledger entry descriptions.
const (
	DescriptionPurchasePrefix   = "Purchase of "
	DescriptionWithdrawalPrefix = "Withdrawal request to "
	DescriptionDailyProfit      = "Daily profit from investment plan"
	DescriptionCheckinBonus     = "Daily check-in bonus"
	DescriptionAdminCredit      = "Admin manual credit"
	DescriptionRecharge         = "Online payment request"
)

// Transaction is an append-only ledger entry. Amount is always positive; its effect on the
// wallet follows from Type and Status.
type Transaction struct {
	ID          int64             `db:"id" json:"id"`                   // Primary key, BIGSERIAL in DB
	UserID      int64             `db:"user_id" json:"user_id"`         // Owning wallet
	Type        TransactionType   `db:"type" json:"type"`               // Entry type
	Amount      decimal.Decimal   `db:"amount" json:"amount"`           // NUMERIC(20, 4) in DB, always > 0
	Description string            `db:"description" json:"description"` // Human readable description
	Status      TransactionStatus `db:"status" json:"status"`           // pending, completed or cancelled
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`   // Timestamp of record creation
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`   // Timestamp of the last status change
}

// NewTransaction creates a new Transaction instance.
func NewTransaction(
	userID int64,
	txType TransactionType,
	amount decimal.Decimal,
	description string,
	status TransactionStatus,
) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Description: description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SignedEffect is the entry's contribution to the wallet balance.
// Completed credits add and completed debits subtract. A pending withdrawal also subtracts
// because its funds are held from the moment it is requested.
func (t *Transaction) SignedEffect() decimal.Decimal {
	switch t.Status {
	case TransactionStatusCompleted:
		if t.Type.IsCredit() {
			return t.Amount
		}
		return t.Amount.Neg()
	case TransactionStatusPending:
		if t.Type == TransactionTypeWithdrawal {
			return t.Amount.Neg()
		}
	}
	return decimal.Zero
}

// RejectionSuffix is appended to the description of a cancelled entry.
func RejectionSuffix(notes string) string {
	return " (Rejected: " + notes + ")"
}
