// internal/domain/withdrawal.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus defines the state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// Default admin notes when none are given.
const (
	DefaultApproveNotes = "Approved by admin"
	DefaultRejectNotes  = "Rejected by admin"
)

// WithdrawalRequest is a user's request to pay out funds. While pending, the amount
// has already been debited from the wallet.
type WithdrawalRequest struct {
	ID            int64            `db:"id" json:"id"`
	UserID        int64            `db:"user_id" json:"user_id"`
	Amount        decimal.Decimal  `db:"amount" json:"amount"`
	BankName      string           `db:"bank_name" json:"bank_name"`
	AccountNumber string           `db:"account_number" json:"account_number"`
	AccountName   string           `db:"account_name" json:"account_name"`
	Status        WithdrawalStatus `db:"status" json:"status"`
	AdminNotes    *string          `db:"admin_notes" json:"admin_notes"`
	TransactionID *int64           `db:"transaction_id" json:"transaction_id"` // Paired pending ledger entry
	RequestDate   time.Time        `db:"request_date" json:"request_date"`
	ProcessedDate *time.Time       `db:"processed_date" json:"processed_date"`
}

// NewWithdrawalRequest creates a pending request paired with ledger entry transactionID.
func NewWithdrawalRequest(userID int64, amount decimal.Decimal, bank BankDetails, transactionID int64) *WithdrawalRequest {
	return &WithdrawalRequest{
		UserID:        userID,
		Amount:        amount,
		BankName:      bank.BankName,
		AccountNumber: bank.AccountNumber,
		AccountName:   bank.AccountName,
		Status:        WithdrawalStatusPending,
		TransactionID: &transactionID,
		RequestDate:   time.Now().UTC(),
	}
}

// IsPending reports whether the request can still be approved or rejected.
func (r *WithdrawalRequest) IsPending() bool {
	return r.Status == WithdrawalStatusPending
}

// Process moves a pending request to a terminal status. It returns false when the
// request is already terminal or status is not terminal.
func (r *WithdrawalRequest) Process(status WithdrawalStatus, notes string, at time.Time) bool {
	if !r.IsPending() || status == WithdrawalStatusPending {
		return false
	}
	r.Status = status
	r.AdminNotes = &notes
	r.ProcessedDate = &at
	return true
}
