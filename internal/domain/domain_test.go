// internal/domain/domain_test.go
package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan() *Plan {
	return &Plan{
		ID:           7,
		Name:         "Starter",
		Price:        decimal.NewFromInt(300),
		DurationDays: 3,
		DailyProfit:  decimal.NewFromInt(20),
		TotalROI:     decimal.NewFromInt(60),
		IsActive:     true,
	}
}

func TestNewPositionSnapshotsPlan(t *testing.T) {
	plan := testPlan()
	start := time.Date(2026, 10, 16, 22, 30, 0, 0, time.FixedZone("WAT", 3600))

	pos := NewPosition(42, plan, start)

	assert.Equal(t, int64(42), pos.UserID)
	assert.Equal(t, plan.ID, pos.PlanID)
	assert.True(t, pos.PurchasePrice.Equal(plan.Price))
	assert.True(t, pos.DailyProfitAmount.Equal(plan.DailyProfit))
	assert.Equal(t, 3, pos.DaysRemaining)
	assert.Equal(t, PositionStatusActive, pos.Status)
	assert.Nil(t, pos.LastAccrualDate)
	assert.True(t, pos.TotalProfitEarned.IsZero())
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), pos.StartDate)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), pos.EndDate)

	// Later catalog changes must not leak into the position.
	plan.DailyProfit = decimal.NewFromInt(99)
	assert.True(t, pos.DailyProfitAmount.Equal(decimal.NewFromInt(20)))
}

func TestPositionAccrue(t *testing.T) {
	pos := NewPosition(1, testPlan(), time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	day1 := time.Date(2026, 10, 2, 0, 5, 0, 0, time.UTC)

	t.Run("AdvancesOncePerDay", func(t *testing.T) {
		require.True(t, pos.Accrue(day1))
		assert.Equal(t, 2, pos.DaysRemaining)
		assert.True(t, pos.TotalProfitEarned.Equal(decimal.NewFromInt(20)))
		require.NotNil(t, pos.LastAccrualDate)
		assert.Equal(t, DateOf(day1), *pos.LastAccrualDate)

		assert.False(t, pos.Accrue(day1.Add(3*time.Hour)), "same day must be a no-op")
		assert.Equal(t, 2, pos.DaysRemaining)
	})

	t.Run("CompletesExactlyAtZero", func(t *testing.T) {
		require.True(t, pos.Accrue(day1.AddDate(0, 0, 1)))
		assert.Equal(t, PositionStatusActive, pos.Status)
		require.True(t, pos.Accrue(day1.AddDate(0, 0, 2)))
		assert.Equal(t, 0, pos.DaysRemaining)
		assert.Equal(t, PositionStatusCompleted, pos.Status)
		assert.True(t, pos.TotalProfitEarned.Equal(decimal.NewFromInt(60)))

		assert.False(t, pos.Accrue(day1.AddDate(0, 0, 3)), "completed positions never change")
		assert.Equal(t, 0, pos.DaysRemaining)
	})

	t.Run("EarlierDateIsNotDue", func(t *testing.T) {
		p := NewPosition(1, testPlan(), day1)
		require.True(t, p.Accrue(day1))
		assert.False(t, p.IsDue(day1.AddDate(0, 0, -1)))
	})
}

func TestTransactionSignedEffect(t *testing.T) {
	amount := decimal.NewFromInt(100)
	cases := []struct {
		name     string
		txType   TransactionType
		status   TransactionStatus
		expected decimal.Decimal
	}{
		{"CompletedProfit", TransactionTypeProfit, TransactionStatusCompleted, amount},
		{"CompletedBonus", TransactionTypeCheckinBonus, TransactionStatusCompleted, amount},
		{"CompletedAdminCredit", TransactionTypeAdminCredit, TransactionStatusCompleted, amount},
		{"CompletedRecharge", TransactionTypeRecharge, TransactionStatusCompleted, amount},
		{"PendingRecharge", TransactionTypeRecharge, TransactionStatusPending, decimal.Zero},
		{"CompletedPurchase", TransactionTypePlanPurchase, TransactionStatusCompleted, amount.Neg()},
		{"PendingWithdrawalIsHeld", TransactionTypeWithdrawal, TransactionStatusPending, amount.Neg()},
		{"CompletedWithdrawal", TransactionTypeWithdrawal, TransactionStatusCompleted, amount.Neg()},
		{"CancelledWithdrawal", TransactionTypeWithdrawal, TransactionStatusCancelled, decimal.Zero},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := NewTransaction(1, tc.txType, amount, "", tc.status)
			assert.True(t, tc.expected.Equal(tx.SignedEffect()), "got %s", tx.SignedEffect())
		})
	}
}

func TestWithdrawalRequestProcess(t *testing.T) {
	req := NewWithdrawalRequest(3, decimal.NewFromInt(200), BankDetails{BankName: "Bank", AccountNumber: "0123", AccountName: "Ada"}, 11)
	require.NotNil(t, req.TransactionID)
	assert.Equal(t, int64(11), *req.TransactionID)
	assert.True(t, req.IsPending())

	at := time.Now().UTC()
	assert.False(t, req.Process(WithdrawalStatusPending, "x", at))
	require.True(t, req.Process(WithdrawalStatusRejected, "no", at))
	assert.Equal(t, WithdrawalStatusRejected, req.Status)
	assert.Equal(t, "no", *req.AdminNotes)
	assert.False(t, req.Process(WithdrawalStatusApproved, "late", at), "terminal states are final")
	assert.Equal(t, WithdrawalStatusRejected, req.Status)
}

func TestWalletCheckedInOn(t *testing.T) {
	w := NewWallet(1)
	day := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	assert.False(t, w.CheckedInOn(day))

	d := DateOf(day)
	w.LastCheckinDate = &d
	assert.True(t, w.CheckedInOn(day.Add(10*time.Hour)))
	assert.False(t, w.CheckedInOn(day.AddDate(0, 0, 1)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-10-16")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("16/10/2026")
	assert.Error(t, err)
}

func TestNewReconciliation(t *testing.T) {
	r := NewReconciliation(1, decimal.NewFromInt(500), decimal.NewFromInt(500))
	assert.True(t, r.Balanced)
	r = NewReconciliation(1, decimal.NewFromInt(500), decimal.NewFromInt(480))
	assert.False(t, r.Balanced)
	assert.True(t, r.Difference.Equal(decimal.NewFromInt(20)))
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{"100", true},
		{"100.0001", true},
		{"100.00010", true},
		{"0.0001", true},
		{"100.00005", false},
		{"0.00001", false},
		{"0", false},
		{"-5", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidAmount(decimal.RequireFromString(tt.amount)))
		})
	}
}
