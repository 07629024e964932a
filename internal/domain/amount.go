// internal/domain/amount.go
package domain

import "github.com/shopspring/decimal"

// AmountScale is the number of decimal places every stored amount carries (NUMERIC(20, 4)).
const AmountScale = 4

// ValidAmount reports whether amount is positive and storable at AmountScale without rounding.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Truncate(AmountScale))
}
