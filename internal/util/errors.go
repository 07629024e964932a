// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Common application-specific errors.
var (
	ErrInvalidInput        = errors.New("invalid input provided")
	ErrNotFound            = errors.New("not found")
	ErrUserNotFound        = fmt.Errorf("wallet %w", ErrNotFound)
	ErrPlanNotFound        = fmt.Errorf("investment plan %w", ErrNotFound)
	ErrRequestNotFound     = fmt.Errorf("withdrawal request %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrPlanInactive        = errors.New("investment plan is not active")
	ErrInvalidState        = errors.New("operation not valid for current status")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrAlreadyClaimed      = errors.New("bonus already claimed today")
	ErrConflict            = errors.New("concurrent modification detected")
	ErrPersistence         = errors.New("storage failure")
)

// domainErrors are the failure kinds that callers are allowed to see as-is.
var domainErrors = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrPlanInactive,
	ErrInvalidState,
	ErrInsufficientBalance,
	ErrAlreadyClaimed,
	ErrConflict,
	ErrPersistence,
}

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsDomainError reports whether err already carries one of the known failure kinds.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// AsPersistence tags an unclassified error as a storage failure.
// Errors that already carry a failure kind are returned unchanged.
func AsPersistence(err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
