// internal/repository/postgres/errors.go
package postgres

import (
	"errors"
	"fmt"

	"yieldwallet/internal/util"

	"github.com/lib/pq"
)

// PostgreSQL error codes that signal contention rather than a broken statement.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// mapError wraps a driver error with the operation name. Lock contention and
// serialization failures become util.ErrConflict; everything else stays a plain
// wrapped error and is classified as a storage failure by the service layer.
func mapError(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%s: %w: %v", msg, util.ErrConflict, pqErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
