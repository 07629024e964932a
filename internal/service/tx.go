// internal/service/tx.go
package service

import (
	"context"
	"fmt"

	"yieldwallet/internal/repository"
	"yieldwallet/internal/util"
	"yieldwallet/pkg/db"
)

// TxFuncs carries the injected transaction lifecycle functions.
// Production wiring uses db.BeginTx, db.CommitTx and db.RollbackTx.
type TxFuncs struct {
	Begin    db.BeginTxFunc
	Commit   db.CommitTxFunc
	Rollback db.RollbackTxFunc
}

// DefaultTxFuncs returns the sqlx-backed transaction functions.
func DefaultTxFuncs() TxFuncs {
	return TxFuncs{Begin: db.BeginTx, Commit: db.CommitTx, Rollback: db.RollbackTx}
}

// txRunner scopes one atomic unit of work. Every path that does not reach the
// commit is rolled back by the deferred rollback.
type txRunner struct {
	dbBeginner db.DBTxBeginner
	funcs      TxFuncs
}

// within runs fn inside a transaction and commits it if fn succeeds.
// Errors without a failure kind are classified as util.ErrPersistence.
func (r txRunner) within(ctx context.Context, op string, fn func(q repository.DBExecutor) error) error {
	txController, err := r.funcs.Begin(ctx, r.dbBeginner)
	if err != nil {
		return util.AsPersistence(fmt.Errorf("%s: failed to begin transaction: %w", op, err))
	}
	defer r.funcs.Rollback(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("%s: transaction controller does not implement DBExecutor: %w", op, util.ErrPersistence)
	}

	if err := fn(txExecutor); err != nil {
		return util.AsPersistence(fmt.Errorf("%s: %w", op, err))
	}

	if err := r.funcs.Commit(txController); err != nil {
		return util.AsPersistence(fmt.Errorf("%s: failed to commit transaction: %w", op, err))
	}
	return nil
}
