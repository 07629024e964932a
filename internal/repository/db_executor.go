// internal/repository/db_executor.go
package repository

import (
	"context"
	"database/sql"
)

// DBExecutor is the query surface shared by *sqlx.DB and *sqlx.Tx.
// Writes that belong to one ledger operation must all receive the same *sqlx.Tx;
// plain reads outside an operation may use the pool.
type DBExecutor interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
