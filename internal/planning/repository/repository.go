package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// queryer is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx. Repositories
// run on it so the same methods work inside and outside a transaction.
type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}
