// Package db contains the hand-maintained persistence layer: typed models and
// query methods over pgx. The layout mirrors generated-query packages so
// services depend on a narrow Querier interface and transactions compose via
// WithTx.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx connection behaviour the queries need. Both
// *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New constructs Queries bound to the provided connection or pool.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds all SQL operations of the application.
type Queries struct {
	db DBTX
}

// WithTx returns Queries bound to the provided transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}
