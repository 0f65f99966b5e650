package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const cashierColumns = `id, code, name, pin_hash, role, active, created_at`

func scanCashier(row interface{ Scan(...any) error }) (Cashier, error) {
	var c Cashier
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.PinHash, &c.Role, &c.Active, &c.CreatedAt)
	return c, err
}

const getCashierByCode = `SELECT ` + cashierColumns + ` FROM cashiers WHERE code = $1 AND active`

// GetCashierByCode loads an active cashier by its short login code.
func (q *Queries) GetCashierByCode(ctx context.Context, code string) (Cashier, error) {
	return scanCashier(q.db.QueryRow(ctx, getCashierByCode, code))
}

const getCashierByID = `SELECT ` + cashierColumns + ` FROM cashiers WHERE id = $1`

// GetCashierByID loads one cashier.
func (q *Queries) GetCashierByID(ctx context.Context, id pgtype.UUID) (Cashier, error) {
	return scanCashier(q.db.QueryRow(ctx, getCashierByID, id))
}

// CreateCashierParams carries a new register operator.
type CreateCashierParams struct {
	Code    string
	Name    string
	PinHash string
	Role    string
}

const createCashier = `INSERT INTO cashiers (code, name, pin_hash, role) VALUES ($1, $2, $3, $4) RETURNING ` + cashierColumns

// CreateCashier inserts a cashier account.
func (q *Queries) CreateCashier(ctx context.Context, arg CreateCashierParams) (Cashier, error) {
	return scanCashier(q.db.QueryRow(ctx, createCashier, arg.Code, arg.Name, arg.PinHash, arg.Role))
}
