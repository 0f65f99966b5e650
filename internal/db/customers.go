package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, name, email, points, created_at`

func scanCustomer(row interface{ Scan(...any) error }) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Points, &c.CreatedAt)
	return c, err
}

const getCustomerByID = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

// GetCustomerByID loads one customer.
func (q *Queries) GetCustomerByID(ctx context.Context, id pgtype.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomerByID, id))
}

// CreateCustomerParams carries a new loyalty customer.
type CreateCustomerParams struct {
	Name  string
	Email pgtype.Text
}

const createCustomer = `INSERT INTO customers (name, email) VALUES ($1, $2) RETURNING ` + customerColumns

// CreateCustomer inserts a customer with a zero point balance.
func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, createCustomer, arg.Name, arg.Email))
}

const listCustomers = `SELECT ` + customerColumns + ` FROM customers ORDER BY name LIMIT $1 OFFSET $2`

// ListCustomers returns a page of customers ordered by name.
func (q *Queries) ListCustomers(ctx context.Context, limit, offset int32) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const getCustomerPoints = `SELECT points FROM customers WHERE id = $1`

// GetCustomerPoints reads the loyalty balance.
func (q *Queries) GetCustomerPoints(ctx context.Context, id pgtype.UUID) (int64, error) {
	var points int64
	err := q.db.QueryRow(ctx, getCustomerPoints, id).Scan(&points)
	return points, err
}

// AdjustCustomerPointsParams applies a signed delta to the balance.
type AdjustCustomerPointsParams struct {
	ID    pgtype.UUID
	Delta int64
}

const adjustCustomerPoints = `UPDATE customers SET points = GREATEST(points + $2, 0) WHERE id = $1 RETURNING points`

// AdjustCustomerPoints applies the delta and returns the resulting balance.
// The balance never goes negative.
func (q *Queries) AdjustCustomerPoints(ctx context.Context, arg AdjustCustomerPointsParams) (int64, error) {
	var points int64
	err := q.db.QueryRow(ctx, adjustCustomerPoints, arg.ID, arg.Delta).Scan(&points)
	return points, err
}
