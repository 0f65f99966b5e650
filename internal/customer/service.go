// Package customer manages loyalty customers. Point balances are only
// mutated through checkout and the loyalty workers; this surface reads
// them and registers new customers.
package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/loyalty"
)

// ErrNotFound signals an unknown customer id.
var ErrNotFound = errors.New("customer not found")

type queryProvider interface {
	GetCustomerByID(ctx context.Context, id pgtype.UUID) (db.Customer, error)
	CreateCustomer(ctx context.Context, arg db.CreateCustomerParams) (db.Customer, error)
	ListCustomers(ctx context.Context, limit, offset int32) ([]db.Customer, error)
	GetCustomerPoints(ctx context.Context, id pgtype.UUID) (int64, error)
}

// Service exposes customer registration and balance lookups.
type Service struct {
	Q       queryProvider
	Loyalty loyalty.Config
}

// Customer is the API shape of a loyalty customer.
type Customer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Points int64  `json:"points"`
}

// Balance reports the redeemable value of a customer's points.
type Balance struct {
	CustomerID      string `json:"customerId"`
	Points          int64  `json:"points"`
	RedeemableCents int64  `json:"redeemableCents"`
}

// Create registers a customer with a zero point balance.
func (s *Service) Create(ctx context.Context, name, email string) (Customer, error) {
	var emailVal pgtype.Text
	if trimmed := strings.TrimSpace(email); trimmed != "" {
		emailVal = pgtype.Text{String: trimmed, Valid: true}
	}
	row, err := s.Q.CreateCustomer(ctx, db.CreateCustomerParams{
		Name:  strings.TrimSpace(name),
		Email: emailVal,
	})
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return toCustomer(row), nil
}

// Get loads one customer.
func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	uid, err := db.ToUUID(id)
	if err != nil {
		return Customer{}, ErrNotFound
	}
	row, err := s.Q.GetCustomerByID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("load customer: %w", err)
	}
	return toCustomer(row), nil
}

// List returns a page of customers ordered by name.
func (s *Service) List(ctx context.Context, page, limit int) ([]Customer, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	rows, err := s.Q.ListCustomers(ctx, int32(limit), int32((page-1)*limit))
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	customers := make([]Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, toCustomer(row))
	}
	return customers, nil
}

// PointsBalance reports the balance and its cash value under the current
// loyalty configuration.
func (s *Service) PointsBalance(ctx context.Context, id string) (Balance, error) {
	uid, err := db.ToUUID(id)
	if err != nil {
		return Balance{}, ErrNotFound
	}
	points, err := s.Q.GetCustomerPoints(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, ErrNotFound
		}
		return Balance{}, fmt.Errorf("load customer points: %w", err)
	}
	balance := Balance{CustomerID: id, Points: points}
	if s.Loyalty.Enabled {
		balance.RedeemableCents = points * s.Loyalty.CentsPerPoint
	}
	return balance, nil
}

func toCustomer(row db.Customer) Customer {
	c := Customer{
		ID:     db.UUIDString(row.ID),
		Name:   row.Name,
		Points: row.Points,
	}
	if row.Email.Valid {
		c.Email = row.Email.String
	}
	return c
}
