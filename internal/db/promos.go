package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const promoColumns = `code, kind, value, min_spend_cents, usage_limit, used_count, valid_from, valid_to, active, created_at`

func scanPromo(row interface{ Scan(...any) error }) (PromoCode, error) {
	var p PromoCode
	err := row.Scan(
		&p.Code,
		&p.Kind,
		&p.Value,
		&p.MinSpendCents,
		&p.UsageLimit,
		&p.UsedCount,
		&p.ValidFrom,
		&p.ValidTo,
		&p.Active,
		&p.CreatedAt,
	)
	return p, err
}

const getPromoCode = `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = $1`

// GetPromoCode loads a promo code by its identifier.
func (q *Queries) GetPromoCode(ctx context.Context, code string) (PromoCode, error) {
	return scanPromo(q.db.QueryRow(ctx, getPromoCode, code))
}

// CreatePromoCodeParams carries a new promo code definition.
type CreatePromoCodeParams struct {
	Code          string
	Kind          string
	Value         int64
	MinSpendCents int64
	UsageLimit    pgtype.Int4
	ValidFrom     pgtype.Timestamptz
	ValidTo       pgtype.Timestamptz
}

const createPromoCode = `INSERT INTO promo_codes (code, kind, value, min_spend_cents, usage_limit, valid_from, valid_to)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + promoColumns

// CreatePromoCode inserts a promo code definition.
func (q *Queries) CreatePromoCode(ctx context.Context, arg CreatePromoCodeParams) (PromoCode, error) {
	return scanPromo(q.db.QueryRow(ctx, createPromoCode,
		arg.Code, arg.Kind, arg.Value, arg.MinSpendCents, arg.UsageLimit, arg.ValidFrom, arg.ValidTo))
}

// UpdatePromoCodeParams carries updatable promo fields.
type UpdatePromoCodeParams struct {
	Code          string
	Kind          string
	Value         int64
	MinSpendCents int64
	UsageLimit    pgtype.Int4
	ValidFrom     pgtype.Timestamptz
	ValidTo       pgtype.Timestamptz
	Active        bool
}

const updatePromoCode = `UPDATE promo_codes
SET kind = $2, value = $3, min_spend_cents = $4, usage_limit = $5, valid_from = $6, valid_to = $7, active = $8
WHERE code = $1
RETURNING ` + promoColumns

// UpdatePromoCode replaces the mutable fields of a promo code.
func (q *Queries) UpdatePromoCode(ctx context.Context, arg UpdatePromoCodeParams) (PromoCode, error) {
	return scanPromo(q.db.QueryRow(ctx, updatePromoCode,
		arg.Code, arg.Kind, arg.Value, arg.MinSpendCents, arg.UsageLimit, arg.ValidFrom, arg.ValidTo, arg.Active))
}

const listPromoCodes = `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY created_at DESC LIMIT $1 OFFSET $2`

// ListPromoCodes returns a page of promo codes, newest first.
func (q *Queries) ListPromoCodes(ctx context.Context, limit, offset int32) ([]PromoCode, error) {
	rows, err := q.db.Query(ctx, listPromoCodes, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const incrementPromoUsage = `UPDATE promo_codes SET used_count = used_count + 1 WHERE code = $1`

// IncrementPromoUsage bumps the usage counter after a completed checkout.
func (q *Queries) IncrementPromoUsage(ctx context.Context, code string) error {
	_, err := q.db.Exec(ctx, incrementPromoUsage, code)
	return err
}
