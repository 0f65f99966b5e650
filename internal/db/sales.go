package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const saleColumns = `id, sale_number, cart_id, cashier_id, customer_id, subtotal_cents, vat_cents, discount_cents, total_cents, payment_method, rounded_total_cents, rounding_diff_cents, tendered_cents, change_cents, redeemed_points, redeemed_cents, points_earned, invoice, cancelled, cancelled_at, created_at`

func scanSale(row interface{ Scan(...any) error }) (Sale, error) {
	var s Sale
	err := row.Scan(
		&s.ID,
		&s.SaleNumber,
		&s.CartID,
		&s.CashierID,
		&s.CustomerID,
		&s.SubtotalCents,
		&s.VatCents,
		&s.DiscountCents,
		&s.TotalCents,
		&s.PaymentMethod,
		&s.RoundedTotalCents,
		&s.RoundingDiffCents,
		&s.TenderedCents,
		&s.ChangeCents,
		&s.RedeemedPoints,
		&s.RedeemedCents,
		&s.PointsEarned,
		&s.Invoice,
		&s.Cancelled,
		&s.CancelledAt,
		&s.CreatedAt,
	)
	return s, err
}

// CreateSaleParams carries the finalized amounts written at checkout.
type CreateSaleParams struct {
	CartID            pgtype.UUID
	CashierID         pgtype.UUID
	CustomerID        pgtype.UUID
	SubtotalCents     int64
	VatCents          int64
	DiscountCents     int64
	TotalCents        int64
	PaymentMethod     string
	RoundedTotalCents pgtype.Int8
	RoundingDiffCents pgtype.Int8
	TenderedCents     pgtype.Int8
	ChangeCents       pgtype.Int8
	RedeemedPoints    int64
	RedeemedCents     int64
	PointsEarned      int64
	Invoice           bool
}

const createSale = `INSERT INTO sales (cart_id, cashier_id, customer_id, subtotal_cents, vat_cents, discount_cents, total_cents, payment_method, rounded_total_cents, rounding_diff_cents, tendered_cents, change_cents, redeemed_points, redeemed_cents, points_earned, invoice)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING ` + saleColumns

// CreateSale writes the immutable sale record.
func (q *Queries) CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, createSale,
		arg.CartID, arg.CashierID, arg.CustomerID,
		arg.SubtotalCents, arg.VatCents, arg.DiscountCents, arg.TotalCents,
		arg.PaymentMethod, arg.RoundedTotalCents, arg.RoundingDiffCents,
		arg.TenderedCents, arg.ChangeCents,
		arg.RedeemedPoints, arg.RedeemedCents, arg.PointsEarned, arg.Invoice))
}

const saleLineColumns = `id, sale_id, product_id, name, unit_price_cents, qty_milli, pricing_mode, vat_bps, discount_kind, discount_value, discount_cents, subtotal_cents, vat_amount_cents, total_cents`

func scanSaleLine(row interface{ Scan(...any) error }) (SaleLine, error) {
	var l SaleLine
	err := row.Scan(
		&l.ID,
		&l.SaleID,
		&l.ProductID,
		&l.Name,
		&l.UnitPriceCents,
		&l.QtyMilli,
		&l.PricingMode,
		&l.VatBps,
		&l.DiscountKind,
		&l.DiscountValue,
		&l.DiscountCents,
		&l.SubtotalCents,
		&l.VatAmountCents,
		&l.TotalCents,
	)
	return l, err
}

// CreateSaleLineParams carries a finalized line item.
type CreateSaleLineParams struct {
	SaleID         pgtype.UUID
	ProductID      pgtype.UUID
	Name           string
	UnitPriceCents int64
	QtyMilli       int64
	PricingMode    string
	VatBps         int32
	DiscountKind   pgtype.Text
	DiscountValue  pgtype.Int8
	DiscountCents  int64
	SubtotalCents  int64
	VatAmountCents int64
	TotalCents     int64
}

const createSaleLine = `INSERT INTO sale_lines (sale_id, product_id, name, unit_price_cents, qty_milli, pricing_mode, vat_bps, discount_kind, discount_value, discount_cents, subtotal_cents, vat_amount_cents, total_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + saleLineColumns

// CreateSaleLine writes one finalized line item.
func (q *Queries) CreateSaleLine(ctx context.Context, arg CreateSaleLineParams) (SaleLine, error) {
	return scanSaleLine(q.db.QueryRow(ctx, createSaleLine,
		arg.SaleID, arg.ProductID, arg.Name, arg.UnitPriceCents, arg.QtyMilli,
		arg.PricingMode, arg.VatBps, arg.DiscountKind, arg.DiscountValue,
		arg.DiscountCents, arg.SubtotalCents, arg.VatAmountCents, arg.TotalCents))
}

const getSaleByID = `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

// GetSaleByID loads one sale.
func (q *Queries) GetSaleByID(ctx context.Context, id pgtype.UUID) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, getSaleByID, id))
}

const listSales = `SELECT ` + saleColumns + ` FROM sales ORDER BY created_at DESC LIMIT $1 OFFSET $2`

// ListSales returns a page of sales, newest first.
func (q *Queries) ListSales(ctx context.Context, limit, offset int32) ([]Sale, error) {
	rows, err := q.db.Query(ctx, listSales, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const countSales = `SELECT count(*) FROM sales`

// CountSales returns the number of recorded sales.
func (q *Queries) CountSales(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countSales).Scan(&count)
	return count, err
}

const listSaleLines = `SELECT ` + saleLineColumns + ` FROM sale_lines WHERE sale_id = $1 ORDER BY id`

// ListSaleLines returns the finalized lines of a sale.
func (q *Queries) ListSaleLines(ctx context.Context, saleID pgtype.UUID) ([]SaleLine, error) {
	rows, err := q.db.Query(ctx, listSaleLines, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SaleLine
	for rows.Next() {
		l, err := scanSaleLine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const cancelSale = `UPDATE sales SET cancelled = TRUE, cancelled_at = now() WHERE id = $1 AND NOT cancelled RETURNING ` + saleColumns

// CancelSale flags a finalized sale as cancelled. The amounts are never
// touched; a second cancellation attempt matches no row.
func (q *Queries) CancelSale(ctx context.Context, id pgtype.UUID) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, cancelSale, id))
}

// DailySalesRow aggregates one payment method for a business day.
type DailySalesRow struct {
	PaymentMethod     string
	SaleCount         int64
	SubtotalCents     int64
	VatCents          int64
	DiscountCents     int64
	TotalCents        int64
	RoundingDiffCents int64
	RedeemedCents     int64
}

const dailySales = `SELECT payment_method,
  COUNT(*),
  COALESCE(SUM(subtotal_cents), 0),
  COALESCE(SUM(vat_cents), 0),
  COALESCE(SUM(discount_cents), 0),
  COALESCE(SUM(total_cents), 0),
  COALESCE(SUM(rounding_diff_cents), 0),
  COALESCE(SUM(redeemed_cents), 0)
FROM sales
WHERE NOT cancelled
  AND created_at >= $1
  AND created_at < $2
GROUP BY payment_method
ORDER BY payment_method`

// DailySales aggregates completed sales per tender within [from, to).
func (q *Queries) DailySales(ctx context.Context, from, to pgtype.Timestamptz) ([]DailySalesRow, error) {
	rows, err := q.db.Query(ctx, dailySales, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailySalesRow
	for rows.Next() {
		var r DailySalesRow
		if err := rows.Scan(&r.PaymentMethod, &r.SaleCount, &r.SubtotalCents, &r.VatCents, &r.DiscountCents, &r.TotalCents, &r.RoundingDiffCents, &r.RedeemedCents); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const dailyVat = `SELECT sl.vat_bps,
  COALESCE(SUM(sl.vat_amount_cents), 0),
  COALESCE(SUM(sl.total_cents - sl.vat_amount_cents), 0)
FROM sale_lines sl
JOIN sales s ON s.id = sl.sale_id
WHERE NOT s.cancelled
  AND s.created_at >= $1
  AND s.created_at < $2
GROUP BY sl.vat_bps
ORDER BY sl.vat_bps`

// DailyVatRow aggregates one VAT rate for a business day.
type DailyVatRow struct {
	VatBps   int32
	VatCents int64
	NetCents int64
}

// DailyVat aggregates VAT per rate over completed sales within [from, to).
func (q *Queries) DailyVat(ctx context.Context, from, to pgtype.Timestamptz) ([]DailyVatRow, error) {
	rows, err := q.db.Query(ctx, dailyVat, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailyVatRow
	for rows.Next() {
		var r DailyVatRow
		if err := rows.Scan(&r.VatBps, &r.VatCents, &r.NetCents); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
