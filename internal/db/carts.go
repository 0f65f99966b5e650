package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const cartColumns = `id, register_code, cashier_id, customer_id, order_discount_kind, order_discount_value, promo_code, status, created_at, updated_at, expires_at`

func scanCart(row interface{ Scan(...any) error }) (Cart, error) {
	var c Cart
	err := row.Scan(
		&c.ID,
		&c.RegisterCode,
		&c.CashierID,
		&c.CustomerID,
		&c.OrderDiscountKind,
		&c.OrderDiscountValue,
		&c.PromoCode,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ExpiresAt,
	)
	return c, err
}

// CreateCartParams opens a cart at a register.
type CreateCartParams struct {
	RegisterCode pgtype.Text
	CashierID    pgtype.UUID
	ExpiresAt    pgtype.Timestamptz
}

const createCart = `INSERT INTO carts (register_code, cashier_id, expires_at)
VALUES ($1, $2, $3)
RETURNING ` + cartColumns

// CreateCart opens an empty building cart.
func (q *Queries) CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, createCart, arg.RegisterCode, arg.CashierID, arg.ExpiresAt))
}

const getCartByID = `SELECT ` + cartColumns + ` FROM carts WHERE id = $1`

// GetCartByID loads a cart by primary key.
func (q *Queries) GetCartByID(ctx context.Context, id pgtype.UUID) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, getCartByID, id))
}

// TouchCartParams extends a cart's lifetime.
type TouchCartParams struct {
	ID        pgtype.UUID
	ExpiresAt pgtype.Timestamptz
}

const touchCart = `UPDATE carts SET updated_at = now(), expires_at = $2 WHERE id = $1`

// TouchCart bumps updated_at and the expiry.
func (q *Queries) TouchCart(ctx context.Context, arg TouchCartParams) error {
	_, err := q.db.Exec(ctx, touchCart, arg.ID, arg.ExpiresAt)
	return err
}

const updateCartStatus = `UPDATE carts SET status = $2, updated_at = now() WHERE id = $1`

// UpdateCartStatus moves the cart through its lifecycle (building, abandoned, checked_out).
func (q *Queries) UpdateCartStatus(ctx context.Context, id pgtype.UUID, status string) error {
	_, err := q.db.Exec(ctx, updateCartStatus, id, status)
	return err
}

const setCartCustomer = `UPDATE carts SET customer_id = $2, updated_at = now() WHERE id = $1`

// SetCartCustomer attaches (or detaches, with a null id) a loyalty customer.
func (q *Queries) SetCartCustomer(ctx context.Context, id pgtype.UUID, customerID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, setCartCustomer, id, customerID)
	return err
}

// SetCartOrderDiscountParams stores the order-level discount.
type SetCartOrderDiscountParams struct {
	ID    pgtype.UUID
	Kind  pgtype.Text
	Value pgtype.Int8
}

const setCartOrderDiscount = `UPDATE carts SET order_discount_kind = $2, order_discount_value = $3, updated_at = now() WHERE id = $1`

// SetCartOrderDiscount attaches or clears the order-level discount.
func (q *Queries) SetCartOrderDiscount(ctx context.Context, arg SetCartOrderDiscountParams) error {
	_, err := q.db.Exec(ctx, setCartOrderDiscount, arg.ID, arg.Kind, arg.Value)
	return err
}

const setCartPromoCode = `UPDATE carts SET promo_code = $2, updated_at = now() WHERE id = $1`

// SetCartPromoCode attaches or clears the applied promo code.
func (q *Queries) SetCartPromoCode(ctx context.Context, id pgtype.UUID, code pgtype.Text) error {
	_, err := q.db.Exec(ctx, setCartPromoCode, id, code)
	return err
}

const cartLineColumns = `id, cart_id, product_id, name, unit_price_cents, price_overridden, qty_milli, pricing_mode, vat_bps, discount_kind, discount_value, created_at`

func scanCartLine(row interface{ Scan(...any) error }) (CartLine, error) {
	var l CartLine
	err := row.Scan(
		&l.ID,
		&l.CartID,
		&l.ProductID,
		&l.Name,
		&l.UnitPriceCents,
		&l.PriceOverridden,
		&l.QtyMilli,
		&l.PricingMode,
		&l.VatBps,
		&l.DiscountKind,
		&l.DiscountValue,
		&l.CreatedAt,
	)
	return l, err
}

// CreateCartLineParams carries a new cart line.
type CreateCartLineParams struct {
	CartID         pgtype.UUID
	ProductID      pgtype.UUID
	Name           string
	UnitPriceCents int64
	QtyMilli       int64
	PricingMode    string
	VatBps         int32
}

const createCartLine = `INSERT INTO cart_lines (cart_id, product_id, name, unit_price_cents, qty_milli, pricing_mode, vat_bps)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + cartLineColumns

// CreateCartLine inserts a line into the cart.
func (q *Queries) CreateCartLine(ctx context.Context, arg CreateCartLineParams) (CartLine, error) {
	return scanCartLine(q.db.QueryRow(ctx, createCartLine,
		arg.CartID, arg.ProductID, arg.Name, arg.UnitPriceCents, arg.QtyMilli, arg.PricingMode, arg.VatBps))
}

const getCartLineByID = `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE id = $1`

// GetCartLineByID loads a single cart line.
func (q *Queries) GetCartLineByID(ctx context.Context, id pgtype.UUID) (CartLine, error) {
	return scanCartLine(q.db.QueryRow(ctx, getCartLineByID, id))
}

// FindCartLineByProductParams identifies a line by cart and product.
type FindCartLineByProductParams struct {
	CartID    pgtype.UUID
	ProductID pgtype.UUID
}

const findCartLineByProduct = `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE cart_id = $1 AND product_id = $2`

// FindCartLineByProduct finds an existing line for the product, if any.
func (q *Queries) FindCartLineByProduct(ctx context.Context, arg FindCartLineByProductParams) (CartLine, error) {
	return scanCartLine(q.db.QueryRow(ctx, findCartLineByProduct, arg.CartID, arg.ProductID))
}

const listCartLines = `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE cart_id = $1 ORDER BY created_at`

// ListCartLines returns the cart's lines in scan order.
func (q *Queries) ListCartLines(ctx context.Context, cartID pgtype.UUID) ([]CartLine, error) {
	rows, err := q.db.Query(ctx, listCartLines, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CartLine
	for rows.Next() {
		l, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const updateCartLineQty = `UPDATE cart_lines SET qty_milli = $2 WHERE id = $1`

// UpdateCartLineQty replaces the line quantity.
func (q *Queries) UpdateCartLineQty(ctx context.Context, id pgtype.UUID, qtyMilli int64) error {
	_, err := q.db.Exec(ctx, updateCartLineQty, id, qtyMilli)
	return err
}

// SetCartLineDiscountParams attaches or clears a per-line discount.
type SetCartLineDiscountParams struct {
	ID    pgtype.UUID
	Kind  pgtype.Text
	Value pgtype.Int8
}

const setCartLineDiscount = `UPDATE cart_lines SET discount_kind = $2, discount_value = $3 WHERE id = $1`

// SetCartLineDiscount stores the line discount.
func (q *Queries) SetCartLineDiscount(ctx context.Context, arg SetCartLineDiscountParams) error {
	_, err := q.db.Exec(ctx, setCartLineDiscount, arg.ID, arg.Kind, arg.Value)
	return err
}

const overrideCartLinePrice = `UPDATE cart_lines SET unit_price_cents = $2, price_overridden = TRUE WHERE id = $1`

// OverrideCartLinePrice replaces the unit price on the line and marks the
// override. The catalog price is untouched.
func (q *Queries) OverrideCartLinePrice(ctx context.Context, id pgtype.UUID, unitPriceCents int64) error {
	_, err := q.db.Exec(ctx, overrideCartLinePrice, id, unitPriceCents)
	return err
}

// DeleteCartLineParams identifies the line to remove.
type DeleteCartLineParams struct {
	ID     pgtype.UUID
	CartID pgtype.UUID
}

const deleteCartLine = `DELETE FROM cart_lines WHERE id = $1 AND cart_id = $2`

// DeleteCartLine removes one line from the cart.
func (q *Queries) DeleteCartLine(ctx context.Context, arg DeleteCartLineParams) error {
	_, err := q.db.Exec(ctx, deleteCartLine, arg.ID, arg.CartID)
	return err
}

const deleteCartLines = `DELETE FROM cart_lines WHERE cart_id = $1`

// DeleteCartLines clears all lines of a cart.
func (q *Queries) DeleteCartLines(ctx context.Context, cartID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteCartLines, cartID)
	return err
}
