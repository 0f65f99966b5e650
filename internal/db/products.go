package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, name, barcode, price_cents, pricing_mode, vat_bps, active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Barcode,
		&p.PriceCents,
		&p.PricingMode,
		&p.VatBps,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

const getProductByID = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

// GetProductByID loads one product by primary key.
func (q *Queries) GetProductByID(ctx context.Context, id pgtype.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductByID, id))
}

const getProductByBarcode = `SELECT ` + productColumns + ` FROM products WHERE barcode = $1 AND active`

// GetProductByBarcode resolves a scanned barcode to an active product.
func (q *Queries) GetProductByBarcode(ctx context.Context, barcode string) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductByBarcode, barcode))
}

const listProducts = `SELECT ` + productColumns + ` FROM products WHERE active ORDER BY name LIMIT $1 OFFSET $2`

// ListProducts returns a page of active products ordered by name.
func (q *Queries) ListProducts(ctx context.Context, limit, offset int32) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const countProducts = `SELECT count(*) FROM products WHERE active`

// CountProducts returns the number of active products.
func (q *Queries) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countProducts).Scan(&count)
	return count, err
}

// CreateProductParams carries the fields for inserting a product.
type CreateProductParams struct {
	Name        string
	Barcode     pgtype.Text
	PriceCents  int64
	PricingMode string
	VatBps      int32
}

const createProduct = `INSERT INTO products (name, barcode, price_cents, pricing_mode, vat_bps)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + productColumns

// CreateProduct inserts a catalog item.
func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, createProduct, arg.Name, arg.Barcode, arg.PriceCents, arg.PricingMode, arg.VatBps))
}

const updateProductPrice = `UPDATE products SET price_cents = $2, updated_at = now() WHERE id = $1`

// UpdateProductPrice sets a product's shelf price. This is the admin write
// path; cart price overrides never touch the catalog.
func (q *Queries) UpdateProductPrice(ctx context.Context, id pgtype.UUID, priceCents int64) error {
	_, err := q.db.Exec(ctx, updateProductPrice, id, priceCents)
	return err
}
