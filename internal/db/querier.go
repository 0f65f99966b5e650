package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the full query surface. Services depend on this interface so
// tests can substitute fakes; *Queries is the canonical implementation.
type Querier interface {
	// products
	GetProductByID(ctx context.Context, id pgtype.UUID) (Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (Product, error)
	ListProducts(ctx context.Context, limit, offset int32) ([]Product, error)
	CountProducts(ctx context.Context) (int64, error)
	CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error)
	UpdateProductPrice(ctx context.Context, id pgtype.UUID, priceCents int64) error

	// carts
	CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error)
	GetCartByID(ctx context.Context, id pgtype.UUID) (Cart, error)
	TouchCart(ctx context.Context, arg TouchCartParams) error
	UpdateCartStatus(ctx context.Context, id pgtype.UUID, status string) error
	SetCartCustomer(ctx context.Context, id pgtype.UUID, customerID pgtype.UUID) error
	SetCartOrderDiscount(ctx context.Context, arg SetCartOrderDiscountParams) error
	SetCartPromoCode(ctx context.Context, id pgtype.UUID, code pgtype.Text) error
	CreateCartLine(ctx context.Context, arg CreateCartLineParams) (CartLine, error)
	GetCartLineByID(ctx context.Context, id pgtype.UUID) (CartLine, error)
	FindCartLineByProduct(ctx context.Context, arg FindCartLineByProductParams) (CartLine, error)
	ListCartLines(ctx context.Context, cartID pgtype.UUID) ([]CartLine, error)
	UpdateCartLineQty(ctx context.Context, id pgtype.UUID, qtyMilli int64) error
	SetCartLineDiscount(ctx context.Context, arg SetCartLineDiscountParams) error
	OverrideCartLinePrice(ctx context.Context, id pgtype.UUID, unitPriceCents int64) error
	DeleteCartLine(ctx context.Context, arg DeleteCartLineParams) error
	DeleteCartLines(ctx context.Context, cartID pgtype.UUID) error

	// promo codes
	GetPromoCode(ctx context.Context, code string) (PromoCode, error)
	CreatePromoCode(ctx context.Context, arg CreatePromoCodeParams) (PromoCode, error)
	UpdatePromoCode(ctx context.Context, arg UpdatePromoCodeParams) (PromoCode, error)
	ListPromoCodes(ctx context.Context, limit, offset int32) ([]PromoCode, error)
	IncrementPromoUsage(ctx context.Context, code string) error

	// customers
	GetCustomerByID(ctx context.Context, id pgtype.UUID) (Customer, error)
	CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error)
	ListCustomers(ctx context.Context, limit, offset int32) ([]Customer, error)
	GetCustomerPoints(ctx context.Context, id pgtype.UUID) (int64, error)
	AdjustCustomerPoints(ctx context.Context, arg AdjustCustomerPointsParams) (int64, error)

	// sales
	CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error)
	CreateSaleLine(ctx context.Context, arg CreateSaleLineParams) (SaleLine, error)
	GetSaleByID(ctx context.Context, id pgtype.UUID) (Sale, error)
	ListSales(ctx context.Context, limit, offset int32) ([]Sale, error)
	CountSales(ctx context.Context) (int64, error)
	ListSaleLines(ctx context.Context, saleID pgtype.UUID) ([]SaleLine, error)
	CancelSale(ctx context.Context, id pgtype.UUID) (Sale, error)
	DailySales(ctx context.Context, from, to pgtype.Timestamptz) ([]DailySalesRow, error)
	DailyVat(ctx context.Context, from, to pgtype.Timestamptz) ([]DailyVatRow, error)

	// cashiers
	GetCashierByCode(ctx context.Context, code string) (Cashier, error)
	GetCashierByID(ctx context.Context, id pgtype.UUID) (Cashier, error)
	CreateCashier(ctx context.Context, arg CreateCashierParams) (Cashier, error)

	// outbox + audit
	InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error)
	InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error)
	ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error)
}

var _ Querier = (*Queries)(nil)
