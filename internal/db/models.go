package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Product is a sellable catalog item. Prices are VAT-inclusive euro cents.
type Product struct {
	ID          pgtype.UUID
	Name        string
	Barcode     pgtype.Text
	PriceCents  int64
	PricingMode string
	VatBps      int32
	Active      bool
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// Cart is an in-progress sale being built at a register.
type Cart struct {
	ID                 pgtype.UUID
	RegisterCode       pgtype.Text
	CashierID          pgtype.UUID
	CustomerID         pgtype.UUID
	OrderDiscountKind  pgtype.Text
	OrderDiscountValue pgtype.Int8
	PromoCode          pgtype.Text
	Status             string
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
	ExpiresAt          pgtype.Timestamptz
}

// CartLine is one product-quantity-discount entry of a cart. Quantities are
// thousandths of the product's unit.
type CartLine struct {
	ID              pgtype.UUID
	CartID          pgtype.UUID
	ProductID       pgtype.UUID
	Name            string
	UnitPriceCents  int64
	PriceOverridden bool
	QtyMilli        int64
	PricingMode     string
	VatBps          int32
	DiscountKind    pgtype.Text
	DiscountValue   pgtype.Int8
	CreatedAt       pgtype.Timestamptz
}

// PromoCode is an order-level discount resolvable by code.
type PromoCode struct {
	Code          string
	Kind          string
	Value         int64
	MinSpendCents int64
	UsageLimit    pgtype.Int4
	UsedCount     int32
	ValidFrom     pgtype.Timestamptz
	ValidTo       pgtype.Timestamptz
	Active        bool
	CreatedAt     pgtype.Timestamptz
}

// Customer carries the loyalty balance next to its identity.
type Customer struct {
	ID        pgtype.UUID
	Name      string
	Email     pgtype.Text
	Points    int64
	CreatedAt pgtype.Timestamptz
}

// Sale is the immutable record written at checkout. Cancellation is a flag,
// never an edit of the captured amounts.
type Sale struct {
	ID                pgtype.UUID
	SaleNumber        int64
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
	Cancelled         bool
	CancelledAt       pgtype.Timestamptz
	CreatedAt         pgtype.Timestamptz
}

// SaleLine is a finalized line item with its discount baked in.
type SaleLine struct {
	ID             pgtype.UUID
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

// Cashier is a register operator. The PIN is stored as an argon2id hash.
type Cashier struct {
	ID        pgtype.UUID
	Code      string
	Name      string
	PinHash   string
	Role      string
	Active    bool
	CreatedAt pgtype.Timestamptz
}

// AuditLog is an append-only trail entry for legally relevant mutations.
type AuditLog struct {
	ID        pgtype.UUID
	Entity    string
	EntityID  pgtype.UUID
	Action    string
	ActorID   pgtype.UUID
	Details   []byte
	CreatedAt pgtype.Timestamptz
}

// DomainEvent is an outbox row fanned out to notifiers after commit.
type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}
