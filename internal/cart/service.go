package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/obs"
	"github.com/openkassa/backend-kassa/internal/pricing"
	"github.com/openkassa/backend-kassa/internal/promo"
)

// ErrNotFound indicates the requested cart or line could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrLineNotFound indicates the requested cart line does not exist.
var ErrLineNotFound = errors.New("cart line not found")

// ErrCartClosed is returned when mutating a cart that already checked out
// or expired.
var ErrCartClosed = errors.New("cart is not open")

// ErrProductNotFound indicates the product id or barcode being added does
// not exist in the catalog.
var ErrProductNotFound = errors.New("product not found")

// ErrProductInactive rejects adding a product that was deactivated.
var ErrProductInactive = errors.New("product is not active")

// StatusBuilding is the only status in which a cart accepts mutations.
const StatusBuilding = "building"

// Service encapsulates register cart operations. All amounts flow through the
// pricing engine; the service never does money arithmetic of its own.
type Service struct {
	Q      db.Querier
	Promos *promo.Service
	TTL    time.Duration
	Now    func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Open creates a fresh building cart for a register.
func (s *Service) Open(ctx context.Context, registerCode, cashierID string) (db.Cart, error) {
	var cashier pgtype.UUID
	if cashierID != "" {
		uid, err := db.ToUUID(cashierID)
		if err != nil {
			return db.Cart{}, fmt.Errorf("parse cashier id: %w", err)
		}
		cashier = uid
	}
	register := pgtype.Text{}
	if registerCode != "" {
		register = pgtype.Text{String: registerCode, Valid: true}
	}
	return s.Q.CreateCart(ctx, db.CreateCartParams{
		RegisterCode: register,
		CashierID:    cashier,
		ExpiresAt:    pgtype.Timestamptz{Time: s.now().Add(s.ttl()), Valid: true},
	})
}

// load fetches the cart and verifies it still accepts mutations.
func (s *Service) load(ctx context.Context, cartID string, mutating bool) (db.Cart, error) {
	uid, err := db.ToUUID(cartID)
	if err != nil {
		return db.Cart{}, fmt.Errorf("parse cart id: %w", err)
	}
	cart, err := s.Q.GetCartByID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Cart{}, ErrNotFound
		}
		return db.Cart{}, err
	}
	if mutating {
		if cart.Status != StatusBuilding {
			return db.Cart{}, ErrCartClosed
		}
		if cart.ExpiresAt.Valid && s.now().After(cart.ExpiresAt.Time) {
			return db.Cart{}, ErrCartClosed
		}
	}
	return cart, nil
}

// AddProduct adds qtyMilli of a product to the cart, merging with an existing
// line for the same product. The product's shelf price and VAT rate are
// captured on the line at add time.
func (s *Service) AddProduct(ctx context.Context, cartID, productID string, qtyMilli int64) (db.CartLine, error) {
	cart, err := s.load(ctx, cartID, true)
	if err != nil {
		return db.CartLine{}, err
	}
	pid, err := db.ToUUID(productID)
	if err != nil {
		return db.CartLine{}, fmt.Errorf("parse product id: %w", err)
	}
	product, err := s.Q.GetProductByID(ctx, pid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.CartLine{}, ErrProductNotFound
		}
		return db.CartLine{}, err
	}
	return s.addLine(ctx, cart, product, qtyMilli)
}

// AddBarcode is AddProduct keyed by a scanned barcode.
func (s *Service) AddBarcode(ctx context.Context, cartID, barcode string, qtyMilli int64) (db.CartLine, error) {
	cart, err := s.load(ctx, cartID, true)
	if err != nil {
		return db.CartLine{}, err
	}
	product, err := s.Q.GetProductByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.CartLine{}, ErrProductNotFound
		}
		return db.CartLine{}, err
	}
	return s.addLine(ctx, cart, product, qtyMilli)
}

func (s *Service) addLine(ctx context.Context, cart db.Cart, product db.Product, qtyMilli int64) (db.CartLine, error) {
	if !product.Active {
		return db.CartLine{}, ErrProductInactive
	}
	if err := validateQty(product.PricingMode, qtyMilli); err != nil {
		return db.CartLine{}, err
	}
	existing, err := s.Q.FindCartLineByProduct(ctx, db.FindCartLineByProductParams{
		CartID:    cart.ID,
		ProductID: product.ID,
	})
	switch {
	case err == nil:
		// price-overridden lines keep their override; only the quantity merges
		newQty := existing.QtyMilli + qtyMilli
		if err := validateQty(existing.PricingMode, newQty); err != nil {
			return db.CartLine{}, err
		}
		if err := s.Q.UpdateCartLineQty(ctx, existing.ID, newQty); err != nil {
			return db.CartLine{}, err
		}
		existing.QtyMilli = newQty
		s.touch(ctx, cart)
		return existing, nil
	case errors.Is(err, pgx.ErrNoRows):
		line, err := s.Q.CreateCartLine(ctx, db.CreateCartLineParams{
			CartID:         cart.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			QtyMilli:       qtyMilli,
			PricingMode:    product.PricingMode,
			VatBps:         product.VatBps,
		})
		if err != nil {
			return db.CartLine{}, err
		}
		s.touch(ctx, cart)
		return line, nil
	default:
		return db.CartLine{}, err
	}
}

// UpdateQty sets the quantity of an existing line.
func (s *Service) UpdateQty(ctx context.Context, cartID, lineID string, qtyMilli int64) error {
	cart, line, err := s.loadLine(ctx, cartID, lineID)
	if err != nil {
		return err
	}
	if err := validateQty(line.PricingMode, qtyMilli); err != nil {
		return err
	}
	if err := s.Q.UpdateCartLineQty(ctx, line.ID, qtyMilli); err != nil {
		return err
	}
	s.touch(ctx, cart)
	return nil
}

// SetLineDiscount attaches a discount to a line, or clears it when d is nil.
func (s *Service) SetLineDiscount(ctx context.Context, cartID, lineID string, d *pricing.Discount) error {
	cart, line, err := s.loadLine(ctx, cartID, lineID)
	if err != nil {
		return err
	}
	if d != nil {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	kind, value := discountColumns(d)
	if err := s.Q.SetCartLineDiscount(ctx, db.SetCartLineDiscountParams{ID: line.ID, Kind: kind, Value: value}); err != nil {
		return err
	}
	s.touch(ctx, cart)
	return nil
}

// OverrideLinePrice replaces the captured unit price on a line. Authorization
// is enforced at the transport layer; the override is flagged on the line for
// the audit trail.
func (s *Service) OverrideLinePrice(ctx context.Context, cartID, lineID string, unitPriceCents int64) error {
	if unitPriceCents <= 0 {
		return pricing.ErrInvalidDiscount
	}
	cart, line, err := s.loadLine(ctx, cartID, lineID)
	if err != nil {
		return err
	}
	if err := s.Q.OverrideCartLinePrice(ctx, line.ID, unitPriceCents); err != nil {
		return err
	}
	s.touch(ctx, cart)
	return nil
}

// RemoveLine deletes one line from the cart.
func (s *Service) RemoveLine(ctx context.Context, cartID, lineID string) error {
	cart, line, err := s.loadLine(ctx, cartID, lineID)
	if err != nil {
		return err
	}
	if err := s.Q.DeleteCartLine(ctx, db.DeleteCartLineParams{ID: line.ID, CartID: cart.ID}); err != nil {
		return err
	}
	s.touch(ctx, cart)
	return nil
}

// Clear removes every line and detaches discounts and promo from the cart.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	cart, err := s.load(ctx, cartID, true)
	if err != nil {
		return err
	}
	if err := s.Q.DeleteCartLines(ctx, cart.ID); err != nil {
		return err
	}
	if err := s.Q.SetCartOrderDiscount(ctx, db.SetCartOrderDiscountParams{ID: cart.ID}); err != nil {
		return err
	}
	if err := s.Q.SetCartPromoCode(ctx, cart.ID, pgtype.Text{}); err != nil {
		return err
	}
	s.touch(ctx, cart)
	return nil
}

// SetOrderDiscount attaches a cart-level discount, or clears it when d is nil.
func (s *Service) SetOrderDiscount(ctx context.Context, cartID string, d *pricing.Discount) error {
	cart, err := s.load(ctx, cartID, true)
	if err != nil {
		return err
	}
	if d != nil {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	kind, value := discountColumns(d)
	if err := s.Q.SetCartOrderDiscount(ctx, db.SetCartOrderDiscountParams{ID: cart.ID, Kind: kind, Value: value}); err != nil {
		return err
	}
	s.touch(ctx, cart)
	return nil
}

// ApplyPromo validates a promo code against the cart's current gross subtotal
// and stores it. Stacking is one promo per cart; applying a second code
// replaces the first.
func (s *Service) ApplyPromo(ctx context.Context, cartID, code string) error {
	cart, err := s.load(ctx, cartID, true)
	if err != nil {
		return err
	}
	view, err := s.view(ctx, cart)
	if err != nil {
		return err
	}
	var subtotal pricing.Money
	for _, line := range view.Lines {
		subtotal += line.Totals.Total
	}
	if _, err := s.Promos.Resolve(ctx, code, subtotal); err != nil {
		if obs.PromoApplicationsTotal != nil {
			obs.PromoApplicationsTotal.WithLabelValues("rejected").Inc()
		}
		return err
	}
	if err := s.Q.SetCartPromoCode(ctx, cart.ID, pgtype.Text{String: code, Valid: true}); err != nil {
		return err
	}
	if obs.PromoApplicationsTotal != nil {
		obs.PromoApplicationsTotal.WithLabelValues("accepted").Inc()
	}
	s.touch(ctx, cart)
	return nil
}

// RemovePromo detaches the promo code from the cart.
func (s *Service) RemovePromo(ctx context.Context, cartID string) error {
	cart, err := s.load(ctx, cartID, true)
	if err != nil {
		return err
	}
	if err := s.Q.SetCartPromoCode(ctx, cart.ID, pgtype.Text{}); err != nil {
		return err
	}
	s.touch(ctx, cart)
	return nil
}

// SetCustomer attaches a loyalty customer to the cart.
func (s *Service) SetCustomer(ctx context.Context, cartID, customerID string) error {
	cart, err := s.load(ctx, cartID, true)
	if err != nil {
		return err
	}
	var cid pgtype.UUID
	if customerID != "" {
		uid, err := db.ToUUID(customerID)
		if err != nil {
			return fmt.Errorf("parse customer id: %w", err)
		}
		if _, err := s.Q.GetCustomerByID(ctx, uid); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		cid = uid
	}
	if err := s.Q.SetCartCustomer(ctx, cart.ID, cid); err != nil {
		return err
	}
	s.touch(ctx, cart)
	return nil
}

// View returns the cart with each line priced and the aggregated summary.
// An empty cart has a nil summary.
func (s *Service) View(ctx context.Context, cartID string) (View, error) {
	cart, err := s.load(ctx, cartID, false)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, cart)
}

func (s *Service) view(ctx context.Context, cart db.Cart) (View, error) {
	rows, err := s.Q.ListCartLines(ctx, cart.ID)
	if err != nil {
		return View{}, err
	}
	v := View{
		ID:           db.UUIDString(cart.ID),
		Status:       cart.Status,
		RegisterCode: textPtr(cart.RegisterCode),
		PromoCode:    textPtr(cart.PromoCode),
		OrderDiscount: discountFromColumns(cart.OrderDiscountKind, cart.OrderDiscountValue),
	}
	if cart.CustomerID.Valid {
		id := db.UUIDString(cart.CustomerID)
		v.CustomerID = &id
	}
	if len(rows) == 0 {
		return v, nil
	}

	totals := make([]pricing.LineTotals, 0, len(rows))
	v.Lines = make([]LineView, 0, len(rows))
	for _, row := range rows {
		line := pricing.Line{
			UnitPrice: row.UnitPriceCents,
			Qty:       row.QtyMilli,
			Mode:      pricing.Mode(row.PricingMode),
			VATBps:    int64(row.VatBps),
			Discount:  discountFromColumns(row.DiscountKind, row.DiscountValue),
		}
		lt, err := pricing.PriceLine(line)
		if err != nil {
			return View{}, fmt.Errorf("price line %s: %w", db.UUIDString(row.ID), err)
		}
		totals = append(totals, lt)
		v.Lines = append(v.Lines, LineView{
			ID:              db.UUIDString(row.ID),
			ProductID:       db.UUIDString(row.ProductID),
			Name:            row.Name,
			UnitPriceCents:  row.UnitPriceCents,
			PriceOverridden: row.PriceOverridden,
			QtyMilli:        row.QtyMilli,
			PricingMode:     row.PricingMode,
			VATBps:          row.VatBps,
			Discount:        line.Discount,
			Totals:          lt,
		})
	}

	orderDiscount := discountFromColumns(cart.OrderDiscountKind, cart.OrderDiscountValue)
	var promoDiscount *pricing.Discount
	if cart.PromoCode.Valid {
		d, err := s.Promos.Resolve(ctx, cart.PromoCode.String, sumTotals(totals))
		if err == nil {
			promoDiscount = &d
		}
		// a promo that stopped qualifying silently contributes nothing;
		// checkout re-validates and strips it
	}
	summary, err := pricing.Aggregate(totals, orderDiscount, promoDiscount)
	if err != nil {
		return View{}, err
	}
	v.Summary = &summary
	return v, nil
}

func (s *Service) loadLine(ctx context.Context, cartID, lineID string) (db.Cart, db.CartLine, error) {
	cart, err := s.load(ctx, cartID, true)
	if err != nil {
		return db.Cart{}, db.CartLine{}, err
	}
	lid, err := db.ToUUID(lineID)
	if err != nil {
		return db.Cart{}, db.CartLine{}, fmt.Errorf("parse line id: %w", err)
	}
	line, err := s.Q.GetCartLineByID(ctx, lid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Cart{}, db.CartLine{}, ErrLineNotFound
		}
		return db.Cart{}, db.CartLine{}, err
	}
	if !db.UUIDEqual(line.CartID, cart.ID) {
		return db.Cart{}, db.CartLine{}, ErrLineNotFound
	}
	return cart, line, nil
}

func (s *Service) touch(ctx context.Context, cart db.Cart) {
	_ = s.Q.TouchCart(ctx, db.TouchCartParams{
		ID:        cart.ID,
		ExpiresAt: pgtype.Timestamptz{Time: s.now().Add(s.ttl()), Valid: true},
	})
}

func validateQty(mode string, qtyMilli int64) error {
	if qtyMilli <= 0 {
		return pricing.ErrInvalidQuantity
	}
	if mode != "weight" && qtyMilli%pricing.QuantityScale != 0 {
		return pricing.ErrInvalidQuantity
	}
	return nil
}

func sumTotals(totals []pricing.LineTotals) pricing.Money {
	var sum pricing.Money
	for _, lt := range totals {
		sum += lt.Total
	}
	return sum
}

func discountColumns(d *pricing.Discount) (pgtype.Text, pgtype.Int8) {
	if d == nil {
		return pgtype.Text{}, pgtype.Int8{}
	}
	return pgtype.Text{String: string(d.Kind), Valid: true}, pgtype.Int8{Int64: d.Value, Valid: true}
}

func discountFromColumns(kind pgtype.Text, value pgtype.Int8) *pricing.Discount {
	if !kind.Valid || !value.Valid {
		return nil
	}
	return &pricing.Discount{Kind: pricing.DiscountKind(kind.String), Value: value.Int64}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// LineView is one priced cart line as returned to the register UI.
type LineView struct {
	ID              string             `json:"id"`
	ProductID       string             `json:"productId"`
	Name            string             `json:"name"`
	UnitPriceCents  int64              `json:"unitPriceCents"`
	PriceOverridden bool               `json:"priceOverridden"`
	QtyMilli        int64              `json:"qtyMilli"`
	PricingMode     string             `json:"pricingMode"`
	VATBps          int32              `json:"vatBps"`
	Discount        *pricing.Discount  `json:"discount,omitempty"`
	Totals          pricing.LineTotals `json:"totals"`
}

// View is the full cart payload: lines with their totals plus the aggregate.
type View struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	RegisterCode  *string           `json:"registerCode,omitempty"`
	CustomerID    *string           `json:"customerId,omitempty"`
	PromoCode     *string           `json:"promoCode,omitempty"`
	OrderDiscount *pricing.Discount `json:"orderDiscount,omitempty"`
	Lines         []LineView        `json:"lines"`
	Summary       *pricing.Summary  `json:"summary,omitempty"`
}
