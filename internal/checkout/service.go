package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openkassa/backend-kassa/internal/cart"
	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
	"github.com/openkassa/backend-kassa/internal/loyalty"
	"github.com/openkassa/backend-kassa/internal/obs"
	"github.com/openkassa/backend-kassa/internal/pricing"
	"github.com/openkassa/backend-kassa/internal/promo"
	"github.com/openkassa/backend-kassa/internal/settlement"
)

// ErrTenderRequired is returned for cash payments without a tendered amount.
var ErrTenderRequired = errors.New("tendered amount is required for cash payment")

// ErrUnknownPayment rejects payment methods the register does not support.
var ErrUnknownPayment = errors.New("unknown payment method")

// Payment methods accepted at the register. Cash settles on the 5-cent grid;
// the others settle exactly.
const (
	PayCash   = "cash"
	PayCard   = "card"
	PayMobile = "mobile"
)

// Input is the checkout request.
type Input struct {
	CartID        string `json:"cartId" validate:"required,uuid"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash card mobile"`
	TenderedCents *int64 `json:"tenderedCents" validate:"omitempty,gt=0"`
	RedeemPoints  int64  `json:"redeemPoints" validate:"gte=0"`
	Invoice       bool   `json:"invoice"`
}

// Output summarises the finalized sale for the register display.
type Output struct {
	SaleID            string `json:"saleId"`
	SaleNumber        int64  `json:"saleNumber"`
	SubtotalCents     int64  `json:"subtotalCents"`
	VatCents          int64  `json:"vatCents"`
	DiscountCents     int64  `json:"discountCents"`
	TotalCents        int64  `json:"totalCents"`
	RedeemedPoints    int64  `json:"redeemedPoints"`
	RedeemedCents     int64  `json:"redeemedCents"`
	DueCents          int64  `json:"dueCents"`
	RoundedDueCents   *int64 `json:"roundedDueCents,omitempty"`
	RoundingDiffCents *int64 `json:"roundingDiffCents,omitempty"`
	TenderedCents     *int64 `json:"tenderedCents,omitempty"`
	ChangeCents       *int64 `json:"changeCents,omitempty"`
	PointsEarned      int64  `json:"pointsEarned"`
}

// Service finalizes carts into immutable sale records.
type Service struct {
	Store   db.Store
	Promos  *promo.Service
	Loyalty loyalty.Config
	Bus     *events.Bus
	Now     func() time.Time

	// NoCashRounding disables the 5-cent cash grid; cash then settles exact.
	NoCashRounding bool
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create turns a building cart into a sale inside one transaction. Amounts
// are computed once and baked into the sale row; the cart is closed and the
// promo usage bumped atomically with it.
func (s *Service) Create(ctx context.Context, cashierID string, in Input) (Output, error) {
	if s == nil || s.Store == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	switch in.PaymentMethod {
	case PayCash, PayCard, PayMobile:
	default:
		return Output{}, ErrUnknownPayment
	}
	if in.PaymentMethod == PayCash && in.TenderedCents == nil {
		return Output{}, ErrTenderRequired
	}
	cartID, err := db.ToUUID(in.CartID)
	if err != nil {
		return Output{}, fmt.Errorf("parse cart id: %w", err)
	}

	var (
		out        Output
		sale       db.Sale
		customerID string
	)
	txErr := s.Store.ExecTx(ctx, func(q db.Querier) error {
		cartRow, err := q.GetCartByID(ctx, cartID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return cart.ErrNotFound
			}
			return err
		}
		if cartRow.Status != cart.StatusBuilding {
			return cart.ErrCartClosed
		}
		lines, err := q.ListCartLines(ctx, cartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return pricing.ErrEmptyCart
		}

		totals := make([]pricing.LineTotals, 0, len(lines))
		for _, row := range lines {
			lt, err := pricing.PriceLine(pricing.Line{
				UnitPrice: row.UnitPriceCents,
				Qty:       row.QtyMilli,
				Mode:      pricing.Mode(row.PricingMode),
				VATBps:    int64(row.VatBps),
				Discount:  lineDiscount(row),
			})
			if err != nil {
				return fmt.Errorf("price line %s: %w", db.UUIDString(row.ID), err)
			}
			totals = append(totals, lt)
		}

		orderDiscount := cartDiscount(cartRow)
		var gross pricing.Money
		for _, lt := range totals {
			gross += lt.Total
		}
		var promoDiscount *pricing.Discount
		promoUsed := ""
		if cartRow.PromoCode.Valid {
			d, err := s.Promos.Resolve(ctx, cartRow.PromoCode.String, gross)
			if err == nil {
				promoDiscount = &d
				promoUsed = cartRow.PromoCode.String
			}
			// a code that stopped qualifying since it was applied is
			// dropped from the sale rather than failing the checkout
		}
		summary, err := pricing.Aggregate(totals, orderDiscount, promoDiscount)
		if err != nil {
			return err
		}

		// loyalty redemption
		var redemption loyalty.Redemption
		if in.RedeemPoints > 0 {
			if !cartRow.CustomerID.Valid {
				return loyalty.ErrInvalidRedemption
			}
			balance, err := q.GetCustomerPoints(ctx, cartRow.CustomerID)
			if err != nil {
				return err
			}
			redemption, err = loyalty.Redeem(s.Loyalty, in.RedeemPoints, balance, summary.Total)
			if err != nil {
				return err
			}
			if _, err := q.AdjustCustomerPoints(ctx, db.AdjustCustomerPointsParams{
				ID:    cartRow.CustomerID,
				Delta: -redemption.Points,
			}); err != nil {
				return err
			}
		}
		due := summary.Total - redemption.Discount

		// settlement
		var (
			roundedDue pgtype.Int8
			roundDiff  pgtype.Int8
			tendered   pgtype.Int8
			change     pgtype.Int8
			paidBase   = due
		)
		if in.PaymentMethod == PayCash {
			st := settlement.RoundForCash(due)
			if s.NoCashRounding {
				st = settlement.Settlement{Original: due, Rounded: due}
			}
			ch, err := settlement.Change(st.Rounded, *in.TenderedCents)
			if err != nil {
				return err
			}
			roundedDue = pgtype.Int8{Int64: st.Rounded, Valid: true}
			roundDiff = pgtype.Int8{Int64: st.Difference, Valid: true}
			tendered = pgtype.Int8{Int64: *in.TenderedCents, Valid: true}
			change = pgtype.Int8{Int64: ch, Valid: true}
			paidBase = st.Rounded
		}

		// points accrue on what was actually paid
		pointsEarned := int64(0)
		if cartRow.CustomerID.Valid {
			pointsEarned = loyalty.PointsEarned(s.Loyalty, paidBase)
		}

		sale, err = q.CreateSale(ctx, db.CreateSaleParams{
			CartID:            cartRow.ID,
			CashierID:         cartRow.CashierID,
			CustomerID:        cartRow.CustomerID,
			SubtotalCents:     summary.Subtotal,
			VatCents:          summary.TotalVAT,
			DiscountCents:     summary.TotalDiscount,
			TotalCents:        summary.Total,
			PaymentMethod:     in.PaymentMethod,
			RoundedTotalCents: roundedDue,
			RoundingDiffCents: roundDiff,
			TenderedCents:     tendered,
			ChangeCents:       change,
			RedeemedPoints:    redemption.Points,
			RedeemedCents:     redemption.Discount,
			PointsEarned:      pointsEarned,
			Invoice:           in.Invoice,
		})
		if err != nil {
			return err
		}
		for i, row := range lines {
			lt := totals[i]
			if _, err := q.CreateSaleLine(ctx, db.CreateSaleLineParams{
				SaleID:         sale.ID,
				ProductID:      row.ProductID,
				Name:           row.Name,
				UnitPriceCents: row.UnitPriceCents,
				QtyMilli:       row.QtyMilli,
				PricingMode:    row.PricingMode,
				VatBps:         row.VatBps,
				DiscountKind:   row.DiscountKind,
				DiscountValue:  row.DiscountValue,
				DiscountCents:  lt.DiscountAmount,
				SubtotalCents:  lt.Subtotal,
				VatAmountCents: lt.VATAmount,
				TotalCents:     lt.Total,
			}); err != nil {
				return err
			}
		}
		if err := q.UpdateCartStatus(ctx, cartRow.ID, "checked_out"); err != nil {
			return err
		}
		if promoUsed != "" {
			if err := q.IncrementPromoUsage(ctx, promoUsed); err != nil {
				return err
			}
		}
		var actor pgtype.UUID
		if cashierID != "" {
			if uid, err := db.ToUUID(cashierID); err == nil {
				actor = uid
			}
		}
		if _, err := q.InsertAuditLog(ctx, db.InsertAuditLogParams{
			Entity:   "sale",
			EntityID: sale.ID,
			Action:   "created",
			ActorID:  actor,
			Details: toJSON(map[string]any{
				"paymentMethod": in.PaymentMethod,
				"totalCents":    summary.Total,
				"redeemedPts":   redemption.Points,
			}),
		}); err != nil {
			return err
		}

		if cartRow.CustomerID.Valid {
			customerID = db.UUIDString(cartRow.CustomerID)
		}
		out = Output{
			SaleID:         db.UUIDString(sale.ID),
			SaleNumber:     sale.SaleNumber,
			SubtotalCents:  summary.Subtotal,
			VatCents:       summary.TotalVAT,
			DiscountCents:  summary.TotalDiscount,
			TotalCents:     summary.Total,
			RedeemedPoints: redemption.Points,
			RedeemedCents:  redemption.Discount,
			DueCents:       due,
			PointsEarned:   pointsEarned,
		}
		if roundedDue.Valid {
			out.RoundedDueCents = &roundedDue.Int64
			out.RoundingDiffCents = &roundDiff.Int64
			out.TenderedCents = &tendered.Int64
			out.ChangeCents = &change.Int64
		}
		return nil
	})
	if txErr != nil {
		return Output{}, txErr
	}

	s.recordMetrics(in.PaymentMethod, out)
	if s.Bus != nil {
		payload := map[string]any{
			"saleId":         out.SaleID,
			"saleNumber":     out.SaleNumber,
			"cashierId":      cashierID,
			"customerId":     customerID,
			"totalCents":     out.TotalCents,
			"pointsEarned":   out.PointsEarned,
			"pointsRedeemed": out.RedeemedPoints,
		}
		_, _ = s.Bus.Emit(ctx, events.TopicSaleCompleted, sale.ID, payload)
	}
	return out, nil
}

func (s *Service) recordMetrics(method string, out Output) {
	if obs.SalesCompletedTotal != nil {
		obs.SalesCompletedTotal.WithLabelValues(method).Inc()
	}
	if obs.SaleAmountCents != nil {
		obs.SaleAmountCents.Observe(float64(out.TotalCents))
	}
	if out.RoundingDiffCents != nil {
		obs.ObserveCashRounding(*out.RoundingDiffCents)
	}
	if out.RedeemedPoints > 0 && obs.LoyaltyPointsRedeemedTotal != nil {
		obs.LoyaltyPointsRedeemedTotal.Add(float64(out.RedeemedPoints))
	}
}

func lineDiscount(row db.CartLine) *pricing.Discount {
	if !row.DiscountKind.Valid || !row.DiscountValue.Valid {
		return nil
	}
	return &pricing.Discount{Kind: pricing.DiscountKind(row.DiscountKind.String), Value: row.DiscountValue.Int64}
}

func cartDiscount(row db.Cart) *pricing.Discount {
	if !row.OrderDiscountKind.Valid || !row.OrderDiscountValue.Valid {
		return nil
	}
	return &pricing.Discount{Kind: pricing.DiscountKind(row.OrderDiscountKind.String), Value: row.OrderDiscountValue.Int64}
}

// marshal helper kept close to the payload construction above.
func toJSON(v any) []byte {
	if v == nil {
		return nil
	}
	b, _ := json.Marshal(v)
	return b
}
