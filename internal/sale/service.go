package sale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
	"github.com/openkassa/backend-kassa/internal/obs"
	"github.com/openkassa/backend-kassa/internal/receipt"
)

// ErrNotFound indicates the sale does not exist.
var ErrNotFound = errors.New("sale not found")

// ErrAlreadyCancelled indicates the sale was cancelled before.
var ErrAlreadyCancelled = errors.New("sale already cancelled")

// Service reads and cancels finalized sales. Sale rows are append-only:
// cancellation sets a flag and writes an audit entry, the captured amounts
// are never edited.
type Service struct {
	Store db.Store
	Bus   *events.Bus

	// Currency overrides the receipt currency label; empty keeps EUR.
	Currency string
}

// Record is the API payload for a sale.
type Record struct {
	ID                string  `json:"id"`
	SaleNumber        int64   `json:"saleNumber"`
	CashierID         *string `json:"cashierId,omitempty"`
	CustomerID        *string `json:"customerId,omitempty"`
	SubtotalCents     int64   `json:"subtotalCents"`
	VatCents          int64   `json:"vatCents"`
	DiscountCents     int64   `json:"discountCents"`
	TotalCents        int64   `json:"totalCents"`
	PaymentMethod     string  `json:"paymentMethod"`
	RoundedTotalCents *int64  `json:"roundedTotalCents,omitempty"`
	RoundingDiffCents *int64  `json:"roundingDiffCents,omitempty"`
	RedeemedPoints    int64   `json:"redeemedPoints"`
	RedeemedCents     int64   `json:"redeemedCents"`
	PointsEarned      int64   `json:"pointsEarned"`
	Invoice           bool    `json:"invoice"`
	Cancelled         bool    `json:"cancelled"`
}

// Get returns one sale.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return Record{}, err
	}
	return toRecord(row), nil
}

// List returns a sales page, newest first, with the overall count.
func (s *Service) List(ctx context.Context, page, limit int) ([]Record, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	total, err := s.Store.CountSales(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}
	rows, err := s.Store.ListSales(ctx, int32(limit), int32((page-1)*limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	items := make([]Record, 0, len(rows))
	for _, row := range rows {
		items = append(items, toRecord(row))
	}
	return items, total, nil
}

// Receipt builds the printable receipt document for a sale.
func (s *Service) Receipt(ctx context.Context, id string) (receipt.Document, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return receipt.Document{}, err
	}
	lines, err := s.Store.ListSaleLines(ctx, row.ID)
	if err != nil {
		return receipt.Document{}, fmt.Errorf("list sale lines: %w", err)
	}
	doc := receipt.Build(row, lines)
	if s.Currency != "" {
		doc.Currency = s.Currency
	}
	return doc, nil
}

// Cancel flips the cancelled flag and records the actor in the audit trail.
// The loyalty effects are reversed asynchronously via the emitted event.
func (s *Service) Cancel(ctx context.Context, id, actorID, reason string) (Record, error) {
	uid, err := db.ToUUID(id)
	if err != nil {
		return Record{}, fmt.Errorf("parse sale id: %w", err)
	}
	var cancelled db.Sale
	txErr := s.Store.ExecTx(ctx, func(q db.Querier) error {
		cancelled, err = q.CancelSale(ctx, uid)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			if _, getErr := q.GetSaleByID(ctx, uid); getErr != nil {
				if errors.Is(getErr, pgx.ErrNoRows) {
					return ErrNotFound
				}
				return getErr
			}
			return ErrAlreadyCancelled
		}
		var actor pgtype.UUID
		if actorID != "" {
			if parsed, perr := db.ToUUID(actorID); perr == nil {
				actor = parsed
			}
		}
		details, _ := json.Marshal(map[string]any{"reason": reason})
		_, err = q.InsertAuditLog(ctx, db.InsertAuditLogParams{
			Entity:   "sale",
			EntityID: cancelled.ID,
			Action:   "cancelled",
			ActorID:  actor,
			Details:  details,
		})
		return err
	})
	if txErr != nil {
		return Record{}, txErr
	}

	if obs.SalesCancelledTotal != nil {
		obs.SalesCancelledTotal.Inc()
	}
	if s.Bus != nil {
		customerID := ""
		if cancelled.CustomerID.Valid {
			customerID = db.UUIDString(cancelled.CustomerID)
		}
		_, _ = s.Bus.Emit(ctx, events.TopicSaleCancelled, cancelled.ID, map[string]any{
			"saleId":         db.UUIDString(cancelled.ID),
			"customerId":     customerID,
			"pointsEarned":   cancelled.PointsEarned,
			"pointsRedeemed": cancelled.RedeemedPoints,
			"reason":         reason,
		})
	}
	return toRecord(cancelled), nil
}

func (s *Service) find(ctx context.Context, id string) (db.Sale, error) {
	uid, err := db.ToUUID(id)
	if err != nil {
		return db.Sale{}, fmt.Errorf("parse sale id: %w", err)
	}
	row, err := s.Store.GetSaleByID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Sale{}, ErrNotFound
		}
		return db.Sale{}, err
	}
	return row, nil
}

func toRecord(row db.Sale) Record {
	r := Record{
		ID:             db.UUIDString(row.ID),
		SaleNumber:     row.SaleNumber,
		SubtotalCents:  row.SubtotalCents,
		VatCents:       row.VatCents,
		DiscountCents:  row.DiscountCents,
		TotalCents:     row.TotalCents,
		PaymentMethod:  row.PaymentMethod,
		RedeemedPoints: row.RedeemedPoints,
		RedeemedCents:  row.RedeemedCents,
		PointsEarned:   row.PointsEarned,
		Invoice:        row.Invoice,
		Cancelled:      row.Cancelled,
	}
	if row.CashierID.Valid {
		id := db.UUIDString(row.CashierID)
		r.CashierID = &id
	}
	if row.CustomerID.Valid {
		id := db.UUIDString(row.CustomerID)
		r.CustomerID = &id
	}
	if row.RoundedTotalCents.Valid {
		v := row.RoundedTotalCents.Int64
		r.RoundedTotalCents = &v
	}
	if row.RoundingDiffCents.Valid {
		v := row.RoundingDiffCents.Int64
		r.RoundingDiffCents = &v
	}
	return r
}
