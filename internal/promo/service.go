package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/pricing"
)

type queryProvider interface {
	GetPromoCode(ctx context.Context, code string) (db.PromoCode, error)
	CreatePromoCode(ctx context.Context, arg db.CreatePromoCodeParams) (db.PromoCode, error)
	UpdatePromoCode(ctx context.Context, arg db.UpdatePromoCodeParams) (db.PromoCode, error)
	ListPromoCodes(ctx context.Context, limit, offset int32) ([]db.PromoCode, error)
}

// Service resolves promo codes against their rules and manages definitions.
type Service struct {
	Q   queryProvider
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Resolve loads a promo code and evaluates its rules against the subtotal.
func (s *Service) Resolve(ctx context.Context, code string, subtotal pricing.Money) (pricing.Discount, error) {
	pc, err := s.Q.GetPromoCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Discount{}, ErrNotFound
		}
		return pricing.Discount{}, fmt.Errorf("get promo code: %w", err)
	}
	return Evaluate(pc, s.now(), subtotal)
}

// Definition is the admin payload for promo codes.
type Definition struct {
	Code          string     `json:"code" validate:"required,min=2,max=32"`
	Kind          string     `json:"kind" validate:"required,oneof=percent fixed"`
	Value         int64      `json:"value" validate:"required,gt=0"`
	MinSpendCents int64      `json:"minSpendCents" validate:"gte=0"`
	UsageLimit    *int32     `json:"usageLimit" validate:"omitempty,gt=0"`
	ValidFrom     *time.Time `json:"validFrom"`
	ValidTo       *time.Time `json:"validTo"`
	Active        bool       `json:"active"`
	UsedCount     int32      `json:"usedCount"`
}

// Create stores a new promo code definition.
func (s *Service) Create(ctx context.Context, input Definition) (Definition, error) {
	pc, err := s.Q.CreatePromoCode(ctx, db.CreatePromoCodeParams{
		Code:          input.Code,
		Kind:          input.Kind,
		Value:         input.Value,
		MinSpendCents: input.MinSpendCents,
		UsageLimit:    toInt4(input.UsageLimit),
		ValidFrom:     toTimestamptz(input.ValidFrom),
		ValidTo:       toTimestamptz(input.ValidTo),
	})
	if err != nil {
		return Definition{}, fmt.Errorf("create promo code: %w", err)
	}
	return toDefinition(pc), nil
}

// Update replaces an existing definition.
func (s *Service) Update(ctx context.Context, input Definition) (Definition, error) {
	pc, err := s.Q.UpdatePromoCode(ctx, db.UpdatePromoCodeParams{
		Code:          input.Code,
		Kind:          input.Kind,
		Value:         input.Value,
		MinSpendCents: input.MinSpendCents,
		UsageLimit:    toInt4(input.UsageLimit),
		ValidFrom:     toTimestamptz(input.ValidFrom),
		ValidTo:       toTimestamptz(input.ValidTo),
		Active:        input.Active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Definition{}, ErrNotFound
		}
		return Definition{}, fmt.Errorf("update promo code: %w", err)
	}
	return toDefinition(pc), nil
}

// List returns a page of promo code definitions.
func (s *Service) List(ctx context.Context, page, limit int) ([]Definition, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.Q.ListPromoCodes(ctx, int32(limit), int32((page-1)*limit))
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	items := make([]Definition, 0, len(rows))
	for _, pc := range rows {
		items = append(items, toDefinition(pc))
	}
	return items, nil
}

func toDefinition(pc db.PromoCode) Definition {
	d := Definition{
		Code:          pc.Code,
		Kind:          pc.Kind,
		Value:         pc.Value,
		MinSpendCents: pc.MinSpendCents,
		Active:        pc.Active,
		UsedCount:     pc.UsedCount,
	}
	if pc.UsageLimit.Valid {
		limit := pc.UsageLimit.Int32
		d.UsageLimit = &limit
	}
	if pc.ValidFrom.Valid {
		from := pc.ValidFrom.Time
		d.ValidFrom = &from
	}
	if pc.ValidTo.Valid {
		to := pc.ValidTo.Time
		d.ValidTo = &to
	}
	return d
}

func toInt4(v *int32) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: *v, Valid: true}
}

func toTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
