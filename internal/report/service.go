// Package report produces end-of-day register summaries. The figures come
// from finalized sale rows, so a report re-run always reproduces the same
// numbers for a closed day.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/openkassa/backend-kassa/internal/db"
)

type salesAggregator interface {
	DailySales(ctx context.Context, from, to pgtype.Timestamptz) ([]db.DailySalesRow, error)
	DailyVat(ctx context.Context, from, to pgtype.Timestamptz) ([]db.DailyVatRow, error)
}

// Service aggregates finalized sales into daily reports, caching closed
// days in redis.
type Service struct {
	Q        salesAggregator
	R        *redis.Client
	TTL      time.Duration
	Location *time.Location
	Now      func() time.Time
}

// TenderSummary is the aggregate for one payment method.
type TenderSummary struct {
	PaymentMethod     string `json:"paymentMethod"`
	SaleCount         int64  `json:"saleCount"`
	SubtotalCents     int64  `json:"subtotalCents"`
	VATCents          int64  `json:"vatCents"`
	DiscountCents     int64  `json:"discountCents"`
	TotalCents        int64  `json:"totalCents"`
	RoundingDiffCents int64  `json:"roundingDiffCents"`
	RedeemedCents     int64  `json:"redeemedCents"`
}

// VATSummary is the aggregate for one VAT rate.
type VATSummary struct {
	Rate     string `json:"rate"`
	NetCents int64  `json:"netCents"`
	VATCents int64  `json:"vatCents"`
}

// Daily is the end-of-day report for one business day.
type Daily struct {
	Date              string          `json:"date"`
	SaleCount         int64           `json:"saleCount"`
	TotalCents        int64           `json:"totalCents"`
	RoundingDiffCents int64           `json:"roundingDiffCents"`
	Tenders           []TenderSummary `json:"tenders"`
	VATBreakdown      []VATSummary    `json:"vatBreakdown"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}

// DailyReport builds the report for the business day containing date.
func (s *Service) DailyReport(ctx context.Context, date time.Time) (Daily, error) {
	loc := s.location()
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	from := pgtype.Timestamptz{Time: day, Valid: true}
	to := pgtype.Timestamptz{Time: day.AddDate(0, 0, 1), Valid: true}

	key := "kassa:report:daily:" + day.Format("2006-01-02")
	closed := day.AddDate(0, 0, 1).Before(s.now())
	if closed {
		if cached, ok := s.fromCache(ctx, key); ok {
			return cached, nil
		}
	}

	tenders, err := s.Q.DailySales(ctx, from, to)
	if err != nil {
		return Daily{}, fmt.Errorf("aggregate daily sales: %w", err)
	}
	vat, err := s.Q.DailyVat(ctx, from, to)
	if err != nil {
		return Daily{}, fmt.Errorf("aggregate daily vat: %w", err)
	}

	report := Daily{
		Date:         day.Format("2006-01-02"),
		Tenders:      make([]TenderSummary, 0, len(tenders)),
		VATBreakdown: make([]VATSummary, 0, len(vat)),
	}
	for _, row := range tenders {
		report.SaleCount += row.SaleCount
		report.TotalCents += row.TotalCents
		report.RoundingDiffCents += row.RoundingDiffCents
		report.Tenders = append(report.Tenders, TenderSummary{
			PaymentMethod:     row.PaymentMethod,
			SaleCount:         row.SaleCount,
			SubtotalCents:     row.SubtotalCents,
			VATCents:          row.VatCents,
			DiscountCents:     row.DiscountCents,
			TotalCents:        row.TotalCents,
			RoundingDiffCents: row.RoundingDiffCents,
			RedeemedCents:     row.RedeemedCents,
		})
	}
	for _, row := range vat {
		report.VATBreakdown = append(report.VATBreakdown, VATSummary{
			Rate:     decimal.New(int64(row.VatBps), -2).StringFixed(2) + "%",
			NetCents: row.NetCents,
			VATCents: row.VatCents,
		})
	}

	if closed {
		s.store(ctx, key, report)
	}
	return report, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (Daily, bool) {
	if s.R == nil {
		return Daily{}, false
	}
	raw, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return Daily{}, false
	}
	var report Daily
	if err := json.Unmarshal(raw, &report); err != nil {
		return Daily{}, false
	}
	return report, true
}

func (s *Service) store(ctx context.Context, key string, report Daily) {
	if s.R == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	_ = s.R.Set(ctx, key, raw, ttl).Err()
}
