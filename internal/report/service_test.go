package report

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkassa/backend-kassa/internal/db"
)

type fakeAggregator struct {
	sales []db.DailySalesRow
	vat   []db.DailyVatRow
	calls int
}

func (f *fakeAggregator) DailySales(_ context.Context, _, _ pgtype.Timestamptz) ([]db.DailySalesRow, error) {
	f.calls++
	return f.sales, nil
}

func (f *fakeAggregator) DailyVat(_ context.Context, _, _ pgtype.Timestamptz) ([]db.DailyVatRow, error) {
	return f.vat, nil
}

func TestDailyReportAggregatesTenders(t *testing.T) {
	agg := &fakeAggregator{
		sales: []db.DailySalesRow{
			{PaymentMethod: "card", SaleCount: 3, SubtotalCents: 8264, VatCents: 1736, TotalCents: 10000},
			{PaymentMethod: "cash", SaleCount: 2, SubtotalCents: 2054, VatCents: 432, TotalCents: 2486, RoundingDiffCents: 4},
		},
		vat: []db.DailyVatRow{
			{VatBps: 600, VatCents: 120, NetCents: 2000},
			{VatBps: 2100, VatCents: 2048, NetCents: 8318},
		},
	}
	svc := &Service{Q: agg, Location: time.UTC, Now: func() time.Time {
		return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	}}

	report, err := svc.DailyReport(context.Background(), time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01", report.Date)
	assert.Equal(t, int64(5), report.SaleCount)
	assert.Equal(t, int64(12486), report.TotalCents)
	assert.Equal(t, int64(4), report.RoundingDiffCents)
	require.Len(t, report.VATBreakdown, 2)
	assert.Equal(t, "6.00%", report.VATBreakdown[0].Rate)
	assert.Equal(t, "21.00%", report.VATBreakdown[1].Rate)
}

func TestDailyReportCachesClosedDays(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	agg := &fakeAggregator{
		sales: []db.DailySalesRow{{PaymentMethod: "card", SaleCount: 1, TotalCents: 500}},
	}
	svc := &Service{Q: agg, R: client, Location: time.UTC, Now: func() time.Time {
		return time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	}}
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.DailyReport(context.Background(), day)
	require.NoError(t, err)
	second, err := svc.DailyReport(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, agg.calls)
}

func TestDailyReportNeverCachesOpenDay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agg := &fakeAggregator{}
	svc := &Service{Q: agg, R: client, Location: time.UTC, Now: func() time.Time { return now }}

	_, err := svc.DailyReport(context.Background(), now)
	require.NoError(t, err)
	_, err = svc.DailyReport(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 2, agg.calls)
}
