package sale

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
)

type fakeStore struct {
	db.Querier

	sales  map[string]db.Sale
	lines  map[string][]db.SaleLine
	order  []string
	audits []db.InsertAuditLogParams
	events []db.InsertDomainEventParams
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sales: map[string]db.Sale{},
		lines: map[string][]db.SaleLine{},
	}
}

func (f *fakeStore) ExecTx(_ context.Context, fn func(db.Querier) error) error {
	return fn(f)
}

func (f *fakeStore) GetSaleByID(_ context.Context, id pgtype.UUID) (db.Sale, error) {
	s, ok := f.sales[db.UUIDString(id)]
	if !ok {
		return db.Sale{}, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeStore) ListSales(_ context.Context, limit, offset int32) ([]db.Sale, error) {
	var out []db.Sale
	for i := len(f.order) - 1; i >= 0; i-- {
		out = append(out, f.sales[f.order[i]])
	}
	if int(offset) >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CountSales(_ context.Context) (int64, error) {
	return int64(len(f.sales)), nil
}

func (f *fakeStore) ListSaleLines(_ context.Context, saleID pgtype.UUID) ([]db.SaleLine, error) {
	return f.lines[db.UUIDString(saleID)], nil
}

func (f *fakeStore) CancelSale(_ context.Context, id pgtype.UUID) (db.Sale, error) {
	s, ok := f.sales[db.UUIDString(id)]
	if !ok || s.Cancelled {
		return db.Sale{}, pgx.ErrNoRows
	}
	s.Cancelled = true
	f.sales[db.UUIDString(id)] = s
	return s, nil
}

func (f *fakeStore) InsertAuditLog(_ context.Context, arg db.InsertAuditLogParams) (db.AuditLog, error) {
	f.audits = append(f.audits, arg)
	return db.AuditLog{ID: db.NewUUID()}, nil
}

func (f *fakeStore) InsertDomainEvent(_ context.Context, arg db.InsertDomainEventParams) (db.DomainEvent, error) {
	f.events = append(f.events, arg)
	return db.DomainEvent{ID: db.NewUUID(), Topic: arg.Topic, AggregateID: arg.AggregateID, Payload: arg.Payload}, nil
}

func (f *fakeStore) add(sale db.Sale, lines ...db.SaleLine) db.Sale {
	if !sale.ID.Valid {
		sale.ID = db.NewUUID()
	}
	key := db.UUIDString(sale.ID)
	f.sales[key] = sale
	f.lines[key] = lines
	f.order = append(f.order, key)
	return sale
}

func newService(store *fakeStore) *Service {
	return &Service{Store: store, Bus: &events.Bus{Store: store}}
}

func TestGetSale(t *testing.T) {
	store := newFakeStore()
	s := store.add(db.Sale{SaleNumber: 7, TotalCents: 1243, PaymentMethod: "card"})
	svc := newService(store)

	record, err := svc.Get(context.Background(), db.UUIDString(s.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(7), record.SaleNumber)
	assert.Equal(t, int64(1243), record.TotalCents)

	_, err = svc.Get(context.Background(), db.UUIDString(db.NewUUID()))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSalesNewestFirst(t *testing.T) {
	store := newFakeStore()
	store.add(db.Sale{SaleNumber: 1})
	store.add(db.Sale{SaleNumber: 2})
	store.add(db.Sale{SaleNumber: 3})
	svc := newService(store)

	items, total, err := svc.List(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].SaleNumber)
}

func TestCancelSale(t *testing.T) {
	store := newFakeStore()
	customer := db.NewUUID()
	s := store.add(db.Sale{
		SaleNumber:     9,
		TotalCents:     500,
		CustomerID:     customer,
		PointsEarned:   5,
		RedeemedPoints: 100,
		PaymentMethod:  "cash",
	})
	svc := newService(store)

	record, err := svc.Cancel(context.Background(), db.UUIDString(s.ID), db.UUIDString(db.NewUUID()), "customer returned goods")
	require.NoError(t, err)
	assert.True(t, record.Cancelled)
	// amounts stay untouched
	assert.Equal(t, int64(500), record.TotalCents)

	require.Len(t, store.audits, 1)
	assert.Equal(t, "cancelled", store.audits[0].Action)
	require.Len(t, store.events, 1)
	assert.Equal(t, events.TopicSaleCancelled, store.events[0].Topic)
	assert.Contains(t, string(store.events[0].Payload), `"pointsRedeemed":100`)
}

func TestCancelTwiceRejected(t *testing.T) {
	store := newFakeStore()
	s := store.add(db.Sale{SaleNumber: 9})
	svc := newService(store)

	_, err := svc.Cancel(context.Background(), db.UUIDString(s.ID), "", "oops")
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), db.UUIDString(s.ID), "", "again")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCancelUnknownSale(t *testing.T) {
	svc := newService(newFakeStore())
	_, err := svc.Cancel(context.Background(), db.UUIDString(db.NewUUID()), "", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReceiptForSale(t *testing.T) {
	store := newFakeStore()
	s := store.add(
		db.Sale{SaleNumber: 11, SubtotalCents: 1027, VatCents: 216, TotalCents: 1243, PaymentMethod: "card"},
		db.SaleLine{Name: "Wijn", UnitPriceCents: 1243, QtyMilli: 1000, PricingMode: "unit", VatBps: 2100, SubtotalCents: 1027, VatAmountCents: 216, TotalCents: 1243},
	)
	svc := newService(store)

	doc, err := svc.Receipt(context.Background(), db.UUIDString(s.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(11), doc.SaleNumber)
	assert.Equal(t, "12.43", doc.Total)
	require.Len(t, doc.Lines, 1)
}
