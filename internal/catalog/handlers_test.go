package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
)

type fakeQueries struct {
	products      map[string]db.Product
	byBarcode     map[string]db.Product
	priceUpdates  map[string]int64
	barcodeCalls  int
	failOnBarcode error
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		products:     map[string]db.Product{},
		byBarcode:    map[string]db.Product{},
		priceUpdates: map[string]int64{},
	}
}

func (f *fakeQueries) add(p db.Product) {
	f.products[db.UUIDString(p.ID)] = p
	if p.Barcode.Valid {
		f.byBarcode[p.Barcode.String] = p
	}
}

func (f *fakeQueries) GetProductByID(_ context.Context, id pgtype.UUID) (db.Product, error) {
	p, ok := f.products[db.UUIDString(id)]
	if !ok {
		return db.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeQueries) GetProductByBarcode(_ context.Context, barcode string) (db.Product, error) {
	f.barcodeCalls++
	if f.failOnBarcode != nil {
		return db.Product{}, f.failOnBarcode
	}
	p, ok := f.byBarcode[barcode]
	if !ok {
		return db.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeQueries) ListProducts(_ context.Context, limit, offset int32) ([]db.Product, error) {
	items := make([]db.Product, 0, len(f.products))
	for _, p := range f.products {
		items = append(items, p)
	}
	if int(offset) >= len(items) {
		return nil, nil
	}
	items = items[offset:]
	if int(limit) < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeQueries) CountProducts(_ context.Context) (int64, error) {
	return int64(len(f.products)), nil
}

func (f *fakeQueries) CreateProduct(_ context.Context, arg db.CreateProductParams) (db.Product, error) {
	p := db.Product{
		ID:          db.NewUUID(),
		Name:        arg.Name,
		Barcode:     arg.Barcode,
		PriceCents:  arg.PriceCents,
		PricingMode: arg.PricingMode,
		VatBps:      arg.VatBps,
		Active:      true,
	}
	f.add(p)
	return p, nil
}

func (f *fakeQueries) UpdateProductPrice(_ context.Context, id pgtype.UUID, priceCents int64) error {
	key := db.UUIDString(id)
	f.priceUpdates[key] = priceCents
	p := f.products[key]
	p.PriceCents = priceCents
	f.products[key] = p
	return nil
}

func sampleProduct(name, barcode string, price int64) db.Product {
	return db.Product{
		ID:          db.NewUUID(),
		Name:        name,
		Barcode:     pgtype.Text{String: barcode, Valid: barcode != ""},
		PriceCents:  price,
		PricingMode: "unit",
		VatBps:      2100,
		Active:      true,
	}
}

func newTestRouter(t *testing.T, queries *fakeQueries, cache *Cache) chi.Router {
	t.Helper()
	service := NewService(ServiceConfig{Queries: queries, Cache: cache, DefaultLimit: 20, MaxLimit: 100})
	handler := NewHandler(service)
	r := chi.NewRouter()
	r.Get("/products", handler.List)
	r.Post("/products", handler.Create)
	r.Get("/products/barcode/{code}", handler.LookupBarcode)
	r.Get("/products/{id}", handler.Get)
	r.Patch("/products/{id}/price", handler.UpdatePrice)
	return r
}

func TestLookupBarcode(t *testing.T) {
	queries := newFakeQueries()
	milk := sampleProduct("Melk 1L", "5410000000017", 129)
	queries.add(milk)
	router := newTestRouter(t, queries, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/barcode/5410000000017", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Melk 1L", body.Data.Name)
	assert.Equal(t, int64(129), body.Data.PriceCents)
	assert.Equal(t, int32(2100), body.Data.VATBps)
}

func TestLookupBarcodeNotFound(t *testing.T) {
	router := newTestRouter(t, newFakeQueries(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/barcode/000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestLookupBarcodeUsesCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)

	queries := newFakeQueries()
	queries.add(sampleProduct("Brood", "5410000000024", 249))
	router := newTestRouter(t, queries, cache)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/barcode/5410000000024", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, queries.barcodeCalls, "repeat lookups should hit the cache")
}

func TestCreateProduct(t *testing.T) {
	queries := newFakeQueries()
	router := newTestRouter(t, queries, nil)

	payload := `{"name":"Bananen","barcode":"2000000000012","priceCents":189,"pricingMode":"weight","vatBps":600}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "weight", body.Data.PricingMode)
	require.NotNil(t, body.Data.Barcode)
	assert.Equal(t, "2000000000012", *body.Data.Barcode)
}

func TestCreateProductValidation(t *testing.T) {
	router := newTestRouter(t, newFakeQueries(), nil)

	cases := []struct {
		name    string
		payload string
	}{
		{"missing name", `{"priceCents":100,"pricingMode":"unit"}`},
		{"zero price", `{"name":"X","priceCents":0,"pricingMode":"unit"}`},
		{"bad mode", `{"name":"X","priceCents":100,"pricingMode":"volume"}`},
		{"malformed json", `{"name":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tc.payload))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdatePriceInvalidatesCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)

	queries := newFakeQueries()
	product := sampleProduct("Kaas", "5410000000031", 599)
	queries.add(product)
	router := newTestRouter(t, queries, cache)

	// warm the cache
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/barcode/5410000000031", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, srv.Exists("kassa:catalog:barcode:5410000000031"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/products/"+db.UUIDString(product.ID)+"/price", strings.NewReader(`{"priceCents":649}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.False(t, srv.Exists("kassa:catalog:barcode:5410000000031"))
	assert.Equal(t, int64(649), queries.priceUpdates[db.UUIDString(product.ID)])
}

type recordingEventStore struct {
	events []db.InsertDomainEventParams
}

func (r *recordingEventStore) InsertDomainEvent(_ context.Context, arg db.InsertDomainEventParams) (db.DomainEvent, error) {
	r.events = append(r.events, arg)
	return db.DomainEvent{Topic: arg.Topic, AggregateID: arg.AggregateID, Payload: arg.Payload}, nil
}

func TestUpdatePriceEmitsPriceChanged(t *testing.T) {
	queries := newFakeQueries()
	product := sampleProduct("Melk", "", 129)
	queries.add(product)

	eventStore := &recordingEventStore{}
	service := NewService(ServiceConfig{
		Queries: queries,
		Bus:     &events.Bus{Store: eventStore},
	})

	_, err := service.UpdatePrice(context.Background(), db.UUIDString(product.ID), int64(149))
	require.NoError(t, err)

	require.Len(t, eventStore.events, 1)
	assert.Equal(t, events.TopicPriceChanged, eventStore.events[0].Topic)
	assert.Equal(t, product.ID, eventStore.events[0].AggregateID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(eventStore.events[0].Payload, &payload))
	assert.Equal(t, float64(149), payload["priceCents"])
	assert.Equal(t, float64(129), payload["prevPriceCents"])
}

func TestListProductsPagination(t *testing.T) {
	queries := newFakeQueries()
	for _, name := range []string{"A", "B", "C"} {
		queries.add(sampleProduct(name, "", 100))
	}
	router := newTestRouter(t, queries, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?page=1&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))

	var body struct {
		Data []Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
}
