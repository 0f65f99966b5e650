package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openkassa/backend-kassa/internal/common"
	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
	"github.com/openkassa/backend-kassa/internal/pricing"
)

// ErrProductNotFound is returned when neither id nor barcode resolves.
var ErrProductNotFound = errors.New("product not found")

type queryProvider interface {
	GetProductByID(ctx context.Context, id pgtype.UUID) (db.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (db.Product, error)
	ListProducts(ctx context.Context, limit, offset int32) ([]db.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	CreateProduct(ctx context.Context, arg db.CreateProductParams) (db.Product, error)
	UpdateProductPrice(ctx context.Context, id pgtype.UUID, priceCents int64) error
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries      queryProvider
	cache        *Cache
	bus          *events.Bus
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	Bus          *events.Bus
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs the catalog service.
func NewService(cfg ServiceConfig) *Service {
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		bus:          cfg.Bus,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Product is the public catalog payload.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Barcode     *string `json:"barcode,omitempty"`
	PriceCents  int64   `json:"priceCents"`
	PricingMode string  `json:"pricingMode"`
	VATBps      int32   `json:"vatBps"`
	Active      bool    `json:"active"`
}

// ListResult carries an items page with its total.
type ListResult struct {
	Items []Product
	Total int64
	Page  int
	Limit int
}

// CreateInput captures the fields needed to register a product.
type CreateInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Barcode     *string `json:"barcode" validate:"omitempty,min=4,max=64"`
	PriceCents  int64   `json:"priceCents" validate:"required,gt=0"`
	PricingMode string  `json:"pricingMode" validate:"required,oneof=unit weight"`
	VATBps      int32   `json:"vatBps" validate:"gte=0,lte=10000"`
}

func barcodeCacheKey(code string) string {
	return "kassa:catalog:barcode:" + code
}

// LookupBarcode resolves a scanned barcode to the product payload, consulting
// the cache first. Misses fall through to Postgres and are cached on the way out.
func (s *Service) LookupBarcode(ctx context.Context, barcode string) (Product, error) {
	if barcode == "" {
		return Product{}, common.NewAppError("VALIDATION", "barcode is required", http.StatusBadRequest, nil)
	}
	key := barcodeCacheKey(barcode)
	var cached Product
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	row, err := s.queries.GetProductByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("lookup barcode: %w", err)
	}
	item := toProduct(row)
	_ = s.cache.SetJSON(ctx, key, item)
	return item, nil
}

// Get returns the product for an id string.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	uid, err := db.ToUUID(id)
	if err != nil {
		return Product{}, common.NewAppError("VALIDATION", "invalid product id", http.StatusBadRequest, err)
	}
	row, err := s.queries.GetProductByID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return toProduct(row), nil
}

// List returns a page of active products.
func (s *Service) List(ctx context.Context, page, limit int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	offset := (page - 1) * limit
	total, err := s.queries.CountProducts(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("count products: %w", err)
	}
	rows, err := s.queries.ListProducts(ctx, int32(limit), int32(offset))
	if err != nil {
		return ListResult{}, fmt.Errorf("list products: %w", err)
	}
	items := make([]Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, toProduct(row))
	}
	return ListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	barcode := pgtype.Text{}
	if input.Barcode != nil && *input.Barcode != "" {
		barcode = pgtype.Text{String: *input.Barcode, Valid: true}
	}
	row, err := s.queries.CreateProduct(ctx, db.CreateProductParams{
		Name:        input.Name,
		Barcode:     barcode,
		PriceCents:  input.PriceCents,
		PricingMode: input.PricingMode,
		VatBps:      input.VATBps,
	})
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return toProduct(row), nil
}

// UpdatePrice changes the unit price and invalidates the barcode cache entry.
func (s *Service) UpdatePrice(ctx context.Context, id string, priceCents int64) (Product, error) {
	if priceCents <= 0 {
		return Product{}, common.NewAppError("VALIDATION", "price must be positive", http.StatusBadRequest, nil)
	}
	uid, err := db.ToUUID(id)
	if err != nil {
		return Product{}, common.NewAppError("VALIDATION", "invalid product id", http.StatusBadRequest, err)
	}
	current, err := s.queries.GetProductByID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	if err := s.queries.UpdateProductPrice(ctx, uid, priceCents); err != nil {
		return Product{}, fmt.Errorf("update price: %w", err)
	}
	if current.Barcode.Valid {
		_ = s.cache.Invalidate(ctx, barcodeCacheKey(current.Barcode.String))
	}
	if s.bus != nil {
		_, _ = s.bus.Emit(ctx, events.TopicPriceChanged, current.ID, map[string]any{
			"productId":      db.UUIDString(current.ID),
			"priceCents":     priceCents,
			"prevPriceCents": current.PriceCents,
		})
	}
	current.PriceCents = priceCents
	return toProduct(current), nil
}

// PricingMode maps the stored mode string to the engine's quantity mode.
func PricingMode(mode string) pricing.Mode {
	if mode == "weight" {
		return pricing.ModeWeight
	}
	return pricing.ModeUnit
}

func toProduct(row db.Product) Product {
	p := Product{
		ID:          db.UUIDString(row.ID),
		Name:        row.Name,
		PriceCents:  row.PriceCents,
		PricingMode: row.PricingMode,
		VATBps:      row.VatBps,
		Active:      row.Active,
	}
	if row.Barcode.Valid {
		code := row.Barcode.String
		p.Barcode = &code
	}
	return p
}
