// Seeder loads a small demo dataset: a manager and a cashier, a handful of
// products across both VAT rates, a percent and a fixed promo, and one
// loyalty customer. Intended for local development only.
package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/openkassa/backend-kassa/internal/app"
	"github.com/openkassa/backend-kassa/internal/auth"
	"github.com/openkassa/backend-kassa/internal/config"
	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/obs"
)

func main() {
	logger := obs.NewLogger(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := app.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	store := db.NewStore(pool)
	authSvc := auth.NewService(auth.ServiceConfig{Queries: store, Secret: cfg.JWTSecret})

	cashiers := []struct {
		code, name, pin, role string
	}{
		{"M01", "Marta Janssens", "1984", auth.RoleManager},
		{"C01", "Tom Verhulst", "4712", auth.RoleCashier},
	}
	for _, c := range cashiers {
		if _, err := authSvc.Register(ctx, c.code, c.name, c.pin, c.role); err != nil {
			logger.Warn().Err(err).Str("code", c.code).Msg("seed cashier")
			continue
		}
		logger.Info().Str("code", c.code).Str("role", c.role).Msg("cashier seeded")
	}

	products := []db.CreateProductParams{
		{Name: "Halfvolle melk 1L", Barcode: text("5410000000017"), PriceCents: 129, PricingMode: "unit", VatBps: 600},
		{Name: "Brood wit 800g", Barcode: text("5410000000024"), PriceCents: 249, PricingMode: "unit", VatBps: 600},
		{Name: "Gouda jong belegd", Barcode: text("5410000000031"), PriceCents: 1390, PricingMode: "weight", VatBps: 600},
		{Name: "Tomaten trostros", Barcode: text("5410000000048"), PriceCents: 299, PricingMode: "weight", VatBps: 600},
		{Name: "Rode wijn Côtes du Rhône", Barcode: text("5410000000055"), PriceCents: 899, PricingMode: "unit", VatBps: 2100},
		{Name: "Afwasmiddel citroen", Barcode: text("5410000000062"), PriceCents: 219, PricingMode: "unit", VatBps: 2100},
	}
	for _, p := range products {
		if _, err := store.CreateProduct(ctx, p); err != nil {
			logger.Warn().Err(err).Str("name", p.Name).Msg("seed product")
			continue
		}
		logger.Info().Str("name", p.Name).Msg("product seeded")
	}

	week := time.Now().AddDate(0, 0, 7)
	promos := []db.CreatePromoCodeParams{
		{Code: "WELKOM10", Kind: "percent", Value: 1000, MinSpendCents: 1000, ValidTo: ts(week)},
		{Code: "KASSA5", Kind: "fixed", Value: 500, MinSpendCents: 2500, ValidTo: ts(week)},
	}
	for _, p := range promos {
		if _, err := store.CreatePromoCode(ctx, p); err != nil {
			logger.Warn().Err(err).Str("code", p.Code).Msg("seed promo")
			continue
		}
		logger.Info().Str("code", p.Code).Msg("promo seeded")
	}

	if _, err := store.CreateCustomer(ctx, db.CreateCustomerParams{
		Name:  "Lena Peeters",
		Email: text("lena@example.be"),
	}); err != nil {
		logger.Warn().Err(err).Msg("seed customer")
	} else {
		logger.Info().Msg("customer seeded")
	}

	logger.Info().Msg("seed complete")
}

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

func ts(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
