package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"

	"github.com/openkassa/backend-kassa/internal/app"
	"github.com/openkassa/backend-kassa/internal/audit"
	"github.com/openkassa/backend-kassa/internal/auth"
	"github.com/openkassa/backend-kassa/internal/cart"
	"github.com/openkassa/backend-kassa/internal/catalog"
	"github.com/openkassa/backend-kassa/internal/checkout"
	"github.com/openkassa/backend-kassa/internal/common"
	"github.com/openkassa/backend-kassa/internal/config"
	"github.com/openkassa/backend-kassa/internal/customer"
	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
	"github.com/openkassa/backend-kassa/internal/health"
	"github.com/openkassa/backend-kassa/internal/lock"
	"github.com/openkassa/backend-kassa/internal/obs"
	"github.com/openkassa/backend-kassa/internal/promo"
	"github.com/openkassa/backend-kassa/internal/ratelimit"
	"github.com/openkassa/backend-kassa/internal/report"
	"github.com/openkassa/backend-kassa/internal/resilience"
	"github.com/openkassa/backend-kassa/internal/sale"
	"github.com/openkassa/backend-kassa/internal/scan"
	"github.com/openkassa/backend-kassa/internal/security"
	"github.com/openkassa/backend-kassa/internal/tasks"
)

func main() {
	logger := obs.NewLogger(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}

	tracerShutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
		ServiceName:   "kassa-api",
		Endpoint:      os.Getenv("OTLP_ENDPOINT"),
		SamplingRatio: 1,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
	} else {
		defer func() {
			if err := tracerShutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := app.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() { _ = redisClient.Close() }()
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Warn().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	asynqOpt, err := app.AsynqRedisOpt(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	taskClient := asynq.NewClient(asynqOpt)
	defer func() { _ = taskClient.Close() }()

	store := db.NewStore(pool)

	taskNotifier := &tasks.Notifier{Client: taskClient, Log: logger}
	bus := &events.Bus{
		Store: store,
		Notifiers: []events.Notifier{
			&resilience.GuardedNotifier{
				Next:    taskNotifier,
				Breaker: &resilience.Breaker{},
				Log:     logger,
			},
		},
		Log: logger,
	}

	limiterStore, err := app.NewLimiterStore(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}

	authService := auth.NewService(auth.ServiceConfig{
		Queries:   store,
		Secret:    cfg.JWTSecret,
		AccessTTL: cfg.AccessTokenTTL,
	})
	authHandler := &auth.Handler{
		Service: authService,
		Limiter: app.NewLoginLimiter(limiterStore, cfg.LoginRatePerMinute),
	}

	catalogService := catalog.NewService(catalog.ServiceConfig{
		Queries:      store,
		Cache:        catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Bus:          bus,
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	})
	catalogHandler := catalog.NewHandler(catalogService)

	promoService := &promo.Service{Q: store}
	promoHandler := promo.NewHandler(promoService)

	cartService := &cart.Service{Q: store, Promos: promoService, TTL: cfg.CartTTL}
	cartHandler := cart.NewHandler(cartService)

	checkoutService := &checkout.Service{
		Store:          store,
		Promos:         promoService,
		Loyalty:        cfg.LoyaltyConfig(),
		Bus:            bus,
		NoCashRounding: !cfg.CashRounding,
	}
	checkoutHandler := checkout.NewHandler(checkoutService, &lock.CartLocker{R: redisClient})

	saleService := &sale.Service{Store: store, Bus: bus, Currency: cfg.CurrencyCode}
	saleHandler := sale.NewHandler(saleService)

	customerService := &customer.Service{Q: store, Loyalty: cfg.LoyaltyConfig()}
	customerHandler := &customer.Handler{Service: customerService, DefaultLimit: cfg.CatalogDefaultLimit}

	relay := &scan.Relay{
		R:             redisClient,
		ChannelPrefix: cfg.ScanChannelPrefix,
		ProcessedTTL:  cfg.ScanProcessedTTL,
	}
	scanHandler := scan.NewHandler(relay)

	reportService := &report.Service{Q: store, R: redisClient, TTL: 24 * time.Hour}
	reportHandler := &report.Handler{Service: reportService}

	auditHandler := &audit.Handler{Service: &audit.Service{Q: store}}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	apiLimit := ratelimit.Middleware{
		Limiter: ratelimit.SlidingWindow{Client: redisClient},
		Config: ratelimit.Config{
			Key:    clientKey,
			Window: time.Minute,
			Max:    600,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	httpMetrics := obs.NewHTTPMetrics("kassa", nil, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers)
	r.Use(security.BodyLimit{}.Middleware)
	r.Use(security.CSRF{}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{Checker: health.Probes{Pool: pool, Redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	requireAuth := auth.RequireAuth(authService)
	requireManager := auth.RequireRole(auth.RoleManager)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(apiLimit.Handler)

		v.Post("/auth/login", authHandler.Login)

		v.Group(func(g chi.Router) {
			g.Use(requireAuth)

			g.Get("/products", catalogHandler.List)
			g.Get("/products/{id}", catalogHandler.Get)
			g.Get("/barcodes/{code}", catalogHandler.LookupBarcode)
			g.With(requireManager).Post("/products", catalogHandler.Create)
			g.With(requireManager).Put("/products/{id}/price", catalogHandler.UpdatePrice)

			g.Route("/carts", func(c chi.Router) {
				c.Post("/", cartHandler.Open)
				c.Get("/{id}", cartHandler.Get)
				c.Post("/{id}/lines", cartHandler.AddLine)
				c.Put("/{id}/lines/{lineID}/qty", cartHandler.UpdateQty)
				c.Put("/{id}/lines/{lineID}/discount", cartHandler.SetLineDiscount)
				c.Delete("/{id}/lines/{lineID}/discount", cartHandler.ClearLineDiscount)
				c.With(requireManager).Put("/{id}/lines/{lineID}/price", cartHandler.OverridePrice)
				c.Delete("/{id}/lines/{lineID}", cartHandler.RemoveLine)
				c.Delete("/{id}/lines", cartHandler.Clear)
				c.Put("/{id}/discount", cartHandler.SetOrderDiscount)
				c.Delete("/{id}/discount", cartHandler.ClearOrderDiscount)
				c.Post("/{id}/promo", cartHandler.ApplyPromo)
				c.Delete("/{id}/promo", cartHandler.RemovePromo)
				c.Put("/{id}/customer", cartHandler.SetCustomer)
			})

			g.With(idem.Middleware).Post("/checkout", checkoutHandler.Create)

			g.Get("/sales", saleHandler.List)
			g.Get("/sales/{id}", saleHandler.Get)
			g.Get("/sales/{id}/receipt", saleHandler.Receipt)
			g.With(requireManager).Post("/sales/{id}/cancel", saleHandler.Cancel)

			g.Post("/customers", customerHandler.Create)
			g.Get("/customers", customerHandler.List)
			g.Get("/customers/{customerID}", customerHandler.Get)
			g.Get("/customers/{customerID}/points", customerHandler.Points)

			g.Post("/registers/{code}/scans", scanHandler.Publish)
			g.Get("/registers/{code}/scans", scanHandler.Next)
			g.Post("/registers/{code}/scans/{eventID}/ack", scanHandler.Ack)

			g.With(requireManager).Get("/promos", promoHandler.List)
			g.With(requireManager).Post("/promos", promoHandler.Create)
			g.With(requireManager).Put("/promos/{code}", promoHandler.Update)

			g.With(requireManager).Get("/reports/daily", reportHandler.Daily)
			g.With(requireManager).Get("/audit", auditHandler.List)
		})
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("api listening")
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func clientKey(r *http.Request) string {
	return "ip:" + common.ClientIP(r)
}
