package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	accthandler "github.com/scalpi-pos/api/internal/accounting/handler"
	"github.com/scalpi-pos/api/internal/config"
	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/handler"
	mw "github.com/scalpi-pos/api/internal/middleware"
	"github.com/scalpi-pos/api/internal/service"
	"github.com/scalpi-pos/api/internal/ws"
)

// Deps bundles what the router needs from main.
type Deps struct {
	Config   *config.Config
	Queries  *database.Queries
	Pool     *pgxpool.Pool
	Hub      *ws.Hub
	Syncer   handler.StaffSyncer // nil when the staff directory is not configured
	Limiter  *mw.RateLimiter
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// New creates a Chi router with all application routes wired up.
func New(d Deps) chi.Router {
	cfg := d.Config
	queries := d.Queries
	loc := cfg.Location()

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.Metrics)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Services
	operationService := service.NewOperationService(queries, loc)
	saleService := service.NewSaleService(
		d.Pool,
		func(db database.DBTX) service.SaleStore {
			return database.New(db)
		},
		loc,
	)

	// POS webhook (shared-secret query token, rate limited)
	webhookHandler := accthandler.NewWebhookHandler(queries, operationService, cfg.Webhook.Token, loc, d.Hub, d.Logger)
	r.Group(func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.LimitWith(webhookHandler.RateLimited))
		}
		r.Post("/webhooks/altegio", webhookHandler.FromAltegio)
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{channel}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Route("/api", func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Staff and inventory
		employeeHandler := handler.NewEmployeeHandler(queries, d.Syncer, d.Hub, d.Logger)
		r.Route("/employees", employeeHandler.RegisterRoutes)

		itemHandler := handler.NewItemHandler(queries, d.Hub, d.Logger)
		r.Route("/items", itemHandler.RegisterRoutes)

		saleHandler := handler.NewSaleHandler(queries, saleService, d.Hub, d.Logger)
		r.Route("/sales", saleHandler.RegisterRoutes)

		// Ledger
		operationHandler := accthandler.NewOperationHandler(queries, operationService, d.Hub, d.Logger)
		r.Route("/operations", operationHandler.RegisterRoutes)

		cashierHandler := accthandler.NewCashierHandler(queries, d.Hub, d.Logger)
		r.Route("/cashier", cashierHandler.RegisterRoutes)

		reportHandler := accthandler.NewReportHandler(queries, d.Logger)
		r.Route("/reports", reportHandler.RegisterRoutes)
	})

	d.Logger.Info("router initialized")
	return r
}
