package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	accthandler "github.com/scalpi-pos/api/internal/accounting/handler"
	"github.com/scalpi-pos/api/internal/altegio"
	"github.com/scalpi-pos/api/internal/config"
	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/handler"
	"github.com/scalpi-pos/api/internal/logger"
	"github.com/scalpi-pos/api/internal/middleware"
	"github.com/scalpi-pos/api/internal/router"
	"github.com/scalpi-pos/api/internal/scheduler"
	"github.com/scalpi-pos/api/internal/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	zlog, err := logger.New(logger.Config{
		IsDevelopment: cfg.IsDevelopment(),
		Encoding:      cfg.Logger.Encoding,
		Level:         cfg.Logger.Level,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	zlog.Info("connected to database")

	queries := database.New(pool)

	// The hub outlives the signal context so in-flight requests can still
	// publish while the server drains; it is stopped after Shutdown.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub(zlog)
	go hub.Run(hubCtx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	middleware.InitMetrics(reg, altegio.SyncTotal, accthandler.WebhookEventsTotal, ws.Connections)

	// Staff directory sync is optional; without credentials the manual
	// sync endpoint answers 503 and no job is scheduled.
	var syncer handler.StaffSyncer
	if cfg.Altegio.Enabled() {
		client := altegio.NewClient(cfg.Altegio.BaseURL, cfg.Altegio.CompanyID, cfg.Altegio.PartnerToken, cfg.Altegio.UserToken, nil)
		staffSyncer := altegio.NewSyncer(client, queries, zlog)
		syncer = staffSyncer

		sched := scheduler.New(cfg.Location(), staffSyncer, zlog)
		if err := sched.Start(cfg.Altegio.SyncInterval); err != nil {
			return err
		}
		defer sched.Stop()
	} else {
		zlog.Warn("staff directory sync disabled: credentials not set")
	}

	limiter := middleware.NewRateLimiter(cfg.Webhook.RateLimit, cfg.Webhook.RateBurst)
	defer limiter.Close()

	r := router.New(router.Deps{
		Config:   cfg,
		Queries:  queries,
		Pool:     pool,
		Hub:      hub,
		Syncer:   syncer,
		Limiter:  limiter,
		Registry: reg,
		Logger:   zlog,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	stopHub()
	<-hub.Done()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
