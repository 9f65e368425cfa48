// Package main runs the settlement-layer gateway: RTC token minting,
// payment initiation, and webhook reconciliation over one HTTP server.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/lumamarket/settlement_layer/internal/app"
	"github.com/lumamarket/settlement_layer/internal/app/httpapi"
	"github.com/lumamarket/settlement_layer/internal/app/storage"
	"github.com/lumamarket/settlement_layer/internal/app/storage/postgres"
	"github.com/lumamarket/settlement_layer/internal/config"
	"github.com/lumamarket/settlement_layer/internal/middleware"
	"github.com/lumamarket/settlement_layer/internal/paystack"
	"github.com/lumamarket/settlement_layer/internal/platform/migrations"
	"github.com/lumamarket/settlement_layer/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New("gateway", logger.LoggingConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	var ledgerStore storage.LedgerStore
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Error("open database")
			os.Exit(1)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migrations.Apply(ctx, db); err != nil {
			cancel()
			log.WithError(err).Error("apply migrations")
			os.Exit(1)
		}
		cancel()
		ledgerStore = postgres.New(db)
	} else {
		log.Warn("DATABASE_URL not set; using in-memory ledger store")
	}

	provider, err := paystack.NewClient(cfg.Paystack.SecretKey, nil)
	if err != nil {
		log.WithError(err).Error("configure payment provider")
		os.Exit(1)
	}

	application := app.New(cfg, app.Stores{Ledger: ledgerStore}, provider, log)

	router := httpapi.NewRouter(application, httpapi.RouterConfig{
		Auth:      middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, log),
		CORS:      middleware.NewCORSMiddleware(cfg.AllowedOrigins),
		RateLimit: middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log),
		Log:       log,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server failed")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
