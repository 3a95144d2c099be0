// Package main is the entry point for the leadtrack API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"leadtrack/internal/core/security"
	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/entries"
	"leadtrack/internal/domain/posting"
	"leadtrack/internal/domain/registers/stock"
	"leadtrack/internal/domain/reports"
	"leadtrack/internal/domain/settings"
	"leadtrack/internal/domain/sku"
	v1 "leadtrack/internal/infrastructure/http/v1"
	"leadtrack/internal/infrastructure/storage/postgres"
	"leadtrack/internal/infrastructure/storage/postgres/auth_repo"
	"leadtrack/internal/infrastructure/storage/postgres/entry_repo"
	"leadtrack/internal/infrastructure/storage/postgres/register_repo"
	"leadtrack/internal/infrastructure/storage/postgres/settings_repo"
	"leadtrack/pkg/logger"
)

// Config is read from the environment with the LEADTRACK prefix.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Env         string `envconfig:"ENV" default:"development"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`
	AdminName   string `envconfig:"ADMIN_NAME" default:"TT"`
	Idempotency bool   `envconfig:"IDEMPOTENCY_ENABLED" default:"true"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("leadtrack", &cfg); err != nil {
		fmt.Printf("failed to read configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting leadtrack server")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	ledgerRepo := entry_repo.NewLedgerRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	settingsRepo := settings_repo.NewSettingsRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Domain services ---
	guard := security.NewGuard(cfg.AdminName)

	stockService := stock.NewService(stockRepo)
	postingEngine := posting.NewEngine(stockService, txManager)
	settingsService := settings.NewService(settingsRepo, guard)
	ledgerService := entries.NewService(
		ledgerRepo,
		postingEngine,
		stockService,
		settingsService,
		guard,
		auditor,
		txManager,
	)
	reportsService := reports.NewService(ledgerService, stockService)
	skuRegistry := sku.NewRegistry(stockService)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))
	authService := auth.NewService(
		userRepo,
		txManager,
		jwtService,
		guard,
		auth.DefaultServiceConfig(),
	)

	router := v1.NewRouter(v1.RouterConfig{
		Pool:               pool,
		TxManager:          txManager,
		Logger:             log,
		JWTValidator:       jwtService,
		AuthService:        authService,
		LedgerService:      ledgerService,
		StockService:       stockService,
		SettingsService:    settingsService,
		ReportsService:     reportsService,
		SKURegistry:        skuRegistry,
		IdempotencyEnabled: cfg.Idempotency,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
