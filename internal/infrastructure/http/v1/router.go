// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/entries"
	"leadtrack/internal/domain/registers/stock"
	"leadtrack/internal/domain/reports"
	"leadtrack/internal/domain/settings"
	"leadtrack/internal/domain/sku"
	"leadtrack/internal/infrastructure/http/v1/handlers"
	"leadtrack/internal/infrastructure/http/v1/middleware"
	"leadtrack/internal/infrastructure/storage/postgres"
	"leadtrack/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager runs request transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Domain services
	AuthService     *auth.Service
	LedgerService   *entries.Service
	StockService    *stock.Service
	SettingsService *settings.Service
	ReportsService  *reports.Service
	SKURegistry     *sku.Registry

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

	v1 := router.Group("/api/v1")
	{
		// Login and registration are reachable without a token.
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/register", authHandler.Register)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		if cfg.IdempotencyEnabled {
			store := postgres.NewIdempotencyStore(cfg.TxManager, 10*time.Minute)
			protected.Use(middleware.Idempotency(store))
		}

		protected.GET("/auth/me", authHandler.Me)

		registerLedgerRoutes(protected, base, cfg)
		registerStockRoutes(protected, base, cfg)
		registerSettingsRoutes(protected, base, cfg)
		registerReportRoutes(protected, base, cfg)
		registerAdminRoutes(protected, base, authHandler, cfg)
	}

	return router
}

// registerLedgerRoutes wires the append-only entry journal.
func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewEntriesHandler(base, cfg.LedgerService)

	g := rg.Group("/entries")
	{
		g.GET("", h.List)
		g.GET("/:id", h.Get)

		g.POST("/refining", h.AppendRefining)
		g.GET("/refining", h.ListRefining)

		g.POST("/recycling", h.AppendRecycling)
		g.GET("/recycling", h.ListRecycling)

		g.POST("/dross", h.AppendDross)
		g.GET("/dross", h.ListDross)
		g.POST("/dross/:id/recovery", h.RecordDrossRecovery)

		g.POST("/rml-purchase", h.AppendRMLPurchase)
		g.GET("/rml-purchase", h.ListRMLPurchase)

		g.POST("/rml-received", h.AppendRMLReceived)
		g.GET("/rml-received", h.ListRMLReceived)

		g.POST("/sales", h.AppendSale)
		g.GET("/sales", h.ListSales)

		// Deletion is admin only; the domain guard enforces it too.
		g.DELETE("/:id", middleware.RequireAdmin(), h.Delete)
	}
}

// registerStockRoutes wires the stock register views.
func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewStockHandler(base, cfg.StockService, cfg.SKURegistry)

	g := rg.Group("/stock")
	{
		g.GET("", h.Summary)
		g.GET("/movements", h.Movements)
		g.GET("/skus", h.SKUs)
		g.POST("/recompute", middleware.RequireAdmin(), h.Recompute)
	}
}

// registerSettingsRoutes wires the recovery settings endpoints.
func registerSettingsRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSettingsHandler(base, cfg.SettingsService)

	g := rg.Group("/settings")
	{
		g.GET("", h.Get)
		g.PUT("", middleware.RequireAdmin(), h.Update)
	}
}

// registerReportRoutes wires the dashboard and journal exports.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReportsHandler(base, cfg.ReportsService)

	g := rg.Group("/reports")
	{
		g.GET("/dashboard", h.Dashboard)
		g.GET("/refining.xlsx", h.ExportRefining)
		g.GET("/recycling.xlsx", h.ExportRecycling)
		g.GET("/sales.xlsx", h.ExportSales)
	}
}

// registerAdminRoutes wires user management and the data reset.
func registerAdminRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, authHandler *handlers.AuthHandler, cfg RouterConfig) {
	adminHandler := handlers.NewAdminHandler(base, cfg.LedgerService)

	g := rg.Group("/admin")
	g.Use(middleware.RequireAdmin())
	{
		g.GET("/users", authHandler.ListUsers)
		g.POST("/users", authHandler.CreateUser)
		g.DELETE("/users/:id", authHandler.DeleteUser)
		g.POST("/clear-all", adminHandler.ClearAll)
	}
}
