package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	allocationapp "github.com/fieldsupply/backend/internal/application/allocation"
	contractapp "github.com/fieldsupply/backend/internal/application/contract"
	orderingapp "github.com/fieldsupply/backend/internal/application/ordering"
	"github.com/fieldsupply/backend/internal/infrastructure/config"
	"github.com/fieldsupply/backend/internal/infrastructure/logger"
	"github.com/fieldsupply/backend/internal/infrastructure/persistence"
	"github.com/fieldsupply/backend/internal/interfaces/http/handler"
	"github.com/fieldsupply/backend/internal/interfaces/http/middleware"
	"github.com/fieldsupply/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Field Supply Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize application services
	allocationService := allocationapp.NewService(txScope, purchaseOrderRepo, orderRepo, log,
		allocationapp.WithUrgentDaysThreshold(func() int { return cfg.Ordering.UrgentDaysThreshold }),
		allocationapp.WithMaxRetries(cfg.Ordering.AllocationMaxRetries),
	)
	lifecycleService := orderingapp.NewLifecycleService(orderRepo, purchaseOrderRepo, log)
	contractService := contractapp.NewService(purchaseOrderRepo, log)

	// Initialize handlers
	orderHandler := handler.NewOrderHandler(allocationService, lifecycleService)
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(contractService)
	systemHandler := handler.NewSystemHandler()

	// Configure gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, order matters:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Contract domain (purchase orders and their line items)
	contractRoutes := router.NewDomainGroup("contract", "/contract")
	contractRoutes.POST("/purchase-orders", purchaseOrderHandler.Create)
	contractRoutes.GET("/purchase-orders", purchaseOrderHandler.List)
	contractRoutes.GET("/purchase-orders/number/:order_number", purchaseOrderHandler.GetByOrderNumber)
	contractRoutes.GET("/purchase-orders/:id", purchaseOrderHandler.GetByID)
	contractRoutes.POST("/purchase-orders/:id/items", purchaseOrderHandler.AddItem)
	contractRoutes.GET("/line-items/:id/balance", orderHandler.GetBalance)

	// Ordering domain (material orders, lifecycle, reprogramming)
	orderingRoutes := router.NewDomainGroup("ordering", "/ordering")
	orderingRoutes.POST("/orders", orderHandler.Reserve)
	orderingRoutes.GET("/orders", orderHandler.List)
	orderingRoutes.GET("/orders/pending-approval", orderHandler.ListPendingApproval)
	orderingRoutes.GET("/orders/pending-reprogram", orderHandler.ListPendingReprogram)
	orderingRoutes.GET("/orders/:id", orderHandler.GetByID)
	orderingRoutes.POST("/orders/:id/approve", orderHandler.Approve)
	orderingRoutes.POST("/orders/:id/reject", orderHandler.Reject)
	orderingRoutes.POST("/orders/:id/start", orderHandler.Start)
	orderingRoutes.POST("/orders/:id/load", orderHandler.MarkLoaded)
	orderingRoutes.POST("/orders/:id/depart", orderHandler.MarkInRoute)
	orderingRoutes.POST("/orders/:id/deliver", orderHandler.MarkDelivered)
	orderingRoutes.POST("/orders/:id/cancel", orderHandler.Cancel)
	orderingRoutes.POST("/orders/:id/archive", orderHandler.Archive)
	orderingRoutes.POST("/orders/:id/reprogram", orderHandler.Reprogram)
	orderingRoutes.POST("/orders/:id/reprogram/resolve", orderHandler.ResolveReprogram)
	orderingRoutes.POST("/orders/:id/swap", orderHandler.Swap)

	// System endpoints
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(contractRoutes).
		Register(orderingRoutes).
		Register(systemRoutes)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
