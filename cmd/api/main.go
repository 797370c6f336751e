package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dojofin/dojo-backend/internal/config"
	"github.com/dojofin/dojo-backend/internal/domain"
	"github.com/dojofin/dojo-backend/internal/handler"
	"github.com/dojofin/dojo-backend/internal/middleware"
	"github.com/dojofin/dojo-backend/internal/service"
	"github.com/dojofin/dojo-backend/internal/storage/duckdb"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Open the embedded database
	store, err := duckdb.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Str("path", cfg.DBPath).Msg("Database ready")

	clock := domain.NewClock()

	// Initialize services
	ledgerService := service.NewLedgerService(store, clock)
	allocationService := service.NewAllocationService(store, clock)
	accountService := service.NewAccountService(store, clock)
	categoryService := service.NewCategoryService(store, clock)
	reconciliationService := service.NewReconciliationService(store, clock)
	netWorthService := service.NewNetWorthService(store, clock)
	marketDataService := service.NewMarketDataService(store, clock)
	rebuildService := service.NewRebuildService(store)

	// Rebuild derived caches on startup so the ledger is the only thing
	// that has to survive a crash.
	if cfg.SkipCacheRebuild {
		log.Warn().Msg("Skipping startup cache rebuild")
	} else {
		if _, err := rebuildService.Rebuild(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to rebuild derived caches")
		}
	}

	// Initialize handlers
	handlers := &handler.Handlers{
		Account:        handler.NewAccountHandler(accountService),
		Category:       handler.NewCategoryHandler(categoryService),
		Transaction:    handler.NewTransactionHandler(ledgerService),
		Allocation:     handler.NewAllocationHandler(allocationService),
		Reconciliation: handler.NewReconciliationHandler(reconciliationService),
		NetWorth:       handler.NewNetWorthHandler(netWorthService),
		MarketData:     handler.NewMarketDataHandler(marketDataService),
		Admin:          handler.NewAdminHandler(rebuildService),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Rate limiting keyed by client IP
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, middleware.DefaultBurstSize)
	defer rateLimiter.Stop()
	e.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Register API routes
	handler.RegisterRoutes(e, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
