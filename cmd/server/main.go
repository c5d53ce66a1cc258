package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/optionex/binary-api/internal/auth"
	"github.com/optionex/binary-api/internal/binary"
	"github.com/optionex/binary-api/internal/config"
	"github.com/optionex/binary-api/internal/database"
	"github.com/optionex/binary-api/internal/market"
	"github.com/optionex/binary-api/internal/notify"
	"github.com/optionex/binary-api/internal/pricefeed"
	"github.com/optionex/binary-api/internal/wallet"
	"github.com/optionex/binary-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the binary options API server with graceful
// shutdown support. It sets up the database, price feed, order lifecycle
// service with its settlement scheduler, and the periodic sweep processor.
func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(cfg.JWTSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	feed := pricefeed.NewClient(pricefeed.Options{
		BaseURL:        cfg.FeedBaseURL,
		Timeout:        cfg.FeedTimeout,
		Retries:        cfg.FeedRetries,
		RetryWait:      cfg.FeedRetryWait,
		ReconnectTries: cfg.ReconnectTries,
		ReconnectWait:  cfg.ReconnectWait,
	})

	hub := notify.NewHub()
	notifier := notify.NewService(db, hub)

	marketService := market.NewService(db)
	walletDB := wallet.NewDatabase(db)
	walletHandlers := wallet.NewGinHandlers(walletDB, db)

	evaluator := binary.NewEvaluator(cfg.ProfitPercentages)
	scheduler := binary.NewScheduler()
	binaryService := binary.NewService(db, feed, marketService, evaluator, scheduler, notifier)
	binaryHandlers := binary.NewGinHandlers(binaryService, marketService)

	// Create and start the pending-order sweep processor
	processor := binary.NewProcessor(binaryService, cfg.SweepInterval)
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go processor.Start(processorCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.JWTSecret, authHandlers, binaryHandlers, walletHandlers, hub)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Binary routes: Protected by JWT authentication
// - Internal routes: Protected by internal network authentication
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	binaryHandlers *binary.GinHandlers,
	walletHandlers *wallet.GinHandlers,
	hub *notify.Hub,
) {
	// Websocket broadcast endpoint
	router.GET("/ws", hub.Handler())

	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Binary trading routes
		binaryGroup := v1.Group("/binary")
		binaryGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			binaryGroup.POST("/orders", binaryHandlers.CreateOrderHandler())
			binaryGroup.GET("/orders", binaryHandlers.ListOrdersHandler())
			binaryGroup.GET("/orders/:order_id", binaryHandlers.GetOrderHandler())
			binaryGroup.DELETE("/orders/:order_id", binaryHandlers.CancelOrderHandler())
			binaryGroup.GET("/markets", binaryHandlers.MarketsHandler())
			binaryGroup.GET("/wallets/:currency", walletHandlers.GetWalletHandler())
		}

		// Internal routes (should be protected by internal network)
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth(jwtSecret))
		{
			internal.POST("/sweep", binaryHandlers.SweepHandler())
			internal.POST("/wallets/fund", walletHandlers.FundWalletHandler())
		}
	}
}
