package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"fireboard/internal/config"
	"fireboard/internal/database"
	"fireboard/internal/handlers"
	"fireboard/internal/logger"
	"fireboard/internal/middleware"
	"fireboard/internal/quote"
	"fireboard/internal/services"
	"fireboard/internal/validator"

	_ "fireboard/internal/docs" // Import swagger docs
)

// @title           Fireboard API
// @version         1.0
// @description     Fireboard is a personal finance dashboard for tracking portfolio allocation, brokerage trades, financial independence progress, and a trading journal.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	quoteProvider := quote.NewYahooProvider(
		&http.Client{Timeout: appConfig.QuoteTimeout},
		appConfig.QuoteBaseURL,
	)
	userService := services.NewUserService(db)
	settingsService := services.NewSettingsService(db)
	assetService := services.NewAssetService(db, settingsService, quoteProvider)
	tradeService := services.NewTradeService(db)
	journalService := services.NewJournalService(db)
	fireService := services.NewFireService(db, settingsService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	assetHandler := handlers.NewAssetHandler(assetService)
	tradeHandler := handlers.NewTradeHandler(tradeService)
	journalHandler := handlers.NewJournalHandler(journalService)
	fireHandler := handlers.NewFireHandler(fireService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Settings routes
	protected.GET("/settings", settingsHandler.GetSettings)
	protected.PUT("/settings", settingsHandler.UpdateSettings)

	// Asset routes
	assets := protected.Group("/assets")
	assets.POST("", assetHandler.CreateAsset)
	assets.GET("", assetHandler.GetAssets)
	assets.GET("/rebalance", assetHandler.GetRebalancePlan)
	assets.POST("/refresh-prices", assetHandler.RefreshPrices)
	assets.GET("/:id", assetHandler.GetAsset)
	assets.PUT("/:id", assetHandler.UpdateAsset)
	assets.DELETE("/:id", assetHandler.DeleteAsset)

	// Trade routes
	trades := protected.Group("/trades")
	trades.POST("", tradeHandler.CreateTrade)
	trades.GET("", tradeHandler.GetTrades)
	trades.POST("/import", tradeHandler.ImportTrades)
	trades.GET("/:id", tradeHandler.GetTrade)
	trades.PUT("/:id", tradeHandler.UpdateTrade)
	trades.DELETE("/:id", tradeHandler.DeleteTrade)

	// Position routes
	protected.GET("/positions", tradeHandler.GetPositions)

	// Journal routes
	journal := protected.Group("/journal")
	journal.POST("", journalHandler.CreateEntry)
	journal.GET("", journalHandler.GetEntries)
	journal.GET("/stats", journalHandler.GetStats)
	journal.GET("/:id", journalHandler.GetEntry)
	journal.PUT("/:id", journalHandler.UpdateEntry)
	journal.DELETE("/:id", journalHandler.DeleteEntry)

	// FIRE routes
	fire := protected.Group("/fire")
	fire.GET("/progress", fireHandler.GetProgress)
	fire.POST("/snapshots", fireHandler.RecordSnapshot)
	fire.GET("/snapshots", fireHandler.GetSnapshots)

	log.Infof("Starting Fireboard backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
