package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/handlers"
	"fireboard/internal/logger"
	"fireboard/internal/middleware"
	"fireboard/internal/models"
	"fireboard/internal/quote"
	"fireboard/internal/services"
	"fireboard/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Quotes *fakeQuoteProvider
	Router *gin.Engine
}

// fakeQuoteProvider serves canned prices so tests never hit the network.
type fakeQuoteProvider struct {
	prices map[string]float64
}

func (p *fakeQuoteProvider) FetchQuote(ctx context.Context, symbol string) (*quote.Quote, error) {
	price, ok := p.prices[symbol]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, fmt.Errorf("no quote for %s", symbol))
	}
	return &quote.Quote{Symbol: symbol, Price: price, Currency: "USD", AsOf: time.Now()}, nil
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Settings{},
		&models.Asset{},
		&models.Trade{},
		&models.Position{},
		&models.JournalEntry{},
		&models.FireSnapshot{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	quotes := &fakeQuoteProvider{prices: map[string]float64{}}

	// Services
	userService := services.NewUserService(db)
	settingsService := services.NewSettingsService(db)
	assetService := services.NewAssetService(db, settingsService, quotes)
	tradeService := services.NewTradeService(db)
	journalService := services.NewJournalService(db)
	fireService := services.NewFireService(db, settingsService)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	assetHandler := handlers.NewAssetHandler(assetService)
	tradeHandler := handlers.NewTradeHandler(tradeService)
	journalHandler := handlers.NewJournalHandler(journalService)
	fireHandler := handlers.NewFireHandler(fireService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	protected.GET("/settings", settingsHandler.GetSettings)
	protected.PUT("/settings", settingsHandler.UpdateSettings)

	assets := protected.Group("/assets")
	assets.POST("", assetHandler.CreateAsset)
	assets.GET("", assetHandler.GetAssets)
	assets.GET("/rebalance", assetHandler.GetRebalancePlan)
	assets.POST("/refresh-prices", assetHandler.RefreshPrices)
	assets.GET("/:id", assetHandler.GetAsset)
	assets.PUT("/:id", assetHandler.UpdateAsset)
	assets.DELETE("/:id", assetHandler.DeleteAsset)

	trades := protected.Group("/trades")
	trades.POST("", tradeHandler.CreateTrade)
	trades.GET("", tradeHandler.GetTrades)
	trades.POST("/import", tradeHandler.ImportTrades)
	trades.GET("/:id", tradeHandler.GetTrade)
	trades.PUT("/:id", tradeHandler.UpdateTrade)
	trades.DELETE("/:id", tradeHandler.DeleteTrade)

	protected.GET("/positions", tradeHandler.GetPositions)

	journal := protected.Group("/journal")
	journal.POST("", journalHandler.CreateEntry)
	journal.GET("", journalHandler.GetEntries)
	journal.GET("/stats", journalHandler.GetStats)
	journal.GET("/:id", journalHandler.GetEntry)
	journal.PUT("/:id", journalHandler.UpdateEntry)
	journal.DELETE("/:id", journalHandler.DeleteEntry)

	fire := protected.Group("/fire")
	fire.GET("/progress", fireHandler.GetProgress)
	fire.POST("/snapshots", fireHandler.RecordSnapshot)
	fire.GET("/snapshots", fireHandler.GetSnapshots)

	return &testApp{DB: db, Quotes: quotes, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// formatID renders a JSON-decoded numeric ID as a path segment.
func formatID(id float64) string {
	return fmt.Sprintf("%.0f", id)
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(float64)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}
