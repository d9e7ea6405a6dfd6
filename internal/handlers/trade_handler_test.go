package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/models"
	"fireboard/internal/pagination"
	"fireboard/internal/positions"
	"fireboard/internal/services"
)

var _ services.TradeServicer = (*mockTradeService)(nil)

type mockTradeService struct {
	createTradeFn              func(userID uint, input services.TradeInput) (*models.Trade, error)
	getUserTradesFn            func(userID uint, page pagination.PageRequest, filter services.TradeFilter) (*pagination.PageResponse[models.Trade], error)
	getTradeByIDFn             func(userID, tradeID uint) (*models.Trade, error)
	updateTradeFn              func(userID, tradeID uint, input services.TradeInput) (*models.Trade, error)
	deleteTradeFn              func(userID, tradeID uint) error
	importCSVFn                func(userID uint, r io.Reader, filename string) (*services.ImportResult, error)
	getPositionsFn             func(userID uint) ([]models.Position, error)
	getConsolidatedPositionsFn func(userID uint) ([]positions.Position, error)
	getStrategyPositionsFn     func(userID uint, strategyTag string) ([]positions.Position, error)
	recomputePositionsFn       func(userID uint) error
}

func (m *mockTradeService) CreateTrade(userID uint, input services.TradeInput) (*models.Trade, error) {
	if m.createTradeFn != nil {
		return m.createTradeFn(userID, input)
	}
	return &models.Trade{}, nil
}

func (m *mockTradeService) GetUserTrades(userID uint, page pagination.PageRequest, filter services.TradeFilter) (*pagination.PageResponse[models.Trade], error) {
	if m.getUserTradesFn != nil {
		return m.getUserTradesFn(userID, page, filter)
	}
	return &pagination.PageResponse[models.Trade]{}, nil
}

func (m *mockTradeService) GetTradeByID(userID, tradeID uint) (*models.Trade, error) {
	if m.getTradeByIDFn != nil {
		return m.getTradeByIDFn(userID, tradeID)
	}
	return &models.Trade{}, nil
}

func (m *mockTradeService) UpdateTrade(userID, tradeID uint, input services.TradeInput) (*models.Trade, error) {
	if m.updateTradeFn != nil {
		return m.updateTradeFn(userID, tradeID, input)
	}
	return &models.Trade{}, nil
}

func (m *mockTradeService) DeleteTrade(userID, tradeID uint) error {
	if m.deleteTradeFn != nil {
		return m.deleteTradeFn(userID, tradeID)
	}
	return nil
}

func (m *mockTradeService) ImportCSV(userID uint, r io.Reader, filename string) (*services.ImportResult, error) {
	if m.importCSVFn != nil {
		return m.importCSVFn(userID, r, filename)
	}
	return &services.ImportResult{}, nil
}

func (m *mockTradeService) GetPositions(userID uint) ([]models.Position, error) {
	if m.getPositionsFn != nil {
		return m.getPositionsFn(userID)
	}
	return nil, nil
}

func (m *mockTradeService) GetConsolidatedPositions(userID uint) ([]positions.Position, error) {
	if m.getConsolidatedPositionsFn != nil {
		return m.getConsolidatedPositionsFn(userID)
	}
	return nil, nil
}

func (m *mockTradeService) GetStrategyPositions(userID uint, strategyTag string) ([]positions.Position, error) {
	if m.getStrategyPositionsFn != nil {
		return m.getStrategyPositionsFn(userID, strategyTag)
	}
	return nil, nil
}

func (m *mockTradeService) RecomputePositions(userID uint) error {
	if m.recomputePositionsFn != nil {
		return m.recomputePositionsFn(userID)
	}
	return nil
}

func setupTradeRouter(handler *TradeHandler) *gin.Engine {
	r := gin.New()
	authed := r.Group("", injectUserID(1))
	authed.POST("/trades", handler.CreateTrade)
	authed.GET("/trades", handler.GetTrades)
	authed.GET("/trades/:id", handler.GetTrade)
	authed.PUT("/trades/:id", handler.UpdateTrade)
	authed.DELETE("/trades/:id", handler.DeleteTrade)
	authed.POST("/trades/import", handler.ImportTrades)
	authed.GET("/positions", handler.GetPositions)
	return r
}

func TestTradeHandler_CreateTrade(t *testing.T) {
	t.Run("returns 201 and passes the parsed input through", func(t *testing.T) {
		var got services.TradeInput
		tradeSvc := &mockTradeService{
			createTradeFn: func(userID uint, input services.TradeInput) (*models.Trade, error) {
				got = input
				return &models.Trade{
					Base:   models.Base{ID: 7},
					UserID: userID,
					Symbol: input.Symbol,
				}, nil
			},
		}
		r := setupTradeRouter(NewTradeHandler(tradeSvc))

		rec := doRequest(r, "POST", "/trades",
			`{"date":"2024-03-01T00:00:00Z","symbol":"AAPL","side":"buy","quantity":10,"price":150,"account":"ibkr","strategy_tag":"momentum"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Symbol != "AAPL" || got.Side != models.TradeSideBuy {
			t.Errorf("unexpected input passed to service: %+v", got)
		}
		if got.Quantity != 10 || got.Price != 150 {
			t.Errorf("unexpected quantity/price: %+v", got)
		}
		if !got.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date: %v", got.Date)
		}
	})

	t.Run("returns 400 on invalid side", func(t *testing.T) {
		r := setupTradeRouter(NewTradeHandler(&mockTradeService{}))

		rec := doRequest(r, "POST", "/trades",
			`{"date":"2024-03-01T00:00:00Z","symbol":"AAPL","side":"hold","quantity":10,"price":150}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on zero quantity", func(t *testing.T) {
		r := setupTradeRouter(NewTradeHandler(&mockTradeService{}))

		rec := doRequest(r, "POST", "/trades",
			`{"date":"2024-03-01T00:00:00Z","symbol":"AAPL","side":"buy","quantity":0,"price":150}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTradeHandler_GetTrades(t *testing.T) {
	t.Run("passes query filters to the service", func(t *testing.T) {
		var gotFilter services.TradeFilter
		var gotPage pagination.PageRequest
		tradeSvc := &mockTradeService{
			getUserTradesFn: func(userID uint, page pagination.PageRequest, filter services.TradeFilter) (*pagination.PageResponse[models.Trade], error) {
				gotPage = page
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Trade{}, page.Page, page.PageSize, 0)
				return &resp, nil
			},
		}
		r := setupTradeRouter(NewTradeHandler(tradeSvc))

		rec := doRequest(r, "GET", "/trades?page=2&page_size=5&symbol=AAPL&account=ibkr&from=2024-01-01", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("unexpected page request: %+v", gotPage)
		}
		if gotFilter.Symbol == nil || *gotFilter.Symbol != "AAPL" {
			t.Errorf("expected symbol filter, got %+v", gotFilter)
		}
		if gotFilter.Account == nil || *gotFilter.Account != "ibkr" {
			t.Errorf("expected account filter, got %+v", gotFilter)
		}
		if gotFilter.FromDate == nil {
			t.Error("expected from date filter")
		}
	})

	t.Run("returns 404 for a missing trade", func(t *testing.T) {
		tradeSvc := &mockTradeService{
			getTradeByIDFn: func(userID, tradeID uint) (*models.Trade, error) {
				return nil, apperrors.ErrTradeNotFound
			},
		}
		r := setupTradeRouter(NewTradeHandler(tradeSvc))

		rec := doRequest(r, "GET", "/trades/99", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRADE_NOT_FOUND")
	})

	t.Run("returns 400 on a non-numeric id", func(t *testing.T) {
		r := setupTradeRouter(NewTradeHandler(&mockTradeService{}))

		rec := doRequest(r, "GET", "/trades/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTradeHandler_ImportTrades(t *testing.T) {
	buildUpload := func(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
		t.Helper()
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("failed to close multipart writer: %v", err)
		}
		return body, writer.FormDataContentType()
	}

	t.Run("uploads the file to the service", func(t *testing.T) {
		var gotFilename string
		var gotContent []byte
		tradeSvc := &mockTradeService{
			importCSVFn: func(userID uint, r io.Reader, filename string) (*services.ImportResult, error) {
				gotFilename = filename
				gotContent, _ = io.ReadAll(r)
				return &services.ImportResult{BatchID: "batch-1", Imported: 2}, nil
			},
		}
		r := setupTradeRouter(NewTradeHandler(tradeSvc))

		csv := "Date,Symbol,Side,Quantity,Price\n2024-01-02,AAPL,BUY,10,150\n"
		body, contentType := buildUpload(t, "file", "trades.csv", csv)

		req := httptest.NewRequest("POST", "/trades/import", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilename != "trades.csv" {
			t.Errorf("expected filename trades.csv, got %q", gotFilename)
		}
		if string(gotContent) != csv {
			t.Errorf("uploaded content mismatch:\n%s", gotContent)
		}
		result := parseJSON(t, rec)
		imp := result["import"].(map[string]interface{})
		if imp["imported"] != float64(2) {
			t.Errorf("expected 2 imported, got %v", imp["imported"])
		}
	})

	t.Run("returns 400 when no file is attached", func(t *testing.T) {
		r := setupTradeRouter(NewTradeHandler(&mockTradeService{}))

		rec := doRequest(r, "POST", "/trades/import", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("surfaces an empty import error", func(t *testing.T) {
		tradeSvc := &mockTradeService{
			importCSVFn: func(userID uint, r io.Reader, filename string) (*services.ImportResult, error) {
				return nil, apperrors.ErrEmptyImport
			},
		}
		r := setupTradeRouter(NewTradeHandler(tradeSvc))

		body, contentType := buildUpload(t, "file", "empty.csv", "Date,Symbol,Side,Quantity,Price\n")

		req := httptest.NewRequest("POST", "/trades/import", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "EMPTY_IMPORT")
	})
}

func TestTradeHandler_GetPositions(t *testing.T) {
	t.Run("defaults to per-account positions", func(t *testing.T) {
		tradeSvc := &mockTradeService{
			getPositionsFn: func(userID uint) ([]models.Position, error) {
				return []models.Position{{Symbol: "AAPL", Account: "ibkr", Quantity: 10}}, nil
			},
		}
		r := setupTradeRouter(NewTradeHandler(tradeSvc))

		rec := doRequest(r, "GET", "/positions", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["group_by"] != "account" {
			t.Errorf("expected group_by account, got %v", result["group_by"])
		}
		list := result["positions"].([]interface{})
		if len(list) != 1 {
			t.Fatalf("expected 1 position, got %d", len(list))
		}
	})

	t.Run("group_by symbol returns consolidated positions", func(t *testing.T) {
		called := false
		tradeSvc := &mockTradeService{
			getConsolidatedPositionsFn: func(userID uint) ([]positions.Position, error) {
				called = true
				return []positions.Position{{Symbol: "AAPL", Quantity: 20}}, nil
			},
		}
		r := setupTradeRouter(NewTradeHandler(tradeSvc))

		rec := doRequest(r, "GET", "/positions?group_by=symbol", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called {
			t.Error("expected consolidated positions to be requested")
		}
	})

	t.Run("group_by strategy passes the tag", func(t *testing.T) {
		var gotTag string
		tradeSvc := &mockTradeService{
			getStrategyPositionsFn: func(userID uint, strategyTag string) ([]positions.Position, error) {
				gotTag = strategyTag
				return nil, nil
			},
		}
		r := setupTradeRouter(NewTradeHandler(tradeSvc))

		rec := doRequest(r, "GET", "/positions?group_by=strategy&strategy_tag=momentum", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotTag != "momentum" {
			t.Errorf("expected strategy tag momentum, got %q", gotTag)
		}
	})

	t.Run("rejects an unknown grouping", func(t *testing.T) {
		r := setupTradeRouter(NewTradeHandler(&mockTradeService{}))

		rec := doRequest(r, "GET", "/positions?group_by=sector", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
