package services

import (
	"strings"
	"testing"
	"time"

	"fireboard/internal/models"
	"fireboard/internal/pagination"
	"fireboard/internal/testutil"
)

func tradeInput(symbol string, side models.TradeSide, quantity, price float64) TradeInput {
	return TradeInput{
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Symbol:   symbol,
		Side:     side,
		Quantity: quantity,
		Price:    price,
	}
}

func TestCreateTrade(t *testing.T) {
	t.Run("valid_recomputes_positions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		user := testutil.CreateTestUser(t, db)
		trade, err := svc.CreateTrade(user.ID, tradeInput("AAPL", models.TradeSideBuy, 10, 150))
		testutil.AssertNoError(t, err)

		if trade.TotalValue != 1500 {
			t.Errorf("expected total value 1500, got %f", trade.TotalValue)
		}
		if trade.Account != "default" {
			t.Errorf("expected default account, got %s", trade.Account)
		}
		if trade.StrategyTag != "unassigned" {
			t.Errorf("expected unassigned strategy, got %s", trade.StrategyTag)
		}

		positions, err := svc.GetPositions(user.ID)
		testutil.AssertNoError(t, err)
		if len(positions) != 1 {
			t.Fatalf("expected 1 position, got %d", len(positions))
		}
		if positions[0].Quantity != 10 || positions[0].AverageCost != 150 {
			t.Errorf("expected 10 @ 150, got %f @ %f", positions[0].Quantity, positions[0].AverageCost)
		}
	})

	t.Run("invalid_side", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		user := testutil.CreateTestUser(t, db)
		_, err := svc.CreateTrade(user.ID, tradeInput("AAPL", "short", 10, 150))
		testutil.AssertAppError(t, err, "INVALID_TRADE")
	})

	t.Run("zero_quantity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		user := testutil.CreateTestUser(t, db)
		_, err := svc.CreateTrade(user.ID, tradeInput("AAPL", models.TradeSideBuy, 0, 150))
		testutil.AssertAppError(t, err, "INVALID_TRADE")
	})

	t.Run("empty_symbol", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		user := testutil.CreateTestUser(t, db)
		_, err := svc.CreateTrade(user.ID, tradeInput("", models.TradeSideBuy, 10, 150))
		testutil.AssertAppError(t, err, "INVALID_TRADE")
	})
}

func TestGetUserTrades(t *testing.T) {
	t.Run("filters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestTrade(t, db, user.ID, "AAPL", models.TradeSideBuy, 10, 150)
		testutil.CreateTestTrade(t, db, user.ID, "MSFT", models.TradeSideBuy, 5, 300)

		symbol := "AAPL"
		page, err := svc.GetUserTrades(user.ID, pagination.PageRequest{}, TradeFilter{Symbol: &symbol})
		testutil.AssertNoError(t, err)

		if page.TotalItems != 1 {
			t.Fatalf("expected 1 AAPL trade, got %d", page.TotalItems)
		}
		if page.Items[0].Symbol != "AAPL" {
			t.Errorf("expected AAPL, got %s", page.Items[0].Symbol)
		}
	})

	t.Run("scoped_to_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)
		testutil.CreateTestTrade(t, db, alice.ID, "AAPL", models.TradeSideBuy, 10, 150)

		page, err := svc.GetUserTrades(bob.ID, pagination.PageRequest{}, TradeFilter{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 0 {
			t.Errorf("expected no trades for other user, got %d", page.TotalItems)
		}
	})
}

func TestUpdateTrade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTradeService(db)

	user := testutil.CreateTestUser(t, db)
	trade, err := svc.CreateTrade(user.ID, tradeInput("AAPL", models.TradeSideBuy, 10, 150))
	testutil.AssertNoError(t, err)

	updated, err := svc.UpdateTrade(user.ID, trade.ID, tradeInput("AAPL", models.TradeSideBuy, 20, 100))
	testutil.AssertNoError(t, err)
	if updated.TotalValue != 2000 {
		t.Errorf("expected total value 2000, got %f", updated.TotalValue)
	}

	// Positions reflect the edited history, not the original
	positions, err := svc.GetPositions(user.ID)
	testutil.AssertNoError(t, err)
	if len(positions) != 1 || positions[0].Quantity != 20 || positions[0].AverageCost != 100 {
		t.Errorf("expected position 20 @ 100 after edit, got %+v", positions)
	}
}

func TestDeleteTrade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTradeService(db)

	user := testutil.CreateTestUser(t, db)
	trade, err := svc.CreateTrade(user.ID, tradeInput("AAPL", models.TradeSideBuy, 10, 150))
	testutil.AssertNoError(t, err)

	err = svc.DeleteTrade(user.ID, trade.ID)
	testutil.AssertNoError(t, err)

	_, err = svc.GetTradeByID(user.ID, trade.ID)
	testutil.AssertAppError(t, err, "TRADE_NOT_FOUND")

	positions, err := svc.GetPositions(user.ID)
	testutil.AssertNoError(t, err)
	if len(positions) != 0 {
		t.Errorf("expected no positions after deleting only trade, got %d", len(positions))
	}
}

func TestImportCSV(t *testing.T) {
	t.Run("imports_and_folds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		user := testutil.CreateTestUser(t, db)
		csv := strings.Join([]string{
			"Date,Symbol,Side,Quantity,Price,Account",
			"2024-01-02,AAPL,BUY,10,150,IBKR",
			"2024-01-03,AAPL,BUY,10,170,IBKR",
			"2024-01-04,AAPL,SELL,5,180,IBKR",
		}, "\n")

		result, err := svc.ImportCSV(user.ID, strings.NewReader(csv), "ibkr-jan.csv")
		testutil.AssertNoError(t, err)

		if result.Imported != 3 {
			t.Fatalf("expected 3 imported, got %d", result.Imported)
		}
		if result.BatchID == "" {
			t.Error("expected a batch ID")
		}
		if len(result.Skipped) != 0 {
			t.Errorf("expected no skipped rows, got %d", len(result.Skipped))
		}

		positions, err := svc.GetPositions(user.ID)
		testutil.AssertNoError(t, err)
		if len(positions) != 1 {
			t.Fatalf("expected 1 position, got %d", len(positions))
		}
		p := positions[0]
		if p.Quantity != 15 || p.AverageCost != 160 {
			t.Errorf("expected 15 @ 160, got %f @ %f", p.Quantity, p.AverageCost)
		}
		if p.Account != "ibkr" {
			t.Errorf("expected account canonicalized to ibkr, got %s", p.Account)
		}
	})

	t.Run("bad_rows_skipped_not_fatal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		user := testutil.CreateTestUser(t, db)
		csv := strings.Join([]string{
			"Date,Symbol,Side,Quantity,Price",
			"2024-01-02,AAPL,BUY,10,150",
			"not-a-date,AAPL,BUY,10,150",
			"2024-01-03,MSFT,HOLD,5,300",
		}, "\n")

		result, err := svc.ImportCSV(user.ID, strings.NewReader(csv), "mixed.csv")
		testutil.AssertNoError(t, err)

		if result.Imported != 1 {
			t.Errorf("expected 1 imported, got %d", result.Imported)
		}
		if len(result.Skipped) != 2 {
			t.Errorf("expected 2 skipped, got %d", len(result.Skipped))
		}
	})

	t.Run("reimport_deduplicates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		user := testutil.CreateTestUser(t, db)
		csv := "Date,Symbol,Side,Quantity,Price\n2024-01-02,AAPL,BUY,10,150\n"

		first, err := svc.ImportCSV(user.ID, strings.NewReader(csv), "jan.csv")
		testutil.AssertNoError(t, err)
		if first.Imported != 1 {
			t.Fatalf("expected 1 imported, got %d", first.Imported)
		}

		second, err := svc.ImportCSV(user.ID, strings.NewReader(csv), "jan.csv")
		testutil.AssertNoError(t, err)
		if second.Imported != 0 {
			t.Errorf("expected 0 imported on reimport, got %d", second.Imported)
		}
		if len(second.Skipped) != 1 {
			t.Errorf("expected duplicate reported as skipped, got %d", len(second.Skipped))
		}
	})

	t.Run("empty_file", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		user := testutil.CreateTestUser(t, db)
		_, err := svc.ImportCSV(user.ID, strings.NewReader("Date,Symbol,Side,Quantity,Price\n"), "empty.csv")
		testutil.AssertAppError(t, err, "EMPTY_IMPORT")
	})

	t.Run("unrecognizable_header", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTradeService(db)

		user := testutil.CreateTestUser(t, db)
		_, err := svc.ImportCSV(user.ID, strings.NewReader("foo,bar\n1,2\n"), "junk.csv")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestPositionViews(t *testing.T) {
	setup := func(t *testing.T) (TradeServicer, uint, func()) {
		db := testutil.SetupTestDB(t)
		svc := NewTradeService(db)
		user := testutil.CreateTestUser(t, db)

		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		inputs := []TradeInput{
			{Date: base, Account: "ibkr", StrategyTag: "momentum", Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 10, Price: 100},
			{Date: base.Add(time.Hour), Account: "schwab", StrategyTag: "longterm", Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 10, Price: 200},
			{Date: base.Add(2 * time.Hour), Account: "ibkr", StrategyTag: "momentum", Symbol: "MSFT", Side: models.TradeSideBuy, Quantity: 5, Price: 300},
		}
		for _, in := range inputs {
			if _, err := svc.CreateTrade(user.ID, in); err != nil {
				t.Fatalf("failed to seed trade: %v", err)
			}
		}
		return svc, user.ID, func() { testutil.TeardownTestDB(t, db) }
	}

	t.Run("per_account", func(t *testing.T) {
		svc, userID, teardown := setup(t)
		defer teardown()

		positions, err := svc.GetPositions(userID)
		testutil.AssertNoError(t, err)
		if len(positions) != 3 {
			t.Fatalf("expected 3 per-account positions, got %d", len(positions))
		}
	})

	t.Run("consolidated", func(t *testing.T) {
		svc, userID, teardown := setup(t)
		defer teardown()

		consolidated, err := svc.GetConsolidatedPositions(userID)
		testutil.AssertNoError(t, err)
		if len(consolidated) != 2 {
			t.Fatalf("expected 2 consolidated positions, got %d", len(consolidated))
		}
		for _, p := range consolidated {
			if p.Symbol == "AAPL" {
				if p.Quantity != 20 || p.AverageCost != 150 {
					t.Errorf("expected AAPL 20 @ 150 consolidated, got %f @ %f", p.Quantity, p.AverageCost)
				}
			}
		}
	})

	t.Run("by_strategy", func(t *testing.T) {
		svc, userID, teardown := setup(t)
		defer teardown()

		momentum, err := svc.GetStrategyPositions(userID, "momentum")
		testutil.AssertNoError(t, err)
		if len(momentum) != 2 {
			t.Fatalf("expected 2 momentum positions, got %d", len(momentum))
		}
		for _, p := range momentum {
			if p.Symbol == "AAPL" && p.Quantity != 10 {
				t.Errorf("expected momentum AAPL quantity 10, got %f", p.Quantity)
			}
		}
	})

	t.Run("empty_strategy_tag", func(t *testing.T) {
		svc, userID, teardown := setup(t)
		defer teardown()

		_, err := svc.GetStrategyPositions(userID, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
