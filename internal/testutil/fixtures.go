package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fireboard/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestSettings creates a settings row with the given cash balance and
// default thresholds.
func CreateTestSettings(t *testing.T, db *gorm.DB, userID uint, cash float64) *models.Settings {
	t.Helper()

	settings := &models.Settings{
		UserID:                userID,
		BaseCurrency:          "USD",
		Cash:                  cash,
		DriftThresholdPercent: 5,
		WithdrawalRatePercent: 4,
		ExpectedReturnPercent: 5,
	}
	if err := db.Create(settings).Error; err != nil {
		t.Fatalf("failed to create test settings: %v", err)
	}
	return settings
}

// CreateTestAsset creates an allocation asset with the given weights and
// valuation.
func CreateTestAsset(t *testing.T, db *gorm.DB, userID uint, symbol string, targetWeight, price, units float64) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		UserID:              userID,
		Symbol:              symbol,
		Name:                fmt.Sprintf("Test Asset %s", symbol),
		TargetWeightPercent: targetWeight,
		Price:               price,
		AverageCost:         price,
		Units:               units,
		Currency:            "USD",
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestTrade creates a trade in the ledger without recomputing
// positions. Successive fixtures get strictly increasing dates so the fold
// applies them in creation order.
func CreateTestTrade(t *testing.T, db *gorm.DB, userID uint, symbol string, side models.TradeSide, quantity, price float64) *models.Trade {
	t.Helper()

	trade := &models.Trade{
		UserID:      userID,
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(nextID()) * time.Minute),
		Account:     "default",
		StrategyTag: "unassigned",
		Symbol:      symbol,
		Side:        side,
		Quantity:    quantity,
		Price:       price,
		TotalValue:  quantity * price,
	}
	if err := db.Create(trade).Error; err != nil {
		t.Fatalf("failed to create test trade: %v", err)
	}
	return trade
}

// CreateTestJournalEntry creates a closed journal entry with the given
// outcome and R result.
func CreateTestJournalEntry(t *testing.T, db *gorm.DB, userID uint, outcome models.JournalOutcome, resultR float64) *models.JournalEntry {
	t.Helper()

	entry := &models.JournalEntry{
		UserID:      userID,
		Date:        time.Now(),
		Symbol:      fmt.Sprintf("TST%d", nextID()),
		Direction:   models.JournalDirectionLong,
		StrategyTag: "momentum",
		ResultR:     resultR,
		Outcome:     outcome,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test journal entry: %v", err)
	}
	return entry
}
