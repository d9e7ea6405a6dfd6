package services

import (
	"context"
	"io"
	"time"

	"fireboard/internal/models"
	"fireboard/internal/pagination"
	"fireboard/internal/positions"
	"fireboard/internal/rebalance"
	"fireboard/internal/tradeimport"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// SettingsUpdate holds optional settings fields; nil means "leave as is".
type SettingsUpdate struct {
	BaseCurrency          *string
	Cash                  *float64
	DriftThresholdPercent *float64
	AnnualExpenses        *float64
	WithdrawalRatePercent *float64
	ExpectedReturnPercent *float64
	MonthlySavings        *float64
}

// SettingsServicer defines the contract for per-user settings.
type SettingsServicer interface {
	GetSettings(userID uint) (*models.Settings, error)
	UpdateSettings(userID uint, update SettingsUpdate) (*models.Settings, error)
}

// AssetUpdate holds optional asset fields; nil means "leave as is".
type AssetUpdate struct {
	Name                *string
	TargetWeightPercent *float64
	Price               *float64
	AverageCost         *float64
	Units               *float64
	Locked              *bool
	Currency            *string
}

// RebalancePlan is the full output of a rebalancing run: per-asset actions
// plus the portfolio summary and the inputs the plan was computed with.
type RebalancePlan struct {
	Results               []rebalance.Result `json:"results"`
	Summary               rebalance.Summary  `json:"summary"`
	Cash                  float64            `json:"cash"`
	DriftThresholdPercent float64            `json:"drift_threshold_percent"`
}

// PriceRefreshFailure reports one symbol whose quote could not be fetched.
// The asset keeps its last stored price.
type PriceRefreshFailure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// PriceRefreshResult summarizes a quote refresh run.
type PriceRefreshResult struct {
	Updated  int                   `json:"updated"`
	Skipped  int                   `json:"skipped"`
	Failures []PriceRefreshFailure `json:"failures"`
}

// AssetServicer defines the contract for allocation assets and rebalancing.
type AssetServicer interface {
	CreateAsset(userID uint, symbol, name string, targetWeightPercent, price, averageCost, units float64, locked bool, currency string) (*models.Asset, error)
	GetUserAssets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error)
	GetAssetByID(userID, assetID uint) (*models.Asset, error)
	UpdateAsset(userID, assetID uint, update AssetUpdate) (*models.Asset, error)
	DeleteAsset(userID, assetID uint) error
	RebalancePlan(userID uint) (*RebalancePlan, error)
	RefreshPrices(ctx context.Context, userID uint) (*PriceRefreshResult, error)
}

// TradeFilter holds optional filter parameters for listing trades.
type TradeFilter struct {
	FromDate    *time.Time
	ToDate      *time.Time
	Account     *string
	Symbol      *string
	StrategyTag *string
}

// TradeInput is the caller-supplied content of a trade record.
type TradeInput struct {
	Date        time.Time
	Account     string
	StrategyTag string
	Symbol      string
	Side        models.TradeSide
	Quantity    float64
	Price       float64
}

// ImportResult summarizes one CSV import batch.
type ImportResult struct {
	BatchID  string                `json:"batch_id"`
	Imported int                   `json:"imported"`
	Skipped  []tradeimport.Skipped `json:"skipped"`
}

// TradeServicer defines the contract for trade history and derived
// positions. Every mutation recomputes positions from the full history.
type TradeServicer interface {
	CreateTrade(userID uint, input TradeInput) (*models.Trade, error)
	GetUserTrades(userID uint, page pagination.PageRequest, filter TradeFilter) (*pagination.PageResponse[models.Trade], error)
	GetTradeByID(userID, tradeID uint) (*models.Trade, error)
	UpdateTrade(userID, tradeID uint, input TradeInput) (*models.Trade, error)
	DeleteTrade(userID, tradeID uint) error
	ImportCSV(userID uint, r io.Reader, filename string) (*ImportResult, error)
	GetPositions(userID uint) ([]models.Position, error)
	GetConsolidatedPositions(userID uint) ([]positions.Position, error)
	GetStrategyPositions(userID uint, strategyTag string) ([]positions.Position, error)
	RecomputePositions(userID uint) error
}

// JournalFilter holds optional filter parameters for listing journal entries.
type JournalFilter struct {
	Symbol      *string
	Outcome     *models.JournalOutcome
	StrategyTag *string
}

// JournalEntryInput is the caller-supplied content of a journal entry.
type JournalEntryInput struct {
	Date        time.Time
	Symbol      string
	Direction   models.JournalDirection
	Setup       string
	StrategyTag string
	EntryPrice  float64
	ExitPrice   float64
	Quantity    float64
	ResultR     float64
	Outcome     models.JournalOutcome
	Notes       string
}

// JournalStats aggregates closed-trade performance in R multiples.
type JournalStats struct {
	TotalEntries int     `json:"total_entries"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Breakeven    int     `json:"breakeven"`
	Open         int     `json:"open"`
	WinRatePct   float64 `json:"win_rate_pct"`
	AvgWinR      float64 `json:"avg_win_r"`
	AvgLossR     float64 `json:"avg_loss_r"`
	ExpectancyR  float64 `json:"expectancy_r"`
}

// JournalServicer defines the contract for the trading journal.
type JournalServicer interface {
	CreateEntry(userID uint, input JournalEntryInput) (*models.JournalEntry, error)
	GetUserEntries(userID uint, page pagination.PageRequest, filter JournalFilter) (*pagination.PageResponse[models.JournalEntry], error)
	GetEntryByID(userID, entryID uint) (*models.JournalEntry, error)
	UpdateEntry(userID, entryID uint, input JournalEntryInput) (*models.JournalEntry, error)
	DeleteEntry(userID, entryID uint) error
	GetStats(userID uint) (*JournalStats, error)
}

// FireProgress is the current state of a user's path to financial
// independence.
type FireProgress struct {
	NetWorth              float64 `json:"net_worth"`
	InvestedValue         float64 `json:"invested_value"`
	CashBalance           float64 `json:"cash_balance"`
	AnnualExpenses        float64 `json:"annual_expenses"`
	WithdrawalRatePercent float64 `json:"withdrawal_rate_percent"`
	TargetNumber          float64 `json:"target_number"`
	ProgressPercent       float64 `json:"progress_percent"`
	MonthlySavings        float64 `json:"monthly_savings"`
	ExpectedReturnPercent float64 `json:"expected_return_percent"`
	YearsToFI             float64 `json:"years_to_fi"`
	Achievable            bool    `json:"achievable"`
}

// FireServicer defines the contract for FIRE progress tracking.
type FireServicer interface {
	GetProgress(userID uint) (*FireProgress, error)
	RecordSnapshot(userID uint, recordedAt time.Time) (*models.FireSnapshot, error)
	GetSnapshots(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.FireSnapshot], error)
}
