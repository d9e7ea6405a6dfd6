package services

import (
	"errors"
	"io"
	"time"

	"gorm.io/gorm"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/logger"
	"fireboard/internal/models"
	"fireboard/internal/pagination"
	"fireboard/internal/positions"
	"fireboard/internal/tradeimport"
	"fireboard/internal/uuid"
)

// tradeService handles the trade ledger and the positions derived from it.
type tradeService struct {
	db *gorm.DB
}

// NewTradeService creates a new TradeServicer.
func NewTradeService(db *gorm.DB) TradeServicer {
	return &tradeService{db: db}
}

func foldTrade(input TradeInput) positions.Trade {
	return positions.Trade{
		Date:        input.Date,
		Account:     input.Account,
		StrategyTag: input.StrategyTag,
		Symbol:      input.Symbol,
		Side:        positions.Side(input.Side),
		Quantity:    input.Quantity,
		Price:       input.Price,
	}
}

// CreateTrade records a manual trade and recomputes positions.
func (s *tradeService) CreateTrade(userID uint, input TradeInput) (*models.Trade, error) {
	if input.Symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTrade, "symbol is required")
	}
	if err := positions.Validate(foldTrade(input)); err != nil {
		return nil, err
	}

	account := input.Account
	if account == "" {
		account = tradeimport.DefaultAccount
	}
	strategyTag := input.StrategyTag
	if strategyTag == "" {
		strategyTag = tradeimport.DefaultStrategyTag
	}

	trade := &models.Trade{
		UserID:      userID,
		Date:        input.Date,
		Account:     account,
		StrategyTag: strategyTag,
		Symbol:      input.Symbol,
		Side:        input.Side,
		Quantity:    input.Quantity,
		Price:       input.Price,
		TotalValue:  input.Quantity * input.Price,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(trade).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return recomputePositions(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return trade, nil
}

// GetUserTrades returns a paginated, filtered list of the user's trades,
// newest first.
func (s *tradeService) GetUserTrades(userID uint, page pagination.PageRequest, filter TradeFilter) (*pagination.PageResponse[models.Trade], error) {
	page.Defaults()

	query := s.db.Model(&models.Trade{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	if filter.Account != nil {
		query = query.Where("account = ?", *filter.Account)
	}
	if filter.Symbol != nil {
		query = query.Where("symbol = ?", *filter.Symbol)
	}
	if filter.StrategyTag != nil {
		query = query.Where("strategy_tag = ?", *filter.StrategyTag)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var trades []models.Trade
	if err := query.Order("date DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&trades).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(trades, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTradeByID returns a trade if it belongs to the user.
func (s *tradeService) GetTradeByID(userID, tradeID uint) (*models.Trade, error) {
	var trade models.Trade
	if err := s.db.Where("user_id = ?", userID).First(&trade, tradeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTradeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &trade, nil
}

// UpdateTrade replaces the content of a trade and recomputes positions.
func (s *tradeService) UpdateTrade(userID, tradeID uint, input TradeInput) (*models.Trade, error) {
	trade, err := s.GetTradeByID(userID, tradeID)
	if err != nil {
		return nil, err
	}
	if input.Symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTrade, "symbol is required")
	}
	if err := positions.Validate(foldTrade(input)); err != nil {
		return nil, err
	}

	trade.Date = input.Date
	if input.Account != "" {
		trade.Account = input.Account
	}
	if input.StrategyTag != "" {
		trade.StrategyTag = input.StrategyTag
	}
	trade.Symbol = input.Symbol
	trade.Side = input.Side
	trade.Quantity = input.Quantity
	trade.Price = input.Price
	trade.TotalValue = input.Quantity * input.Price

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Save(trade).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return recomputePositions(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return trade, nil
}

// DeleteTrade removes a trade from the ledger and recomputes positions.
func (s *tradeService) DeleteTrade(userID, tradeID uint) error {
	trade, err := s.GetTradeByID(userID, tradeID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Delete(trade).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return recomputePositions(tx, userID)
	})
}

// ImportCSV parses a broker CSV, interprets its rows, deduplicates against
// the stored ledger, persists new trades under one batch ID, and recomputes
// positions. Unparseable rows are reported, not fatal.
func (s *tradeService) ImportCSV(userID uint, r io.Reader, filename string) (*ImportResult, error) {
	rows, err := tradeimport.ParseCSV(r, filename)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrEmptyImport
	}

	existing, err := s.existingTradeKeys(userID)
	if err != nil {
		return nil, err
	}

	batch := tradeimport.InterpretBatch(rows, existing)
	if len(batch.Trades) == 0 && len(batch.Skipped) == 0 {
		return nil, apperrors.ErrEmptyImport
	}

	batchID := uuid.New()
	now := time.Now()

	records := make([]models.Trade, len(batch.Trades))
	for i, t := range batch.Trades {
		records[i] = models.Trade{
			UserID:        userID,
			Date:          t.Date,
			Account:       t.Account,
			StrategyTag:   t.StrategyTag,
			Symbol:        t.Symbol,
			Side:          models.TradeSide(t.Side),
			Quantity:      t.Quantity,
			Price:         t.Price,
			TotalValue:    t.Quantity * t.Price,
			ImportBatchID: batchID,
			ImportedAt:    &now,
		}
	}

	if len(records) > 0 {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if txErr := tx.CreateInBatches(records, 200).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			return recomputePositions(tx, userID)
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Get().Infow("csv import complete",
		"user_id", userID,
		"batch_id", batchID,
		"file", filename,
		"imported", len(records),
		"skipped", len(batch.Skipped),
	)

	return &ImportResult{
		BatchID:  batchID,
		Imported: len(records),
		Skipped:  batch.Skipped,
	}, nil
}

// existingTradeKeys builds the dedup identity set for the user's ledger.
func (s *tradeService) existingTradeKeys(userID uint) (map[string]bool, error) {
	var trades []models.Trade
	if err := s.db.Where("user_id = ?", userID).Find(&trades).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	keys := make(map[string]bool, len(trades))
	for _, t := range trades {
		keys[tradeimport.Key(storedTrade(t))] = true
	}
	return keys, nil
}

func storedTrade(t models.Trade) positions.Trade {
	return positions.Trade{
		Date:        t.Date,
		Account:     t.Account,
		StrategyTag: t.StrategyTag,
		Symbol:      t.Symbol,
		Side:        positions.Side(t.Side),
		Quantity:    t.Quantity,
		Price:       t.Price,
	}
}

// recomputePositions folds the user's full trade history and replaces the
// stored positions wholesale inside the caller's transaction.
func recomputePositions(tx *gorm.DB, userID uint) error {
	var trades []models.Trade
	if err := tx.Where("user_id = ?", userID).Find(&trades).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	inputs := make([]positions.Trade, len(trades))
	for i, t := range trades {
		inputs[i] = storedTrade(t)
	}

	folded, rejected := positions.Compute(inputs)
	if len(rejected) > 0 {
		// Stored trades pass Validate on the way in, so this only fires on
		// rows mutated outside the service.
		logger.Get().Warnw("stored trades rejected during recompute", "user_id", userID, "count", len(rejected))
	}

	if err := tx.Where("user_id = ?", userID).Delete(&models.Position{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if len(folded) == 0 {
		return nil
	}

	now := time.Now()
	records := make([]models.Position, len(folded))
	for i, p := range folded {
		records[i] = models.Position{
			UserID:       userID,
			Symbol:       p.Symbol,
			Account:      p.Account,
			Quantity:     p.Quantity,
			AverageCost:  p.AverageCost,
			StrategyTags: models.TagList(p.StrategyTags),
			ComputedAt:   now,
		}
	}
	if err := tx.CreateInBatches(records, 200).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecomputePositions rebuilds the user's positions from the full ledger.
func (s *tradeService) RecomputePositions(userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return recomputePositions(tx, userID)
	})
}

// GetPositions returns the stored per-account positions.
func (s *tradeService) GetPositions(userID uint) ([]models.Position, error) {
	var stored []models.Position
	if err := s.db.Where("user_id = ?", userID).
		Order("symbol ASC, account ASC").Find(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stored, nil
}

// GetConsolidatedPositions merges the stored positions across accounts into
// one row per symbol.
func (s *tradeService) GetConsolidatedPositions(userID uint) ([]positions.Position, error) {
	stored, err := s.GetPositions(userID)
	if err != nil {
		return nil, err
	}

	perAccount := make([]positions.Position, len(stored))
	for i, p := range stored {
		perAccount[i] = positions.Position{
			Symbol:       p.Symbol,
			Account:      p.Account,
			Quantity:     p.Quantity,
			AverageCost:  p.AverageCost,
			StrategyTags: []string(p.StrategyTags),
		}
	}
	return positions.Consolidate(perAccount), nil
}

// GetStrategyPositions folds only the trades tagged with one strategy and
// consolidates across accounts. Tag sets on stored positions cannot split
// quantity between strategies, so this view refolds from the ledger.
func (s *tradeService) GetStrategyPositions(userID uint, strategyTag string) ([]positions.Position, error) {
	if strategyTag == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "strategy tag is required")
	}

	var trades []models.Trade
	if err := s.db.Where("user_id = ?", userID).Find(&trades).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	inputs := make([]positions.Trade, len(trades))
	for i, t := range trades {
		inputs[i] = storedTrade(t)
	}

	filtered := positions.FilterByStrategy(inputs, strategyTag)
	folded, _ := positions.Compute(filtered)
	return positions.Consolidate(folded), nil
}
