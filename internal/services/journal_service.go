package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/models"
	"fireboard/internal/pagination"
)

// journalService handles trading journal business logic.
type journalService struct {
	db *gorm.DB
}

// NewJournalService creates a new JournalServicer.
func NewJournalService(db *gorm.DB) JournalServicer {
	return &journalService{db: db}
}

func validateJournalInput(input JournalEntryInput) error {
	if input.Symbol == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}
	switch input.Direction {
	case models.JournalDirectionLong, models.JournalDirectionShort:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "direction must be long or short")
	}
	switch input.Outcome {
	case models.JournalOutcomeWin, models.JournalOutcomeLoss, models.JournalOutcomeBreakeven, models.JournalOutcomeOpen:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "outcome must be win, loss, breakeven or open")
	}
	if input.EntryPrice < 0 || input.ExitPrice < 0 || input.Quantity < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "prices and quantity cannot be negative")
	}
	return nil
}

// CreateEntry records a new journal entry.
func (s *journalService) CreateEntry(userID uint, input JournalEntryInput) (*models.JournalEntry, error) {
	if err := validateJournalInput(input); err != nil {
		return nil, err
	}

	entry := &models.JournalEntry{
		UserID:      userID,
		Date:        input.Date,
		Symbol:      input.Symbol,
		Direction:   input.Direction,
		Setup:       input.Setup,
		StrategyTag: input.StrategyTag,
		EntryPrice:  input.EntryPrice,
		ExitPrice:   input.ExitPrice,
		Quantity:    input.Quantity,
		ResultR:     input.ResultR,
		Outcome:     input.Outcome,
		Notes:       input.Notes,
	}

	if err := s.db.Create(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entry, nil
}

// GetUserEntries returns a paginated, filtered list of journal entries,
// newest first.
func (s *journalService) GetUserEntries(userID uint, page pagination.PageRequest, filter JournalFilter) (*pagination.PageResponse[models.JournalEntry], error) {
	page.Defaults()

	query := s.db.Model(&models.JournalEntry{}).Where("user_id = ?", userID)
	if filter.Symbol != nil {
		query = query.Where("symbol = ?", *filter.Symbol)
	}
	if filter.Outcome != nil {
		query = query.Where("outcome = ?", *filter.Outcome)
	}
	if filter.StrategyTag != nil {
		query = query.Where("strategy_tag = ?", *filter.StrategyTag)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.JournalEntry
	if err := query.Order("date DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetEntryByID returns a journal entry if it belongs to the user.
func (s *journalService) GetEntryByID(userID, entryID uint) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	if err := s.db.Where("user_id = ?", userID).First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrJournalEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entry, nil
}

// UpdateEntry replaces the content of a journal entry.
func (s *journalService) UpdateEntry(userID, entryID uint, input JournalEntryInput) (*models.JournalEntry, error) {
	entry, err := s.GetEntryByID(userID, entryID)
	if err != nil {
		return nil, err
	}
	if err := validateJournalInput(input); err != nil {
		return nil, err
	}

	entry.Date = input.Date
	entry.Symbol = input.Symbol
	entry.Direction = input.Direction
	entry.Setup = input.Setup
	entry.StrategyTag = input.StrategyTag
	entry.EntryPrice = input.EntryPrice
	entry.ExitPrice = input.ExitPrice
	entry.Quantity = input.Quantity
	entry.ResultR = input.ResultR
	entry.Outcome = input.Outcome
	entry.Notes = input.Notes

	if err := s.db.Save(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entry, nil
}

// DeleteEntry removes a journal entry.
func (s *journalService) DeleteEntry(userID, entryID uint) error {
	entry, err := s.GetEntryByID(userID, entryID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetStats aggregates closed entries into win rate and expectancy in R.
// Open entries are counted but excluded from the rate math.
func (s *journalService) GetStats(userID uint) (*JournalStats, error) {
	var entries []models.JournalEntry
	if err := s.db.Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &JournalStats{TotalEntries: len(entries)}
	var winR, lossR float64
	for _, e := range entries {
		switch e.Outcome {
		case models.JournalOutcomeWin:
			stats.Wins++
			winR += e.ResultR
		case models.JournalOutcomeLoss:
			stats.Losses++
			lossR += e.ResultR
		case models.JournalOutcomeBreakeven:
			stats.Breakeven++
		case models.JournalOutcomeOpen:
			stats.Open++
		}
	}

	closed := stats.Wins + stats.Losses + stats.Breakeven
	if closed > 0 {
		stats.WinRatePct = float64(stats.Wins) / float64(closed) * 100
	}
	if stats.Wins > 0 {
		stats.AvgWinR = winR / float64(stats.Wins)
	}
	if stats.Losses > 0 {
		stats.AvgLossR = lossR / float64(stats.Losses)
	}
	if closed > 0 {
		// Expectancy is the mean R of closed trades.
		stats.ExpectancyR = (winR + lossR) / float64(closed)
	}

	return stats, nil
}
