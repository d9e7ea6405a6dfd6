package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/models"
)

// settingsService handles per-user settings business logic.
type settingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a new SettingsServicer.
func NewSettingsService(db *gorm.DB) SettingsServicer {
	return &settingsService{db: db}
}

// GetSettings retrieves the user's settings, creating a default row on
// first access so callers never see a missing-settings state.
func (s *settingsService) GetSettings(userID uint) (*models.Settings, error) {
	var settings models.Settings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	settings = models.Settings{
		UserID:                userID,
		BaseCurrency:          "USD",
		DriftThresholdPercent: 5,
		WithdrawalRatePercent: 4,
		ExpectedReturnPercent: 5,
	}
	if err := s.db.Create(&settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &settings, nil
}

// UpdateSettings applies the non-nil fields of the update to the user's
// settings row.
func (s *settingsService) UpdateSettings(userID uint, update SettingsUpdate) (*models.Settings, error) {
	settings, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	if update.BaseCurrency != nil {
		settings.BaseCurrency = *update.BaseCurrency
	}
	if update.Cash != nil {
		if *update.Cash < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cash cannot be negative")
		}
		settings.Cash = *update.Cash
	}
	if update.DriftThresholdPercent != nil {
		if *update.DriftThresholdPercent <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "drift threshold must be positive")
		}
		settings.DriftThresholdPercent = *update.DriftThresholdPercent
	}
	if update.AnnualExpenses != nil {
		if *update.AnnualExpenses < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "annual expenses cannot be negative")
		}
		settings.AnnualExpenses = *update.AnnualExpenses
	}
	if update.WithdrawalRatePercent != nil {
		if *update.WithdrawalRatePercent <= 0 || *update.WithdrawalRatePercent > 100 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "withdrawal rate must be between 0 and 100")
		}
		settings.WithdrawalRatePercent = *update.WithdrawalRatePercent
	}
	if update.ExpectedReturnPercent != nil {
		settings.ExpectedReturnPercent = *update.ExpectedReturnPercent
	}
	if update.MonthlySavings != nil {
		if *update.MonthlySavings < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly savings cannot be negative")
		}
		settings.MonthlySavings = *update.MonthlySavings
	}

	if err := s.db.Save(settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return settings, nil
}
