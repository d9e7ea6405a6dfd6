package services

import (
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/models"
	"fireboard/internal/pagination"
)

// projectionHorizonYears caps the years-to-FI projection. Beyond this the
// target is reported as not achievable on current inputs.
const projectionHorizonYears = 100

// fireService computes FIRE progress and records net worth snapshots.
type fireService struct {
	db              *gorm.DB
	settingsService SettingsServicer
}

// NewFireService creates a new FireServicer.
func NewFireService(db *gorm.DB, settingsService SettingsServicer) FireServicer {
	return &fireService{db: db, settingsService: settingsService}
}

// investedValue sums price * units over the user's allocation assets.
func (s *fireService) investedValue(userID uint) (float64, error) {
	var assets []models.Asset
	if err := s.db.Where("user_id = ?", userID).Find(&assets).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var total float64
	for _, a := range assets {
		total += a.Price * a.Units
	}
	return total, nil
}

// GetProgress computes the user's current FIRE state from settings and the
// live portfolio value.
func (s *fireService) GetProgress(userID uint) (*FireProgress, error) {
	settings, err := s.settingsService.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	invested, err := s.investedValue(userID)
	if err != nil {
		return nil, err
	}

	progress := &FireProgress{
		InvestedValue:         invested,
		CashBalance:           settings.Cash,
		NetWorth:              invested + settings.Cash,
		AnnualExpenses:        settings.AnnualExpenses,
		WithdrawalRatePercent: settings.WithdrawalRatePercent,
		MonthlySavings:        settings.MonthlySavings,
		ExpectedReturnPercent: settings.ExpectedReturnPercent,
	}

	if settings.WithdrawalRatePercent > 0 {
		progress.TargetNumber = settings.AnnualExpenses / (settings.WithdrawalRatePercent / 100)
	}
	if progress.TargetNumber > 0 {
		progress.ProgressPercent = progress.NetWorth / progress.TargetNumber * 100
	}

	progress.YearsToFI, progress.Achievable = projectYearsToFI(
		progress.NetWorth,
		progress.TargetNumber,
		settings.MonthlySavings,
		settings.ExpectedReturnPercent,
	)

	return progress, nil
}

// projectYearsToFI walks a month-by-month projection of net worth growing at
// the expected return with monthly contributions until the target is met.
// Returns (0, true) when the target is already met or is zero, and
// (0, false) when the horizon is exceeded.
func projectYearsToFI(netWorth, target, monthlySavings, annualReturnPercent float64) (float64, bool) {
	if target <= 0 || netWorth >= target {
		return 0, true
	}

	monthlyRate := math.Pow(1+annualReturnPercent/100, 1.0/12) - 1
	value := netWorth
	for month := 1; month <= projectionHorizonYears*12; month++ {
		value = value*(1+monthlyRate) + monthlySavings
		if value >= target {
			return float64(month) / 12, true
		}
	}
	return 0, false
}

// RecordSnapshot stores the current FIRE state as a snapshot. One snapshot
// exists per user per recording time; recording again at the same time
// updates the existing row.
func (s *fireService) RecordSnapshot(userID uint, recordedAt time.Time) (*models.FireSnapshot, error) {
	progress, err := s.GetProgress(userID)
	if err != nil {
		return nil, err
	}

	snapshot := &models.FireSnapshot{
		UserID:          userID,
		RecordedAt:      recordedAt,
		NetWorth:        progress.NetWorth,
		InvestedValue:   progress.InvestedValue,
		CashBalance:     progress.CashBalance,
		TargetNumber:    progress.TargetNumber,
		ProgressPercent: progress.ProgressPercent,
	}

	var existing models.FireSnapshot
	result := s.db.Where("user_id = ? AND recorded_at = ?", userID, recordedAt).First(&existing)
	if result.Error == nil {
		if err := s.db.Model(&existing).Updates(map[string]interface{}{
			"net_worth":        snapshot.NetWorth,
			"invested_value":   snapshot.InvestedValue,
			"cash_balance":     snapshot.CashBalance,
			"target_number":    snapshot.TargetNumber,
			"progress_percent": snapshot.ProgressPercent,
		}).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		existing.NetWorth = snapshot.NetWorth
		existing.InvestedValue = snapshot.InvestedValue
		existing.CashBalance = snapshot.CashBalance
		existing.TargetNumber = snapshot.TargetNumber
		existing.ProgressPercent = snapshot.ProgressPercent
		return &existing, nil
	}

	if err := s.db.Create(snapshot).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return snapshot, nil
}

// GetSnapshots returns the user's snapshots, newest first.
func (s *fireService) GetSnapshots(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.FireSnapshot], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.FireSnapshot{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.FireSnapshot
	if err := base.Order("recorded_at DESC").Scopes(pagination.Paginate(page)).Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}
