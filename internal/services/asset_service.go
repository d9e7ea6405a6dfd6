package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/logger"
	"fireboard/internal/models"
	"fireboard/internal/pagination"
	"fireboard/internal/quote"
	"fireboard/internal/rebalance"
)

// assetService handles allocation assets and the rebalancing plan.
type assetService struct {
	db              *gorm.DB
	settingsService SettingsServicer
	quoteProvider   quote.Provider
}

// NewAssetService creates a new AssetServicer.
func NewAssetService(db *gorm.DB, settingsService SettingsServicer, quoteProvider quote.Provider) AssetServicer {
	return &assetService{db: db, settingsService: settingsService, quoteProvider: quoteProvider}
}

// CreateAsset adds a symbol to the user's target allocation.
func (s *assetService) CreateAsset(
	userID uint,
	symbol, name string,
	targetWeightPercent, price, averageCost, units float64,
	locked bool,
	currency string,
) (*models.Asset, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}
	if targetWeightPercent < 0 || targetWeightPercent > 100 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target weight must be between 0 and 100")
	}
	if price < 0 || averageCost < 0 || units < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price, average cost and units cannot be negative")
	}

	var count int64
	s.db.Model(&models.Asset{}).Where("user_id = ? AND symbol = ?", userID, symbol).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateAsset
	}

	asset := &models.Asset{
		UserID:              userID,
		Symbol:              symbol,
		Name:                name,
		TargetWeightPercent: targetWeightPercent,
		Price:               price,
		AverageCost:         averageCost,
		Units:               units,
		Locked:              locked,
		Currency:            strings.ToUpper(currency),
	}

	if err := s.db.Create(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return asset, nil
}

// GetUserAssets returns a paginated list of the user's allocation assets.
func (s *assetService) GetUserAssets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Asset{}).Where("user_id = ?", userID).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var assets []models.Asset
	if err := s.db.Where("user_id = ?", userID).Order("symbol ASC").
		Scopes(pagination.Paginate(page)).Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(assets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAssetByID returns an asset if it belongs to the user.
func (s *assetService) GetAssetByID(userID, assetID uint) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.Where("user_id = ?", userID).First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}

// UpdateAsset applies the non-nil fields of the update to an asset.
func (s *assetService) UpdateAsset(userID, assetID uint, update AssetUpdate) (*models.Asset, error) {
	asset, err := s.GetAssetByID(userID, assetID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		asset.Name = *update.Name
	}
	if update.TargetWeightPercent != nil {
		if *update.TargetWeightPercent < 0 || *update.TargetWeightPercent > 100 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target weight must be between 0 and 100")
		}
		asset.TargetWeightPercent = *update.TargetWeightPercent
	}
	if update.Price != nil {
		if *update.Price < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price cannot be negative")
		}
		asset.Price = *update.Price
		now := time.Now()
		asset.PriceUpdatedAt = &now
	}
	if update.AverageCost != nil {
		if *update.AverageCost < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "average cost cannot be negative")
		}
		asset.AverageCost = *update.AverageCost
	}
	if update.Units != nil {
		if *update.Units < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "units cannot be negative")
		}
		asset.Units = *update.Units
	}
	if update.Locked != nil {
		asset.Locked = *update.Locked
	}
	if update.Currency != nil {
		asset.Currency = strings.ToUpper(*update.Currency)
	}

	if err := s.db.Save(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return asset, nil
}

// DeleteAsset soft-deletes an asset from the allocation.
func (s *assetService) DeleteAsset(userID, assetID uint) error {
	asset, err := s.GetAssetByID(userID, assetID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(asset).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RebalancePlan computes buy/sell actions for the user's current allocation
// using the cash balance and drift threshold from settings.
func (s *assetService) RebalancePlan(userID uint) (*RebalancePlan, error) {
	settings, err := s.settingsService.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	var assets []models.Asset
	if err := s.db.Where("user_id = ?", userID).Order("symbol ASC").Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	inputs := make([]rebalance.Asset, len(assets))
	for i, a := range assets {
		inputs[i] = rebalance.Asset{
			Symbol:              a.Symbol,
			TargetWeightPercent: a.TargetWeightPercent,
			Price:               a.Price,
			AverageCost:         a.AverageCost,
			Units:               a.Units,
		}
	}

	plan := &RebalancePlan{
		Results:               rebalance.Rebalance(inputs, settings.Cash, settings.DriftThresholdPercent),
		Summary:               rebalance.Summarize(inputs, settings.Cash),
		Cash:                  settings.Cash,
		DriftThresholdPercent: settings.DriftThresholdPercent,
	}
	return plan, nil
}

// RefreshPrices fetches a fresh quote for every unlocked asset. Failures are
// reported per symbol and never abort the run; the asset keeps its stored
// price.
func (s *assetService) RefreshPrices(ctx context.Context, userID uint) (*PriceRefreshResult, error) {
	var assets []models.Asset
	if err := s.db.Where("user_id = ?", userID).Order("symbol ASC").Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	log := logger.Get()
	result := &PriceRefreshResult{Failures: []PriceRefreshFailure{}}

	for i := range assets {
		asset := &assets[i]
		if asset.Locked {
			result.Skipped++
			continue
		}

		q, err := s.quoteProvider.FetchQuote(ctx, asset.Symbol)
		if err != nil {
			log.Warnw("quote fetch failed", "symbol", asset.Symbol, "error", err)
			result.Failures = append(result.Failures, PriceRefreshFailure{
				Symbol: asset.Symbol,
				Reason: err.Error(),
			})
			continue
		}

		now := time.Now()
		updates := map[string]interface{}{
			"price":            q.Price,
			"price_updated_at": now,
		}
		if q.Currency != "" {
			updates["currency"] = q.Currency
		}
		if err := s.db.Model(asset).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result.Updated++
	}

	return result, nil
}
