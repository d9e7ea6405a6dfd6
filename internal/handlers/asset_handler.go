package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/pagination"
	"fireboard/internal/services"
)

// AssetHandler handles allocation asset requests.
type AssetHandler struct {
	assetService services.AssetServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// CreateAssetRequest represents the request payload for creating an asset.
type CreateAssetRequest struct {
	Symbol              string  `json:"symbol" binding:"required,min=1,max=20"`
	Name                string  `json:"name" binding:"max=100"`
	TargetWeightPercent float64 `json:"target_weight_percent" binding:"gte=0,lte=100"`
	Price               float64 `json:"price" binding:"gte=0"`
	AverageCost         float64 `json:"average_cost" binding:"gte=0"`
	Units               float64 `json:"units" binding:"gte=0"`
	Locked              bool    `json:"locked"`
	Currency            string  `json:"currency" binding:"omitempty,iso4217"`
}

// UpdateAssetRequest represents the request payload for updating an asset.
// All fields are optional; only provided fields are changed.
type UpdateAssetRequest struct {
	Name                *string  `json:"name" binding:"omitempty,max=100"`
	TargetWeightPercent *float64 `json:"target_weight_percent" binding:"omitempty,gte=0,lte=100"`
	Price               *float64 `json:"price" binding:"omitempty,gte=0"`
	AverageCost         *float64 `json:"average_cost" binding:"omitempty,gte=0"`
	Units               *float64 `json:"units" binding:"omitempty,gte=0"`
	Locked              *bool    `json:"locked"`
	Currency            *string  `json:"currency" binding:"omitempty,iso4217"`
}

// CreateAsset adds an asset to the target allocation
// @Summary     Create an asset
// @Description Add a symbol to the authenticated user's target allocation
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAssetRequest true "Asset details"
// @Success     201 {object} models.Asset "Asset created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate symbol"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	asset, err := h.assetService.CreateAsset(
		userID,
		req.Symbol,
		req.Name,
		req.TargetWeightPercent,
		req.Price,
		req.AverageCost,
		req.Units,
		req.Locked,
		req.Currency,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// GetAssets lists the user's allocation assets
// @Summary     List assets
// @Description Get a paginated list of the authenticated user's allocation assets
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Asset] "Assets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets [get]
func (h *AssetHandler) GetAssets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.assetService.GetUserAssets(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAsset returns a single asset
// @Summary     Get an asset
// @Description Get one allocation asset by ID
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Success     200 {object} models.Asset "Asset"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.GetAssetByID(userID, assetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// UpdateAsset updates an asset
// @Summary     Update an asset
// @Description Update fields of an allocation asset
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Param       request body UpdateAssetRequest true "Fields to update"
// @Success     200 {object} models.Asset "Updated asset"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id} [put]
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	asset, err := h.assetService.UpdateAsset(userID, assetID, services.AssetUpdate{
		Name:                req.Name,
		TargetWeightPercent: req.TargetWeightPercent,
		Price:               req.Price,
		AverageCost:         req.AverageCost,
		Units:               req.Units,
		Locked:              req.Locked,
		Currency:            req.Currency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// DeleteAsset removes an asset
// @Summary     Delete an asset
// @Description Remove an asset from the target allocation
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.assetService.DeleteAsset(userID, assetID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted"})
}

// GetRebalancePlan computes the rebalancing plan
// @Summary     Get rebalance plan
// @Description Compute buy/sell actions to return the portfolio to its target allocation
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.RebalancePlan "Rebalance plan"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/rebalance [get]
func (h *AssetHandler) GetRebalancePlan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	plan, err := h.assetService.RebalancePlan(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// RefreshPrices refreshes quotes for unlocked assets
// @Summary     Refresh prices
// @Description Fetch fresh quotes for every unlocked asset; failures are reported per symbol
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PriceRefreshResult "Refresh result"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/refresh-prices [post]
func (h *AssetHandler) RefreshPrices(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.assetService.RefreshPrices(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
