package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fireboard/internal/errors"
	"fireboard/internal/services"
)

// SettingsHandler handles settings-related requests.
type SettingsHandler struct {
	settingsService services.SettingsServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService services.SettingsServicer) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// UpdateSettingsRequest represents the request payload for updating settings.
// All fields are optional; only provided fields are changed.
type UpdateSettingsRequest struct {
	BaseCurrency          *string  `json:"base_currency" binding:"omitempty,iso4217"`
	Cash                  *float64 `json:"cash" binding:"omitempty,gte=0"`
	DriftThresholdPercent *float64 `json:"drift_threshold_percent" binding:"omitempty,gt=0,lte=100"`
	AnnualExpenses        *float64 `json:"annual_expenses" binding:"omitempty,gte=0"`
	WithdrawalRatePercent *float64 `json:"withdrawal_rate_percent" binding:"omitempty,gt=0,lte=100"`
	ExpectedReturnPercent *float64 `json:"expected_return_percent" binding:"omitempty,gte=-100,lte=100"`
	MonthlySavings        *float64 `json:"monthly_savings" binding:"omitempty,gte=0"`
}

// GetSettings returns the user's settings
// @Summary     Get settings
// @Description Get the authenticated user's dashboard settings, creating defaults on first access
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Settings "Settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	settings, err := h.settingsService.GetSettings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings updates the user's settings
// @Summary     Update settings
// @Description Update the authenticated user's dashboard settings
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateSettingsRequest true "Fields to update"
// @Success     200 {object} models.Settings "Updated settings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	settings, err := h.settingsService.UpdateSettings(userID, services.SettingsUpdate{
		BaseCurrency:          req.BaseCurrency,
		Cash:                  req.Cash,
		DriftThresholdPercent: req.DriftThresholdPercent,
		AnnualExpenses:        req.AnnualExpenses,
		WithdrawalRatePercent: req.WithdrawalRatePercent,
		ExpectedReturnPercent: req.ExpectedReturnPercent,
		MonthlySavings:        req.MonthlySavings,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
