package models

// Settings holds per-user dashboard configuration: the reporting currency,
// uninvested cash, the rebalancing drift tolerance, and the FIRE planning
// parameters. One row per user, created on demand with defaults.
type Settings struct {
	Base
	UserID                uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	BaseCurrency          string  `gorm:"size:3;not null;default:'USD'" json:"base_currency"`
	Cash                  float64 `gorm:"not null;default:0" json:"cash"`
	DriftThresholdPercent float64 `gorm:"not null;default:5" json:"drift_threshold_percent"`

	// FIRE planning
	AnnualExpenses        float64 `gorm:"not null;default:0" json:"annual_expenses"`
	WithdrawalRatePercent float64 `gorm:"not null;default:4" json:"withdrawal_rate_percent"`
	ExpectedReturnPercent float64 `gorm:"not null;default:5" json:"expected_return_percent"`
	MonthlySavings        float64 `gorm:"not null;default:0" json:"monthly_savings"`
}
