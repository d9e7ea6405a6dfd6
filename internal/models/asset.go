package models

import "time"

// Asset represents one row of a user's target allocation: the symbol, the
// desired weight in the portfolio, and the current price/units/average cost
// used to compute drift. Prices are user-entered or refreshed from the quote
// provider. Locked marks an asset whose price is maintained by hand and is
// skipped on refresh.
type Asset struct {
	Base
	UserID              uint       `gorm:"not null;uniqueIndex:uq_assets_user_symbol" json:"user_id"`
	Symbol              string     `gorm:"not null;uniqueIndex:uq_assets_user_symbol" json:"symbol"`
	Name                string     `json:"name"`
	TargetWeightPercent float64    `gorm:"not null;default:0" json:"target_weight_percent"`
	Price               float64    `gorm:"not null;default:0" json:"price"`
	AverageCost         float64    `gorm:"not null;default:0" json:"average_cost"`
	Units               float64    `gorm:"not null;default:0" json:"units"`
	Locked              bool       `gorm:"not null;default:false" json:"locked"`
	Currency            string     `gorm:"size:3" json:"currency,omitempty"`
	PriceUpdatedAt      *time.Time `json:"price_updated_at,omitempty"`
}
