package models

import "time"

// TradeSide represents the direction of a trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Trade represents a single brokerage execution, either entered manually or
// imported from a broker CSV. Trades are append-only: edits replace the
// stored record, deletions remove it, and derived positions are always
// recomputed from the full trade history.
type Trade struct {
	Base
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Date          time.Time `gorm:"not null;index" json:"date"`
	Account       string    `gorm:"not null" json:"account"`
	StrategyTag   string    `gorm:"not null" json:"strategy_tag"`
	Symbol        string    `gorm:"not null;index" json:"symbol"`
	Side          TradeSide `gorm:"not null" json:"side"`
	Quantity      float64   `gorm:"not null" json:"quantity"`
	Price         float64   `gorm:"not null" json:"price"`
	TotalValue    float64   `gorm:"not null" json:"total_value"`
	ImportBatchID string     `gorm:"size:36;index" json:"import_batch_id,omitempty"`
	ImportedAt    *time.Time `json:"imported_at,omitempty"`
}
