package models

import "time"

// JournalDirection represents the direction of a journaled trade.
type JournalDirection string

const (
	JournalDirectionLong  JournalDirection = "long"
	JournalDirectionShort JournalDirection = "short"
)

// JournalOutcome classifies how a journaled trade resolved.
type JournalOutcome string

const (
	JournalOutcomeWin       JournalOutcome = "win"
	JournalOutcomeLoss      JournalOutcome = "loss"
	JournalOutcomeBreakeven JournalOutcome = "breakeven"
	JournalOutcomeOpen      JournalOutcome = "open"
)

// JournalEntry is one trading journal record: what was traded, the setup
// behind it, and how it resolved in R multiples. Journal entries are
// reporting data only and never feed into positions or rebalancing.
type JournalEntry struct {
	Base
	UserID      uint             `gorm:"not null;index" json:"user_id"`
	Date        time.Time        `gorm:"not null;index" json:"date"`
	Symbol      string           `gorm:"not null" json:"symbol"`
	Direction   JournalDirection `gorm:"not null;default:'long'" json:"direction"`
	Setup       string           `json:"setup"`
	StrategyTag string           `json:"strategy_tag"`
	EntryPrice  float64          `json:"entry_price"`
	ExitPrice   float64          `json:"exit_price"`
	Quantity    float64          `json:"quantity"`
	ResultR     float64          `json:"result_r"`
	Outcome     JournalOutcome   `gorm:"not null;default:'open'" json:"outcome"`
	Notes       string           `gorm:"size:2000" json:"notes"`
}
