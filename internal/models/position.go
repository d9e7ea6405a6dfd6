package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// TagList stores a set of strategy tags as a comma-joined string column.
type TagList []string

// Value implements driver.Valuer.
func (t TagList) Value() (driver.Value, error) {
	return strings.Join(t, ","), nil
}

// Scan implements sql.Scanner.
func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into TagList", value)
	}
	if s == "" {
		*t = nil
		return nil
	}
	*t = strings.Split(s, ",")
	return nil
}

// Position is a derived net holding for a (symbol, account) pair, computed
// by folding the user's full trade history. Rows are never authored
// directly: the whole table for a user is replaced on every recompute.
type Position struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Symbol       string    `gorm:"not null" json:"symbol"`
	Account      string    `gorm:"not null" json:"account"`
	Quantity     float64   `gorm:"not null" json:"quantity"`
	AverageCost  float64   `gorm:"not null" json:"average_cost"`
	StrategyTags TagList   `gorm:"type:text" json:"strategy_tags"`
	ComputedAt   time.Time `gorm:"not null" json:"computed_at"`
}
