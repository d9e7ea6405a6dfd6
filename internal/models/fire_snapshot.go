package models

import "time"

// FireSnapshot represents a point-in-time snapshot of a user's progress
// toward financial independence. Snapshots are immutable time-series data,
// so there is no Base embed and no soft delete.
type FireSnapshot struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	RecordedAt      time.Time `gorm:"not null" json:"recorded_at"`
	NetWorth        float64   `gorm:"not null" json:"net_worth"`
	InvestedValue   float64   `gorm:"not null" json:"invested_value"`
	CashBalance     float64   `gorm:"not null" json:"cash_balance"`
	TargetNumber    float64   `gorm:"not null" json:"target_number"`
	ProgressPercent float64   `gorm:"not null" json:"progress_percent"`
}
