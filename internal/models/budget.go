package models

import "time"

// Budget holds a spending limit plus a cached total of linked expenses.
// SpentCent is derived data: the store never enforces that it equals the
// sum of linked expense amounts, so it can drift after a partial failure
// and is healed by recomputation.
type Budget struct {
	ID         uint      `gorm:"primaryKey"`
	OwnerID    uint      `gorm:"index;not null"`
	Name       string    `gorm:"size:64;not null"`
	Category   string    `gorm:"size:32"`
	AmountCent int64     `gorm:"not null"` // limit, in cents
	SpentCent  int64     `gorm:"not null"` // cached sum of linked expenses
	StartDate  time.Time `gorm:"index"`
	EndDate    time.Time `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Budget utilization statuses.
const (
	BudgetSafe     = "safe"
	BudgetWarning  = "warning"
	BudgetExceeded = "exceeded"
)
