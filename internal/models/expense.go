package models

import "time"

// Expense is a single spending record. BudgetID is optional: an expense
// may exist unlinked, and may be re-linked to another budget later.
type Expense struct {
	ID          uint      `gorm:"primaryKey"`
	OwnerID     uint      `gorm:"index;not null"`
	BudgetID    *uint     `gorm:"index"`
	AmountCent  int64     `gorm:"not null"` // store in cents to avoid float
	Category    string    `gorm:"size:32;not null"`
	Description string    `gorm:"size:255"`
	Date        time.Time `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
