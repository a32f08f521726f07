package models

import "time"

// Kinds of reconciliation findings.
const (
	FindingDanglingDebit  = "dangling_debit"
	FindingDanglingCredit = "dangling_credit"
	FindingDuplicate      = "duplicate_mirror"
	FindingMismatch       = "mismatched_pair"
)

// ReconciliationFinding is one problem group reported by the ledger
// sweep, persisted so the last report can be inspected after the fact.
// Each sweep replaces the stored findings wholesale.
type ReconciliationFinding struct {
	ID         uint      `gorm:"primaryKey"`
	Kind       string    `gorm:"size:32;index;not null"`
	TransferID string    `gorm:"size:36;index"` // empty for legacy groups
	EntryIDs   string    `gorm:"size:255"`      // comma-joined row ids
	Detail     string    `gorm:"type:text"`     // human-readable mismatch detail
	CheckedAt  time.Time `gorm:"index;not null"`
	CreatedAt  time.Time
}
