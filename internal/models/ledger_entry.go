package models

import "time"

// Sides of a mirrored transfer. The debit row belongs to the sender,
// the credit row to the receiver.
const (
	SideDebit  = "debit"
	SideCredit = "credit"
)

// Transfer statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// LedgerEntry is one side of a transfer. Every transfer is stored as two
// independent rows sharing a TransferID: a debit row and a credit row
// with identical business fields. The two inserts are not atomic, so a
// row whose mirror is missing can exist after a partial failure; the
// reconciliation sweep detects those.
//
// Rows created before transfer ids were introduced carry an empty
// TransferID and stay permanently unpaired.
type LedgerEntry struct {
	ID            uint      `gorm:"primaryKey"`
	TransferID    string    `gorm:"size:36;index"`
	SenderID      uint      `gorm:"index;not null"`
	ReceiverID    uint      `gorm:"index;not null"`
	Side          string    `gorm:"size:8;index;not null"` // debit / credit
	AmountCent    int64     `gorm:"not null"`              // store in cents to avoid float
	Currency      string    `gorm:"size:8;default:USD"`
	Description   string    `gorm:"size:255"`
	Status        string    `gorm:"size:16;index;not null"` // pending / completed / failed
	ReferenceType string    `gorm:"size:32"`                // optional origin, e.g. bill_payment
	ReferenceID   uint
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

// MirrorSide returns the side of this entry's mirror row.
func (e *LedgerEntry) MirrorSide() string {
	if e.Side == SideDebit {
		return SideCredit
	}
	return SideDebit
}
