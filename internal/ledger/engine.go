// Package ledger owns the mirrored double-entry transfer ledger. Every
// transfer is two rows (a debit owned by the sender, a credit owned by
// the receiver) written as independent single-row statements; the store
// gives no atomicity across the pair. The engine keeps the pair in step
// on update/delete via the shared transfer id, and the reconciliation
// sweep (reconcile.go) detects pairs a partial failure broke apart.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finbook/internal/models"
	"finbook/internal/notify"
	"finbook/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount = errors.New("transfer amount must be positive")
	ErrMissingParty  = errors.New("sender and receiver are required")
	ErrSelfTransfer  = errors.New("sender and receiver must differ")
	ErrInvalidStatus = errors.New("unknown transfer status")
)

// Config tunes an Engine. Zero values fall back to sane defaults.
type Config struct {
	NotifyTimeout      time.Duration // bound on outbound notification delivery
	DefaultCurrency    string
	ReconcileTolerance time.Duration // created-at window when pairing legacy rows
	Log                *slog.Logger
}

// Engine executes ledger operations against an injected storage handle.
type Engine struct {
	db        *gorm.DB
	notifier  notify.Notifier
	log       *slog.Logger
	timeout   time.Duration
	currency  string
	tolerance time.Duration
}

func NewEngine(db *gorm.DB, notifier notify.Notifier, cfg Config) *Engine {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 3 * time.Second
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	if cfg.ReconcileTolerance <= 0 {
		cfg.ReconcileTolerance = 5 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Engine{
		db:        db,
		notifier:  notifier,
		log:       cfg.Log,
		timeout:   cfg.NotifyTimeout,
		currency:  cfg.DefaultCurrency,
		tolerance: cfg.ReconcileTolerance,
	}
}

// TransferInput carries the business fields of a new transfer.
type TransferInput struct {
	SenderID      uint
	ReceiverID    uint
	AmountCent    int64
	Currency      string
	Description   string
	Status        string // defaults to pending
	ReferenceType string
	ReferenceID   uint
}

// TransferResult reports what was actually persisted. Credit is nil
// when the mirror write failed and the debit was left dangling.
type TransferResult struct {
	TransferID string
	Debit      *models.LedgerEntry
	Credit     *models.LedgerEntry
}

func validStatus(s string) bool {
	switch s {
	case models.StatusPending, models.StatusCompleted, models.StatusFailed:
		return true
	}
	return false
}

// CreateTransfer persists the debit row, then the credit row. The two
// inserts are deliberately not wrapped in a transaction: debit-first
// ordering is fixed so a sweep can classify whichever row survives a
// crash between the writes. Once the debit is committed there is no
// rollback; a failed credit write is logged and left for
// reconciliation, and the call still reports success.
func (e *Engine) CreateTransfer(in TransferInput) (*TransferResult, error) {
	if err := util.ValidateAmountCent(in.AmountCent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if in.SenderID == 0 || in.ReceiverID == 0 {
		return nil, ErrMissingParty
	}
	if in.SenderID == in.ReceiverID {
		return nil, ErrSelfTransfer
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if !validStatus(in.Status) {
		return nil, ErrInvalidStatus
	}
	if in.Currency == "" {
		in.Currency = e.currency
	}

	transferID := uuid.NewString()

	debit := models.LedgerEntry{
		TransferID:    transferID,
		SenderID:      in.SenderID,
		ReceiverID:    in.ReceiverID,
		Side:          models.SideDebit,
		AmountCent:    in.AmountCent,
		Currency:      in.Currency,
		Description:   in.Description,
		Status:        in.Status,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
	}
	if err := e.db.Create(&debit).Error; err != nil {
		return nil, fmt.Errorf("create debit: %w", err)
	}

	credit := debit
	credit.ID = 0
	credit.Side = models.SideCredit
	credit.CreatedAt = time.Time{}
	credit.UpdatedAt = time.Time{}
	if err := e.db.Create(&credit).Error; err != nil {
		e.log.Warn("credit mirror write failed, dangling debit left for reconciliation",
			"transfer_id", transferID, "debit_id", debit.ID, "error", err)
		return &TransferResult{TransferID: transferID, Debit: &debit}, nil
	}

	e.dispatchNotify(&credit)

	return &TransferResult{TransferID: transferID, Debit: &debit, Credit: &credit}, nil
}

// dispatchNotify tells the receiver that funds arrived. Runs off the
// write path with a bounded timeout; failures are logged and swallowed.
func (e *Engine) dispatchNotify(entry *models.LedgerEntry) {
	if e.notifier == nil {
		return
	}
	snapshot := *entry
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		var sender, receiver models.User
		_ = e.db.First(&sender, snapshot.SenderID).Error
		_ = e.db.First(&receiver, snapshot.ReceiverID).Error

		ev := notify.TransferEvent{
			TransferID:   snapshot.TransferID,
			SenderName:   sender.DisplayName,
			ReceiverName: receiver.DisplayName,
			ReceiverMail: receiver.Email,
			Amount:       util.FormatCent(snapshot.AmountCent),
			Currency:     snapshot.Currency,
			Description:  snapshot.Description,
			OccurredAt:   snapshot.CreatedAt,
		}
		if err := e.notifier.TransferReceived(ctx, ev); err != nil {
			e.log.Warn("transfer notification failed",
				"transfer_id", snapshot.TransferID, "error", err)
		}
	}()
}

// ListForUser returns the caller's view of the ledger: the debit row of
// every transfer they sent and the credit row of every transfer they
// received, newest first. Exactly one row per transfer — widening this
// predicate double-counts, narrowing it hides money.
func (e *Engine) ListForUser(userID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := e.db.
		Where("(side = ? AND sender_id = ?) OR (side = ? AND receiver_id = ?)",
			models.SideDebit, userID, models.SideCredit, userID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// GetEntry fetches a single row by id.
func (e *Engine) GetEntry(entryID uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := e.db.First(&entry, entryID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// TransferUpdate lists the mutable fields; nil means unchanged.
// Side is never mutable.
type TransferUpdate struct {
	AmountCent  *int64
	Status      *string
	Description *string
}

// UpdateTransfer applies the changes to the identified row, then to its
// mirror. The mirror is located by transfer id alone — the
// (sender, receiver, side) tuple can collide with an unrelated transfer
// between the same two parties and must never be used as the pairing
// key. Zero mirror rows affected is normal: pre-mirroring rows have no
// transfer id, dangling rows have no mirror.
func (e *Engine) UpdateTransfer(entryID uint, upd TransferUpdate) error {
	var entry models.LedgerEntry
	if err := e.db.First(&entry, entryID).Error; err != nil {
		return err
	}

	changes := map[string]interface{}{}
	if upd.AmountCent != nil {
		if err := util.ValidateAmountCent(*upd.AmountCent); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		changes["amount_cent"] = *upd.AmountCent
	}
	if upd.Status != nil {
		if !validStatus(*upd.Status) {
			return ErrInvalidStatus
		}
		changes["status"] = *upd.Status
	}
	if upd.Description != nil {
		changes["description"] = *upd.Description
	}
	if len(changes) == 0 {
		return nil
	}

	if err := e.db.Model(&entry).Updates(changes).Error; err != nil {
		return fmt.Errorf("update entry %d: %w", entryID, err)
	}

	if entry.TransferID == "" {
		return nil
	}
	res := e.db.Model(&models.LedgerEntry{}).
		Where("transfer_id = ? AND side = ? AND id <> ?",
			entry.TransferID, entry.MirrorSide(), entry.ID).
		Updates(changes)
	if res.Error != nil {
		// first write committed; the diverged pair is a data-quality
		// condition for the sweep, not a call failure
		e.log.Warn("mirror update failed, pair left for reconciliation",
			"transfer_id", entry.TransferID, "entry_id", entry.ID, "error", res.Error)
	}
	return nil
}

// DeleteTransfer removes the identified row, then its mirror. A missing
// mirror makes the second delete a no-op, not an error.
func (e *Engine) DeleteTransfer(entryID uint) error {
	var entry models.LedgerEntry
	if err := e.db.First(&entry, entryID).Error; err != nil {
		return err
	}
	if err := e.db.Delete(&models.LedgerEntry{}, entry.ID).Error; err != nil {
		return fmt.Errorf("delete entry %d: %w", entryID, err)
	}

	if entry.TransferID == "" {
		return nil
	}
	res := e.db.
		Where("transfer_id = ? AND id <> ?", entry.TransferID, entry.ID).
		Delete(&models.LedgerEntry{})
	if res.Error != nil {
		e.log.Warn("mirror delete failed, dangling row left for reconciliation",
			"transfer_id", entry.TransferID, "entry_id", entry.ID, "error", res.Error)
	}
	return nil
}

// CountByStatus counts transfers per status over the debit side only;
// counting both sides would report every transfer twice.
func (e *Engine) CountByStatus() (map[string]int64, error) {
	type statusCount struct {
		Status string
		N      int64
	}
	var rows []statusCount
	err := e.db.Model(&models.LedgerEntry{}).
		Select("status, COUNT(*) AS n").
		Where("side = ?", models.SideDebit).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}

	counts := map[string]int64{
		models.StatusPending:   0,
		models.StatusCompleted: 0,
		models.StatusFailed:    0,
	}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}
