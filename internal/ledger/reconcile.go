package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"finbook/internal/models"

	"gorm.io/gorm"
)

// Finding is one broken group: a transfer whose debit/credit rows are
// not exactly one of each, or a pair whose business fields diverged.
type Finding struct {
	Kind       string `json:"kind"`
	TransferID string `json:"transfer_id,omitempty"` // empty for legacy groups
	EntryIDs   []uint `json:"entry_ids"`
	Detail     string `json:"detail"`
}

// Report is the outcome of one reconciliation sweep.
type Report struct {
	CheckedAt time.Time `json:"checked_at"`
	Scanned   int       `json:"scanned"`  // ledger rows examined
	Healthy   int       `json:"healthy"`  // well-formed pairs
	Findings  []Finding `json:"findings"`
}

// Reconcile scans the whole ledger and reports every group whose
// debit/credit count is not exactly {1,1}. It is advisory and
// idempotent: it mutates nothing, and two consecutive sweeps over the
// same data produce the same report. Never run inline with a transfer.
//
// Rows carrying a transfer id group on that id. Legacy rows (empty id)
// are paired heuristically by (sender, receiver, amount, description)
// within the configured created-at tolerance window — the best
// available key for data that predates explicit pairing.
func (e *Engine) Reconcile() (*Report, error) {
	var entries []models.LedgerEntry
	if err := e.db.Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}

	report := &Report{
		CheckedAt: time.Now(),
		Scanned:   len(entries),
		Findings:  []Finding{},
	}

	groups := map[string][]models.LedgerEntry{}
	var keyed []string // group keys in first-seen order, keeps reports deterministic
	var legacy []models.LedgerEntry

	for _, entry := range entries {
		if entry.TransferID == "" {
			legacy = append(legacy, entry)
			continue
		}
		if _, seen := groups[entry.TransferID]; !seen {
			keyed = append(keyed, entry.TransferID)
		}
		groups[entry.TransferID] = append(groups[entry.TransferID], entry)
	}

	for _, id := range keyed {
		e.classifyGroup(report, id, groups[id])
	}
	e.classifyLegacy(report, legacy)

	return report, nil
}

func (e *Engine) classifyGroup(report *Report, transferID string, rows []models.LedgerEntry) {
	var debits, credits int
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
		if r.Side == models.SideDebit {
			debits++
		} else {
			credits++
		}
	}

	switch {
	case debits == 1 && credits == 1:
		if detail := pairMismatch(rows[0], rows[1]); detail != "" {
			report.Findings = append(report.Findings, Finding{
				Kind:       models.FindingMismatch,
				TransferID: transferID,
				EntryIDs:   ids,
				Detail:     detail,
			})
			return
		}
		report.Healthy++
	case debits == 1 && credits == 0:
		report.Findings = append(report.Findings, Finding{
			Kind:       models.FindingDanglingDebit,
			TransferID: transferID,
			EntryIDs:   ids,
			Detail:     "debit row has no credit mirror",
		})
	case debits == 0 && credits == 1:
		report.Findings = append(report.Findings, Finding{
			Kind:       models.FindingDanglingCredit,
			TransferID: transferID,
			EntryIDs:   ids,
			Detail:     "credit row has no debit mirror",
		})
	default:
		report.Findings = append(report.Findings, Finding{
			Kind:       models.FindingDuplicate,
			TransferID: transferID,
			EntryIDs:   ids,
			Detail:     fmt.Sprintf("expected one debit and one credit, found %d/%d", debits, credits),
		})
	}
}

// pairMismatch returns a description of diverged business fields, or ""
// when the pair is consistent.
func pairMismatch(a, b models.LedgerEntry) string {
	var diffs []string
	if a.AmountCent != b.AmountCent {
		diffs = append(diffs, fmt.Sprintf("amount %d != %d", a.AmountCent, b.AmountCent))
	}
	if a.Status != b.Status {
		diffs = append(diffs, fmt.Sprintf("status %s != %s", a.Status, b.Status))
	}
	if a.Currency != b.Currency {
		diffs = append(diffs, fmt.Sprintf("currency %s != %s", a.Currency, b.Currency))
	}
	if a.Description != b.Description {
		diffs = append(diffs, "descriptions differ")
	}
	if a.SenderID != b.SenderID || a.ReceiverID != b.ReceiverID {
		diffs = append(diffs, "parties differ")
	}
	return strings.Join(diffs, "; ")
}

type legacyKey struct {
	sender, receiver uint
	amountCent       int64
	description      string
}

// classifyLegacy pairs pre-mirroring rows by business fields inside the
// tolerance window. Input must be sorted by created_at ascending.
func (e *Engine) classifyLegacy(report *Report, rows []models.LedgerEntry) {
	type window struct {
		rows []models.LedgerEntry
		last time.Time
	}
	open := map[legacyKey]*window{}
	var order []legacyKey

	flush := func(k legacyKey) {
		w := open[k]
		e.classifyGroup(report, "", w.rows)
		delete(open, k)
	}

	for _, row := range rows {
		k := legacyKey{row.SenderID, row.ReceiverID, row.AmountCent, row.Description}
		if w, ok := open[k]; ok {
			if row.CreatedAt.Sub(w.last) <= e.tolerance {
				w.rows = append(w.rows, row)
				w.last = row.CreatedAt
				continue
			}
			// window expired; what accumulated is its own group
			flush(k)
			order = removeKey(order, k)
		}
		open[k] = &window{rows: []models.LedgerEntry{row}, last: row.CreatedAt}
		order = append(order, k)
	}
	for _, k := range order {
		if _, ok := open[k]; ok {
			flush(k)
		}
	}
}

func removeKey(keys []legacyKey, k legacyKey) []legacyKey {
	out := keys[:0]
	for _, key := range keys {
		if key != k {
			out = append(out, key)
		}
	}
	return out
}

// SaveReport replaces the persisted findings with the given report's,
// so the findings table always mirrors the most recent sweep.
func (e *Engine) SaveReport(report *Report) error {
	if err := e.db.Where("1 = 1").Delete(&models.ReconciliationFinding{}).Error; err != nil {
		return fmt.Errorf("clear findings: %w", err)
	}
	if len(report.Findings) == 0 {
		return nil
	}

	rows := make([]models.ReconciliationFinding, 0, len(report.Findings))
	for _, f := range report.Findings {
		ids := make([]string, 0, len(f.EntryIDs))
		for _, id := range f.EntryIDs {
			ids = append(ids, strconv.FormatUint(uint64(id), 10))
		}
		rows = append(rows, models.ReconciliationFinding{
			Kind:       f.Kind,
			TransferID: f.TransferID,
			EntryIDs:   strings.Join(ids, ","),
			Detail:     f.Detail,
			CheckedAt:  report.CheckedAt,
		})
	}
	if err := e.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("save findings: %w", err)
	}
	return nil
}

// RepairTransfer recreates the missing side of a dangling pair from the
// surviving row. Safe to re-run: when the pair is already whole it does
// nothing and reports false.
func (e *Engine) RepairTransfer(transferID string) (bool, error) {
	if transferID == "" {
		return false, errors.New("transfer id is required")
	}

	var rows []models.LedgerEntry
	if err := e.db.Where("transfer_id = ?", transferID).Find(&rows).Error; err != nil {
		return false, fmt.Errorf("load transfer %s: %w", transferID, err)
	}

	switch len(rows) {
	case 0:
		return false, gorm.ErrRecordNotFound
	case 1:
		src := rows[0]
		mirror := models.LedgerEntry{
			TransferID:    src.TransferID,
			SenderID:      src.SenderID,
			ReceiverID:    src.ReceiverID,
			Side:          src.MirrorSide(),
			AmountCent:    src.AmountCent,
			Currency:      src.Currency,
			Description:   src.Description,
			Status:        src.Status,
			ReferenceType: src.ReferenceType,
			ReferenceID:   src.ReferenceID,
		}
		if err := e.db.Create(&mirror).Error; err != nil {
			return false, fmt.Errorf("recreate mirror: %w", err)
		}
		return true, nil
	default:
		// pair already whole (or duplicated — that is the sweep's call)
		return false, nil
	}
}
