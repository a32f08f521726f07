package ledger

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"finbook/internal/models"

	"gorm.io/gorm"
)

func seedEntry(t *testing.T, db *gorm.DB, entry models.LedgerEntry) models.LedgerEntry {
	t.Helper()
	if entry.Currency == "" {
		entry.Currency = "USD"
	}
	if entry.Status == "" {
		entry.Status = models.StatusPending
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return entry
}

func TestReconcile_CleanLedger(t *testing.T) {
	e, _ := newTestEngine(t)

	for i := 0; i < 3; i++ {
		if _, err := e.CreateTransfer(TransferInput{SenderID: alice, ReceiverID: bob, AmountCent: 100}); err != nil {
			t.Fatalf("CreateTransfer: %v", err)
		}
	}

	report, err := e.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(report.Findings) != 0 {
		t.Errorf("clean ledger produced %d findings: %+v", len(report.Findings), report.Findings)
	}
	if report.Healthy != 3 {
		t.Errorf("healthy = %d, want 3", report.Healthy)
	}
	if report.Scanned != 6 {
		t.Errorf("scanned = %d, want 6", report.Scanned)
	}
}

func TestReconcile_DanglingDebit(t *testing.T) {
	e, db := newTestEngine(t)

	// a crash between the two writes leaves exactly this state
	seedEntry(t, db, models.LedgerEntry{
		TransferID: "t-dangling",
		SenderID:   alice,
		ReceiverID: bob,
		Side:       models.SideDebit,
		AmountCent: 4200,
	})

	report, err := e.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(report.Findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(report.Findings))
	}
	f := report.Findings[0]
	if f.Kind != models.FindingDanglingDebit {
		t.Errorf("kind = %q, want dangling_debit", f.Kind)
	}
	if f.TransferID != "t-dangling" {
		t.Errorf("transfer id = %q", f.TransferID)
	}
}

func TestReconcile_DanglingCredit(t *testing.T) {
	e, db := newTestEngine(t)

	seedEntry(t, db, models.LedgerEntry{
		TransferID: "t-credit-only",
		SenderID:   alice,
		ReceiverID: bob,
		Side:       models.SideCredit,
		AmountCent: 4200,
	})

	report, err := e.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Kind != models.FindingDanglingCredit {
		t.Errorf("findings = %+v, want one dangling_credit", report.Findings)
	}
}

func TestReconcile_DuplicateMirror(t *testing.T) {
	e, db := newTestEngine(t)

	for _, side := range []string{models.SideDebit, models.SideCredit, models.SideCredit} {
		seedEntry(t, db, models.LedgerEntry{
			TransferID: "t-dup",
			SenderID:   alice,
			ReceiverID: bob,
			Side:       side,
			AmountCent: 900,
		})
	}

	report, err := e.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Kind != models.FindingDuplicate {
		t.Errorf("findings = %+v, want one duplicate_mirror", report.Findings)
	}
	if len(report.Findings[0].EntryIDs) != 3 {
		t.Errorf("entry ids = %v, want 3 ids", report.Findings[0].EntryIDs)
	}
}

func TestReconcile_MismatchedPair(t *testing.T) {
	e, db := newTestEngine(t)

	// a pair whose mirror update half-failed
	seedEntry(t, db, models.LedgerEntry{
		TransferID: "t-mismatch", SenderID: alice, ReceiverID: bob,
		Side: models.SideDebit, AmountCent: 5000, Status: models.StatusCompleted,
	})
	seedEntry(t, db, models.LedgerEntry{
		TransferID: "t-mismatch", SenderID: alice, ReceiverID: bob,
		Side: models.SideCredit, AmountCent: 5000, Status: models.StatusPending,
	})

	report, err := e.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Kind != models.FindingMismatch {
		t.Fatalf("findings = %+v, want one mismatched_pair", report.Findings)
	}
	if report.Findings[0].Detail == "" {
		t.Error("mismatch finding has no detail")
	}
}

func TestReconcile_LegacyPairing(t *testing.T) {
	e, db := newTestEngine(t)

	base := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

	// a well-formed legacy pair, written two seconds apart
	seedEntry(t, db, models.LedgerEntry{
		SenderID: alice, ReceiverID: bob, Side: models.SideDebit,
		AmountCent: 1200, Description: "old transfer", CreatedAt: base,
	})
	seedEntry(t, db, models.LedgerEntry{
		SenderID: alice, ReceiverID: bob, Side: models.SideCredit,
		AmountCent: 1200, Description: "old transfer", CreatedAt: base.Add(2 * time.Second),
	})

	// same business fields, but a week later: its own (dangling) group
	seedEntry(t, db, models.LedgerEntry{
		SenderID: alice, ReceiverID: bob, Side: models.SideDebit,
		AmountCent: 1200, Description: "old transfer", CreatedAt: base.AddDate(0, 0, 7),
	})

	report, err := e.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Healthy != 1 {
		t.Errorf("healthy = %d, want 1 legacy pair", report.Healthy)
	}
	if len(report.Findings) != 1 || report.Findings[0].Kind != models.FindingDanglingDebit {
		t.Errorf("findings = %+v, want one dangling_debit", report.Findings)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	e, db := newTestEngine(t)

	seedEntry(t, db, models.LedgerEntry{
		TransferID: "t-1", SenderID: alice, ReceiverID: bob,
		Side: models.SideDebit, AmountCent: 100,
	})
	if _, err := e.CreateTransfer(TransferInput{SenderID: bob, ReceiverID: alice, AmountCent: 700}); err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}

	first, err := e.Reconcile()
	if err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	second, err := e.Reconcile()
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if !reflect.DeepEqual(first.Findings, second.Findings) {
		t.Errorf("sweep is not idempotent:\nfirst:  %+v\nsecond: %+v", first.Findings, second.Findings)
	}
}

func TestSaveReport_ReplacesFindings(t *testing.T) {
	e, db := newTestEngine(t)

	dangling := seedEntry(t, db, models.LedgerEntry{
		TransferID: "t-broken", SenderID: alice, ReceiverID: bob,
		Side: models.SideDebit, AmountCent: 100,
	})

	report, err := e.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if err := e.SaveReport(report); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	var n int64
	db.Model(&models.ReconciliationFinding{}).Count(&n)
	if n != 1 {
		t.Fatalf("stored findings = %d, want 1", n)
	}

	// heal the pair; the next saved report must clear the table
	if _, err := e.RepairTransfer(dangling.TransferID); err != nil {
		t.Fatalf("RepairTransfer: %v", err)
	}
	report, err = e.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile after repair: %v", err)
	}
	if err := e.SaveReport(report); err != nil {
		t.Fatalf("SaveReport after repair: %v", err)
	}
	db.Model(&models.ReconciliationFinding{}).Count(&n)
	if n != 0 {
		t.Errorf("stored findings = %d after heal, want 0", n)
	}
}

func TestRepairTransfer(t *testing.T) {
	e, db := newTestEngine(t)

	result, err := e.CreateTransfer(TransferInput{
		SenderID: alice, ReceiverID: bob, AmountCent: 15075, Description: "rent",
	})
	if err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}

	// simulate the crash-between-writes state
	if err := db.Delete(&models.LedgerEntry{}, result.Credit.ID).Error; err != nil {
		t.Fatalf("drop credit: %v", err)
	}

	created, err := e.RepairTransfer(result.TransferID)
	if err != nil {
		t.Fatalf("RepairTransfer: %v", err)
	}
	if !created {
		t.Fatal("repair reported nothing recreated")
	}

	receiverView, err := e.ListForUser(bob)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(receiverView) != 1 {
		t.Fatalf("receiver sees %d rows after repair, want 1", len(receiverView))
	}
	got := receiverView[0]
	if got.Side != models.SideCredit || got.AmountCent != 15075 || got.Description != "rent" {
		t.Errorf("recreated mirror = %+v", got)
	}

	// second run is a no-op
	created, err = e.RepairTransfer(result.TransferID)
	if err != nil {
		t.Fatalf("second RepairTransfer: %v", err)
	}
	if created {
		t.Error("repair recreated a mirror for a whole pair")
	}
}

func TestRepairTransfer_Unknown(t *testing.T) {
	e, _ := newTestEngine(t)

	if _, err := e.RepairTransfer("no-such-transfer"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("RepairTransfer error = %v, want record not found", err)
	}
}
