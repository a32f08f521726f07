// Package budget keeps each budget's cached spent total consistent with
// its linked expenses. Creation takes an incremental fast path; every
// edit and delete goes through full recomputation, because a changed
// amount or a moved link cannot be patched with a delta safely. The
// cache is soft state: recomputation is always allowed to heal it.
package budget

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finbook/internal/models"
	"finbook/internal/util"

	"gorm.io/gorm"
)

var (
	ErrInvalidAmount = errors.New("expense amount must be positive")
	ErrUnknownBudget = errors.New("linked budget does not exist")
)

// Engine executes budget/expense operations against an injected
// storage handle.
type Engine struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewEngine(db *gorm.DB, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{db: db, log: log}
}

// ExpenseInput carries the business fields of an expense.
type ExpenseInput struct {
	OwnerID     uint
	BudgetID    *uint
	AmountCent  int64
	Category    string
	Description string
	Date        time.Time
}

func (e *Engine) validate(in ExpenseInput) error {
	if err := util.ValidateAmountCent(in.AmountCent); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err := util.ValidateCategory(in.Category); err != nil {
		return err
	}
	if in.BudgetID != nil {
		var n int64
		if err := e.db.Model(&models.Budget{}).Where("id = ?", *in.BudgetID).Count(&n).Error; err != nil {
			return fmt.Errorf("check budget: %w", err)
		}
		if n == 0 {
			return ErrUnknownBudget
		}
	}
	return nil
}

// RecordExpense persists the expense and bumps the linked budget's
// cached total. The bump is a read-modify-write with no lock: two
// concurrent writers to the same budget can race, which is accepted —
// the increment is only a fast path, and every edit/delete path runs a
// full recompute that bounds the drift. A failed bump never fails the
// call; the stale cache stands until the next recompute.
func (e *Engine) RecordExpense(in ExpenseInput) (*models.Expense, error) {
	if err := e.validate(in); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	expense := models.Expense{
		OwnerID:     in.OwnerID,
		BudgetID:    in.BudgetID,
		AmountCent:  in.AmountCent,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
	}
	if err := e.db.Create(&expense).Error; err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	if in.BudgetID != nil {
		var b models.Budget
		if err := e.db.First(&b, *in.BudgetID).Error; err != nil {
			e.log.Warn("budget read failed, spent total stale until recompute",
				"budget_id", *in.BudgetID, "error", err)
			return &expense, nil
		}
		err := e.db.Model(&models.Budget{}).Where("id = ?", b.ID).
			Update("spent_cent", b.SpentCent+in.AmountCent).Error
		if err != nil {
			e.log.Warn("budget increment failed, spent total stale until recompute",
				"budget_id", b.ID, "error", err)
		}
	}
	return &expense, nil
}

// UpdateExpense persists the new fields, then recomputes every budget
// the change touched — the one it pointed at before and the one it
// points at now. Recompute instead of delta math: the amount or the
// link itself may have changed, and resummation cannot drift.
func (e *Engine) UpdateExpense(expenseID uint, in ExpenseInput) (*models.Expense, error) {
	if err := e.validate(in); err != nil {
		return nil, err
	}

	var expense models.Expense
	if err := e.db.First(&expense, expenseID).Error; err != nil {
		return nil, err
	}
	oldBudget := expense.BudgetID

	expense.BudgetID = in.BudgetID
	expense.AmountCent = in.AmountCent
	expense.Category = in.Category
	expense.Description = in.Description
	if !in.Date.IsZero() {
		expense.Date = in.Date
	}
	if err := e.db.Save(&expense).Error; err != nil {
		return nil, fmt.Errorf("update expense %d: %w", expenseID, err)
	}

	e.recomputeTouched(oldBudget, in.BudgetID)
	return &expense, nil
}

// DeleteExpense reads the expense first (its link is needed after the
// row is gone), deletes it, then recomputes the budget it was linked to.
func (e *Engine) DeleteExpense(expenseID uint) error {
	var expense models.Expense
	if err := e.db.First(&expense, expenseID).Error; err != nil {
		return err
	}
	if err := e.db.Delete(&models.Expense{}, expense.ID).Error; err != nil {
		return fmt.Errorf("delete expense %d: %w", expenseID, err)
	}
	e.recomputeTouched(expense.BudgetID, nil)
	return nil
}

func (e *Engine) recomputeTouched(prev, next *uint) {
	seen := map[uint]bool{}
	for _, id := range []*uint{prev, next} {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		if _, err := e.Recompute(*id); err != nil {
			// never fail the caller over a stale cache; it heals on
			// the next successful recompute
			e.log.Warn("budget recompute failed, spent total stale",
				"budget_id", *id, "error", err)
		}
	}
}

// Recompute resums every linked expense and writes the result into the
// budget's cached total. This is the repair primitive: safe to invoke
// at any time to heal drift left by partial failures.
func (e *Engine) Recompute(budgetID uint) (int64, error) {
	var total int64
	err := e.db.Model(&models.Expense{}).
		Where("budget_id = ?", budgetID).
		Select("COALESCE(SUM(amount_cent), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum expenses for budget %d: %w", budgetID, err)
	}

	res := e.db.Model(&models.Budget{}).Where("id = ?", budgetID).
		Update("spent_cent", total)
	if res.Error != nil {
		return 0, fmt.Errorf("write spent total for budget %d: %w", budgetID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return total, nil
}

// Utilization returns spent/limit as a percentage. A zero-limit budget
// reports 0.0 rather than dividing by zero.
func Utilization(b *models.Budget) float64 {
	if b.AmountCent == 0 {
		return 0.0
	}
	return float64(b.SpentCent) / float64(b.AmountCent) * 100
}

// StatusOf maps utilization to safe / warning / exceeded.
// Below 80% is safe, 80–100% inclusive is warning, above 100% exceeded.
// Thresholds compare in integer cents so 80.0% exactly lands in
// warning regardless of float rounding.
func StatusOf(b *models.Budget) string {
	switch {
	case b.AmountCent == 0:
		return models.BudgetSafe
	case b.SpentCent > b.AmountCent:
		return models.BudgetExceeded
	case b.SpentCent*5 >= b.AmountCent*4:
		return models.BudgetWarning
	default:
		return models.BudgetSafe
	}
}

// Status loads the budget and reports its utilization and state.
func (e *Engine) Status(budgetID uint) (string, float64, error) {
	var b models.Budget
	if err := e.db.First(&b, budgetID).Error; err != nil {
		return "", 0, err
	}
	return StatusOf(&b), Utilization(&b), nil
}

// Drift is one budget whose cached total disagrees with the true sum.
type Drift struct {
	BudgetID   uint  `json:"budget_id"`
	CachedCent int64 `json:"cached_cent"`
	ActualCent int64 `json:"actual_cent"`
}

// CheckDrift compares every budget's cache against the resummed truth.
// Advisory counterpart of the ledger sweep; Recompute is the repair.
func (e *Engine) CheckDrift() ([]Drift, error) {
	var budgets []models.Budget
	if err := e.db.Order("id ASC").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("scan budgets: %w", err)
	}

	var drifts []Drift
	for _, b := range budgets {
		var total int64
		err := e.db.Model(&models.Expense{}).
			Where("budget_id = ?", b.ID).
			Select("COALESCE(SUM(amount_cent), 0)").
			Scan(&total).Error
		if err != nil {
			return nil, fmt.Errorf("sum expenses for budget %d: %w", b.ID, err)
		}
		if total != b.SpentCent {
			drifts = append(drifts, Drift{BudgetID: b.ID, CachedCent: b.SpentCent, ActualCent: total})
		}
	}
	return drifts, nil
}
