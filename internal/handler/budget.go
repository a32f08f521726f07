package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"finbook/internal/budget"
	"finbook/internal/models"
	"finbook/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BudgetHandler exposes budgets and expenses over HTTP. Plain budget
// CRUD talks to the store directly; everything touching the cached
// spent total goes through the aggregate engine.
type BudgetHandler struct {
	DB     *gorm.DB
	Engine *budget.Engine
}

func NewBudgetHandler(db *gorm.DB, engine *budget.Engine) *BudgetHandler {
	return &BudgetHandler{DB: db, Engine: engine}
}

// ---------- 请求/响应结构 ----------

type createBudgetReq struct {
	Name      string `json:"name" binding:"required,max=64"`
	Category  string `json:"category" binding:"max=32"`
	Amount    string `json:"amount" binding:"required"` // limit, decimal string
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type budgetResp struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	AmountCent  int64     `json:"amount_cent"`
	Amount      string    `json:"amount"`
	SpentCent   int64     `json:"spent_cent"`
	Spent       string    `json:"spent"`
	Status      string    `json:"status"`
	Utilization float64   `json:"utilization"` // percent
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

func toBudgetResp(b *models.Budget) budgetResp {
	return budgetResp{
		ID:          b.ID,
		Name:        b.Name,
		Category:    b.Category,
		AmountCent:  b.AmountCent,
		Amount:      util.FormatCent(b.AmountCent),
		SpentCent:   b.SpentCent,
		Spent:       util.FormatCent(b.SpentCent),
		Status:      budget.StatusOf(b),
		Utilization: budget.Utilization(b),
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
	}
}

type expenseReq struct {
	BudgetID    *uint  `json:"budget_id"`
	Amount      string `json:"amount" binding:"required"`
	Category    string `json:"category" binding:"required,max=32"`
	Description string `json:"description" binding:"max=255"`
	Date        string `json:"date"` // YYYY-MM-DD, defaults to today
}

type expenseResp struct {
	ID          uint      `json:"id"`
	BudgetID    *uint     `json:"budget_id,omitempty"`
	AmountCent  int64     `json:"amount_cent"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

func toExpenseResp(e *models.Expense) expenseResp {
	return expenseResp{
		ID:          e.ID,
		BudgetID:    e.BudgetID,
		AmountCent:  e.AmountCent,
		Amount:      util.FormatCent(e.AmountCent),
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
	}
}

func parseDateOrToday(c *gin.Context, s string) (time.Time, bool) {
	if s == "" {
		return time.Now(), true
	}
	if err := util.ValidateDate(s); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	t, _ := time.Parse("2006-01-02", s)
	return t, true
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// ---------- 预算 ----------

func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req createBudgetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	amountCent, err := util.ParseAmountCent(req.Amount)
	if err != nil || amountCent < 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amount")
		return
	}

	start, ok := parseDateOrToday(c, req.StartDate)
	if !ok {
		return
	}
	end := start.AddDate(0, 1, 0)
	if req.EndDate != "" {
		if end, ok = parseDateOrToday(c, req.EndDate); !ok {
			return
		}
	}

	b := models.Budget{
		OwnerID:    user.ID,
		Name:       req.Name,
		Category:   req.Category,
		AmountCent: amountCent,
		StartDate:  start,
		EndDate:    end,
	}
	if err := h.DB.Create(&b).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create budget failed")
		return
	}

	util.Success(c, util.Response{
		"budget": toBudgetResp(&b),
	})
}

func (h *BudgetHandler) ListBudgets(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var budgets []models.Budget
	if err := h.DB.Where("owner_id = ?", user.ID).
		Order("start_date DESC, id DESC").
		Find(&budgets).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]budgetResp, 0, len(budgets))
	for i := range budgets {
		items = append(items, toBudgetResp(&budgets[i]))
	}
	util.Success(c, util.Response{
		"items": items,
		"total": len(items),
	})
}

// ownedBudget loads the budget and checks ownership.
func (h *BudgetHandler) ownedBudget(c *gin.Context, user *models.User) *models.Budget {
	id, ok := pathID(c)
	if !ok {
		return nil
	}
	var b models.Budget
	if err := h.DB.Where("id = ? AND owner_id = ?", id, user.ID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "budget not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return nil
	}
	return &b
}

// GetBudgetStatus 返回预算的使用率和状态
func (h *BudgetHandler) GetBudgetStatus(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	b := h.ownedBudget(c, user)
	if b == nil {
		return
	}

	status, utilization, err := h.Engine.Status(b.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	util.Success(c, util.Response{
		"budget_id":   b.ID,
		"status":      status,
		"utilization": utilization,
		"spent":       util.FormatCent(b.SpentCent),
		"limit":       util.FormatCent(b.AmountCent),
	})
}

// RecomputeBudget 重新汇总预算支出（修复缓存漂移）
func (h *BudgetHandler) RecomputeBudget(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	b := h.ownedBudget(c, user)
	if b == nil {
		return
	}

	total, err := h.Engine.Recompute(b.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "recompute failed")
		return
	}
	util.Success(c, util.Response{
		"budget_id":  b.ID,
		"spent_cent": total,
		"spent":      util.FormatCent(total),
	})
}

// GetBudgetDrift 对比所有预算缓存与真实汇总
func (h *BudgetHandler) GetBudgetDrift(c *gin.Context) {
	if user := currentUser(c); user == nil {
		return
	}

	drifts, err := h.Engine.CheckDrift()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "drift check failed")
		return
	}
	if drifts == nil {
		drifts = []budget.Drift{}
	}
	util.Success(c, util.Response{
		"drifts": drifts,
		"total":  len(drifts),
	})
}

// ---------- 支出 ----------

func (h *BudgetHandler) expenseInput(c *gin.Context, user *models.User) (budget.ExpenseInput, bool) {
	var req expenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return budget.ExpenseInput{}, false
	}

	amountCent, err := util.ParseAmountCent(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amount")
		return budget.ExpenseInput{}, false
	}

	date, ok := parseDateOrToday(c, req.Date)
	if !ok {
		return budget.ExpenseInput{}, false
	}

	return budget.ExpenseInput{
		OwnerID:     user.ID,
		BudgetID:    req.BudgetID,
		AmountCent:  amountCent,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
	}, true
}

func expenseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, budget.ErrInvalidAmount), errors.Is(err, budget.ErrUnknownBudget):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "expense not found")
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "operation failed, please retry")
	}
}

func (h *BudgetHandler) CreateExpense(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	in, ok := h.expenseInput(c, user)
	if !ok {
		return
	}

	expense, err := h.Engine.RecordExpense(in)
	if err != nil {
		expenseError(c, err)
		return
	}
	util.Success(c, util.Response{
		"expense": toExpenseResp(expense),
	})
}

func (h *BudgetHandler) ListExpenses(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	q := h.DB.Where("owner_id = ?", user.ID)
	if bidStr := c.Query("budget_id"); bidStr != "" {
		bid, err := strconv.Atoi(bidStr)
		if err != nil || bid <= 0 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid budget_id")
			return
		}
		q = q.Where("budget_id = ?", bid)
	}

	var expenses []models.Expense
	if err := q.Order("date DESC, id DESC").Find(&expenses).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]expenseResp, 0, len(expenses))
	for i := range expenses {
		items = append(items, toExpenseResp(&expenses[i]))
	}
	util.Success(c, util.Response{
		"items": items,
		"total": len(items),
	})
}

// ownedExpenseID checks the expense exists and belongs to the caller.
func (h *BudgetHandler) ownedExpenseID(c *gin.Context, user *models.User) (uint, bool) {
	id, ok := pathID(c)
	if !ok {
		return 0, false
	}
	var n int64
	if err := h.DB.Model(&models.Expense{}).
		Where("id = ? AND owner_id = ?", id, user.ID).
		Count(&n).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return 0, false
	}
	if n == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "expense not found")
		return 0, false
	}
	return id, true
}

func (h *BudgetHandler) UpdateExpense(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := h.ownedExpenseID(c, user)
	if !ok {
		return
	}
	in, ok := h.expenseInput(c, user)
	if !ok {
		return
	}

	expense, err := h.Engine.UpdateExpense(id, in)
	if err != nil {
		expenseError(c, err)
		return
	}
	util.Success(c, util.Response{
		"expense": toExpenseResp(expense),
	})
}

func (h *BudgetHandler) DeleteExpense(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := h.ownedExpenseID(c, user)
	if !ok {
		return
	}

	if err := h.Engine.DeleteExpense(id); err != nil {
		expenseError(c, err)
		return
	}
	util.Success(c, util.Response{
		"deleted": true,
	})
}
