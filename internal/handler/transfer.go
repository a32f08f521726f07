package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"finbook/internal/ledger"
	"finbook/internal/models"
	"finbook/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransferHandler exposes the ledger engine over HTTP.
type TransferHandler struct {
	Engine *ledger.Engine
}

func NewTransferHandler(engine *ledger.Engine) *TransferHandler {
	return &TransferHandler{Engine: engine}
}

// ---------- 请求/响应结构 ----------

type createTransferReq struct {
	ReceiverID    uint   `json:"receiver_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"` // decimal string, e.g. "150.75"
	Currency      string `json:"currency" binding:"omitempty,len=3"`
	Description   string `json:"description" binding:"max=255"`
	Status        string `json:"status" binding:"omitempty,oneof=pending completed failed"`
	ReferenceType string `json:"reference_type" binding:"max=32"`
	ReferenceID   uint   `json:"reference_id"`
}

type updateTransferReq struct {
	Amount      *string `json:"amount"`
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

type entryResp struct {
	ID            uint      `json:"id"`
	TransferID    string    `json:"transfer_id,omitempty"`
	SenderID      uint      `json:"sender_id"`
	ReceiverID    uint      `json:"receiver_id"`
	Side          string    `json:"side"`
	AmountCent    int64     `json:"amount_cent"`
	Amount        string    `json:"amount"` // decimal string for direct display
	Currency      string    `json:"currency"`
	Description   string    `json:"description,omitempty"`
	Status        string    `json:"status"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   uint      `json:"reference_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toEntryResp(e *models.LedgerEntry) entryResp {
	return entryResp{
		ID:            e.ID,
		TransferID:    e.TransferID,
		SenderID:      e.SenderID,
		ReceiverID:    e.ReceiverID,
		Side:          e.Side,
		AmountCent:    e.AmountCent,
		Amount:        util.FormatCent(e.AmountCent),
		Currency:      e.Currency,
		Description:   e.Description,
		Status:        e.Status,
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		CreatedAt:     e.CreatedAt,
	}
}

func constraintError(err error) bool {
	return errors.Is(err, ledger.ErrInvalidAmount) ||
		errors.Is(err, ledger.ErrMissingParty) ||
		errors.Is(err, ledger.ErrSelfTransfer) ||
		errors.Is(err, ledger.ErrInvalidStatus)
}

// ---------- 创建转账 ----------

func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req createTransferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	amountCent, err := util.ParseAmountCent(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amount")
		return
	}

	result, err := h.Engine.CreateTransfer(ledger.TransferInput{
		SenderID:      user.ID,
		ReceiverID:    req.ReceiverID,
		AmountCent:    amountCent,
		Currency:      req.Currency,
		Description:   req.Description,
		Status:        req.Status,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
	})
	if err != nil {
		if constraintError(err) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "transfer failed, please retry")
		}
		return
	}

	util.Success(c, util.Response{
		"transfer_id": result.TransferID,
		"entry":       toEntryResp(result.Debit),
		"mirrored":    result.Credit != nil,
	})
}

// ListTransfers 返回当前用户视角的转账列表
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	entries, err := h.Engine.ListForUser(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	items := make([]entryResp, 0, len(entries))
	for i := range entries {
		items = append(items, toEntryResp(&entries[i]))
	}

	util.Success(c, util.Response{
		"items": items,
		"total": len(items),
	})
}

// ownedEntry loads the entry and checks the caller is one of its
// parties; writes the error response itself when not.
func (h *TransferHandler) ownedEntry(c *gin.Context, user *models.User) *models.LedgerEntry {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid id")
		return nil
	}

	entry, err := h.Engine.GetEntry(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "transfer not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return nil
	}
	if entry.SenderID != user.ID && entry.ReceiverID != user.ID {
		// report not-found rather than leaking other users' rows
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "transfer not found")
		return nil
	}
	return entry
}

// UpdateTransfer 修改一笔转账（自动同步镜像行）
func (h *TransferHandler) UpdateTransfer(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	entry := h.ownedEntry(c, user)
	if entry == nil {
		return
	}

	var req updateTransferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	var upd ledger.TransferUpdate
	if req.Amount != nil {
		amountCent, err := util.ParseAmountCent(*req.Amount)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amount")
			return
		}
		upd.AmountCent = &amountCent
	}
	upd.Status = req.Status
	upd.Description = req.Description

	if err := h.Engine.UpdateTransfer(entry.ID, upd); err != nil {
		if constraintError(err) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update failed, please retry")
		}
		return
	}

	updated, err := h.Engine.GetEntry(entry.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	util.Success(c, util.Response{
		"entry": toEntryResp(updated),
	})
}

// DeleteTransfer 删除一笔转账（连同镜像行）
func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	entry := h.ownedEntry(c, user)
	if entry == nil {
		return
	}

	if err := h.Engine.DeleteTransfer(entry.ID); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed, please retry")
		return
	}

	util.Success(c, util.Response{
		"deleted": true,
	})
}

// GetTransferStats 按状态统计转账笔数（单边计数）
func (h *TransferHandler) GetTransferStats(c *gin.Context) {
	if user := currentUser(c); user == nil {
		return
	}

	counts, err := h.Engine.CountByStatus()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	util.Success(c, util.Response{
		"by_status": counts,
		"total":     total,
	})
}

// ---------- 对账 ----------

// GetReconciliation runs a sweep and returns the report without
// persisting it.
func (h *TransferHandler) GetReconciliation(c *gin.Context) {
	if user := currentUser(c); user == nil {
		return
	}

	report, err := h.Engine.Reconcile()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "reconciliation failed")
		return
	}
	util.Success(c, util.Response{
		"report": report,
	})
}

// RunReconciliation runs a sweep and replaces the persisted findings.
func (h *TransferHandler) RunReconciliation(c *gin.Context) {
	if user := currentUser(c); user == nil {
		return
	}

	report, err := h.Engine.Reconcile()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "reconciliation failed")
		return
	}
	if err := h.Engine.SaveReport(report); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "saving report failed")
		return
	}
	util.Success(c, util.Response{
		"report": report,
	})
}

// RepairTransfer recreates the missing mirror of a dangling pair.
func (h *TransferHandler) RepairTransfer(c *gin.Context) {
	if user := currentUser(c); user == nil {
		return
	}

	transferID := c.Param("transfer_id")
	created, err := h.Engine.RepairTransfer(transferID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "transfer not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "repair failed")
		}
		return
	}
	util.Success(c, util.Response{
		"repaired": created,
	})
}
