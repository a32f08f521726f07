package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"finbook/internal/ledger"
	"finbook/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler dumps the caller's ledger view to CSV/XLSX.
type ExportHandler struct {
	Engine *ledger.Engine
}

func NewExportHandler(engine *ledger.Engine) *ExportHandler {
	return &ExportHandler{Engine: engine}
}

var exportHeaders = []string{"Side", "Counterparty", "Amount", "Currency", "Status", "Description", "Date"}

// ExportCSV 导出转账列表为 CSV
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	entries, err := h.Engine.ListForUser(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transfers_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// UTF-8 BOM so Excel opens it correctly
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer.Write(exportHeaders)
	for i := range entries {
		e := &entries[i]
		counterparty := e.ReceiverID
		if e.ReceiverID == user.ID {
			counterparty = e.SenderID
		}
		writer.Write([]string{
			e.Side,
			fmt.Sprintf("%d", counterparty),
			util.FormatCent(e.AmountCent),
			e.Currency,
			e.Status,
			e.Description,
			e.CreatedAt.Format("2006-01-02"),
		})
	}
}

// ExportXLSX 导出转账列表为 XLSX
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	entries, err := h.Engine.ListForUser(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	f := excelize.NewFile()
	sheetName := "Transfers"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create sheet failed")
		return
	}
	f.SetActiveSheet(index)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for idx := range entries {
		e := &entries[idx]
		row := idx + 2

		counterparty := e.ReceiverID
		if e.ReceiverID == user.ID {
			counterparty = e.SenderID
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), e.Side)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), counterparty)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), util.FormatCent(e.AmountCent))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), e.Currency)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), e.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), e.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), e.CreatedAt.Format("2006-01-02"))
	}

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 14)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 10)
	f.SetColWidth(sheetName, "E", "E", 12)
	f.SetColWidth(sheetName, "F", "F", 30)
	f.SetColWidth(sheetName, "G", "G", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transfers_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
