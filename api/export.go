package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"

	"fixedpay/middleware"
	"fixedpay/service"
	"fixedpay/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 数据导出处理器
type ExportHandler struct {
	store store.Store
}

// NewExportHandler 创建导出处理器
func NewExportHandler(st store.Store) *ExportHandler {
	return &ExportHandler{store: st}
}

// monthItems 加载指定月份的导出数据
func (h *ExportHandler) monthItems(c *gin.Context) (string, []service.MonthExpenseItem, bool) {
	userID := middleware.GetCurrentUserID(c)

	yearMonth, err := queryYearMonth(c)
	if err != nil {
		BadRequest(c, err.Error())
		return "", nil, false
	}

	expenses, err := h.store.ListExpenses(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return "", nil, false
	}
	history, err := h.store.ListHistory(userID, yearMonth)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return "", nil, false
	}
	methods, err := h.store.ListPaymentMethods(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return "", nil, false
	}

	return yearMonth, service.BuildMonthList(expenses, history, methods, yearMonth), true
}

// ExportCSV 导出 CSV
// @Summary 导出月度支出 CSV
// @Description 导出指定月份的固定支出与缴费状态，带 UTF-8 BOM 以便 Excel 正确识别中文
// @Tags 导出
// @Produce octet-stream
// @Security BearerAuth
// @Param year query int false "年份（如: 2024）"
// @Param month query int false "月份 1~12"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	yearMonth, items, ok := h.monthItems(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	buf.WriteString("\xEF\xBB\xBF")

	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"名称", "金额", "扣款日", "结算方式", "缴费状态", "缴费日期", "备注"})
	for _, item := range items {
		day := "不固定"
		if item.PaymentDay != 0 {
			day = fmt.Sprintf("%d日", item.PaymentDay)
		}
		status := "未缴"
		paidDate := ""
		if item.IsPaid {
			status = "已缴"
			if item.PaidDate != nil {
				paidDate = item.PaidDate.Format("2006-01-02")
			}
		}
		_ = w.Write([]string{
			item.Name,
			item.Amount.StringFixed(2),
			day,
			item.PaymentMethodName,
			status,
			paidDate,
			item.Memo,
		})
	}
	w.Flush()

	filename := fmt.Sprintf("固定支出_%s.csv", yearMonth)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON 导出 JSON
// @Summary 导出月度支出 JSON
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份（如: 2024）"
// @Param month query int false "月份 1~12"
// @Success 200 {file} file "JSON 文件"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	yearMonth, items, ok := h.monthItems(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("固定支出_%s.json", yearMonth)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))
	c.JSON(http.StatusOK, gin.H{
		"year_month": yearMonth,
		"items":      items,
	})
}

// ExportExcel 导出 Excel
// @Summary 导出月度支出 Excel
// @Description 导出带样式和合计行的 xlsx 工作表
// @Tags 导出
// @Produce octet-stream
// @Security BearerAuth
// @Param year query int false "年份（如: 2024）"
// @Param month query int false "月份 1~12"
// @Success 200 {file} file "Excel 文件"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	yearMonth, items, ok := h.monthItems(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "固定支出"
	f.SetSheetName("Sheet1", sheetName)

	// 表头样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 10)
	f.SetColWidth(sheetName, "D", "D", 15)
	f.SetColWidth(sheetName, "E", "E", 10)
	f.SetColWidth(sheetName, "F", "F", 14)
	f.SetColWidth(sheetName, "G", "G", 30)

	headers := []string{"名称", "金额", "扣款日", "结算方式", "缴费状态", "缴费日期", "备注"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, item := range items {
		row := i + 2
		day := "不固定"
		if item.PaymentDay != 0 {
			day = fmt.Sprintf("%d日", item.PaymentDay)
		}
		status := "未缴"
		paidDate := ""
		if item.IsPaid {
			status = "已缴"
			if item.PaidDate != nil {
				paidDate = item.PaidDate.Format("2006-01-02")
			}
		}
		amount, _ := item.Amount.Float64()
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), item.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), amount)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), day)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), item.PaymentMethodName)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), status)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), paidDate)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), item.Memo)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), dataStyle)
	}

	// 汇总行
	totalAmount := decimal.Zero
	for _, item := range items {
		totalAmount = totalAmount.Add(item.Amount)
	}
	summaryRow := len(items) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	total, _ := totalAmount.Float64()
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "合计")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryRow), total)
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", summaryRow), fmt.Sprintf("共 %d 项", len(items)))
	f.MergeCell(sheetName, fmt.Sprintf("C%d", summaryRow), fmt.Sprintf("G%d", summaryRow))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), summaryStyle)

	filename := fmt.Sprintf("固定支出_%s.xlsx", yearMonth)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 Excel 失败"))
		return
	}
}
