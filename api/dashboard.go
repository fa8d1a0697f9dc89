package api

import (
	"errors"
	"strconv"
	"time"

	"fixedpay/middleware"
	"fixedpay/models"
	"fixedpay/service"
	"fixedpay/store"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 仪表盘处理器：月度汇总、结算方式统计、月度列表、缴费状态切换
type DashboardHandler struct {
	store store.Store
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler(st store.Store) *DashboardHandler {
	return &DashboardHandler{store: st}
}

// queryYearMonth 解析 year/month 查询参数，缺省取当前月份
func queryYearMonth(c *gin.Context) (string, error) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if s := c.Query("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1970 || v > 9999 {
			return "", errors.New("year 格式错误，应为4位数字（如: 2024）")
		}
		year = v
	}
	if s := c.Query("month"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 12 {
			return "", errors.New("month 格式错误，取值 1~12")
		}
		month = v
	}
	return models.YearMonthKey(year, month), nil
}

// monthData 拉取聚合计算所需的原始数据
func (h *DashboardHandler) monthData(userID uint, yearMonth string) (
	[]models.FixedExpense, []models.ExpenseHistory, []models.PaymentMethod, error) {

	expenses, err := h.store.ListExpenses(userID)
	if err != nil {
		return nil, nil, nil, err
	}
	history, err := h.store.ListHistory(userID, yearMonth)
	if err != nil {
		return nil, nil, nil, err
	}
	methods, err := h.store.ListPaymentMethods(userID)
	if err != nil {
		return nil, nil, nil, err
	}
	return expenses, history, methods, nil
}

// GetSummary 获取月度汇总
// @Summary 获取月度汇总
// @Description 统计指定月份固定支出的总额、已缴金额和待缴金额。year/month 缺省为当前月份。
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份（如: 2024）"
// @Param month query int false "月份 1~12"
// @Success 200 {object} Response{data=service.MonthSummary} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	yearMonth, err := queryYearMonth(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	expenses, err := h.store.ListExpenses(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	history, err := h.store.ListHistory(userID, yearMonth)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, service.BuildMonthSummary(expenses, history, yearMonth))
}

// GetPaymentStats 获取结算方式统计
// @Summary 获取结算方式统计
// @Description 按结算方式分组汇总固定支出金额（图表用）。未指定结算方式的支出归入“未指定”分组。
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份（如: 2024）"
// @Param month query int false "月份 1~12"
// @Success 200 {object} Response{data=[]service.PaymentStat} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/dashboard/stats [get]
func (h *DashboardHandler) GetPaymentStats(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	if _, err := queryYearMonth(c); err != nil {
		BadRequest(c, err.Error())
		return
	}

	expenses, err := h.store.ListExpenses(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	methods, err := h.store.ListPaymentMethods(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, service.BuildPaymentStats(expenses, methods))
}

// GetMonthList 获取月度支出列表
// @Summary 获取月度支出列表
// @Description 获取指定月份的固定支出列表，附带当月缴费状态和结算方式展示信息，按扣款日升序（不固定扣款日排在最后）。
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份（如: 2024）"
// @Param month query int false "月份 1~12"
// @Success 200 {object} Response{data=[]service.MonthExpenseItem} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/dashboard/list [get]
func (h *DashboardHandler) GetMonthList(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	yearMonth, err := queryYearMonth(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	expenses, history, methods, err := h.monthData(userID, yearMonth)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, service.BuildMonthList(expenses, history, methods, yearMonth))
}

// ToggleStatusRequest 缴费状态切换请求
type ToggleStatusRequest struct {
	ExpenseID uint   `json:"expense_id" binding:"required" example:"1"`
	YearMonth string `json:"year_month" binding:"required" example:"2024-03"`
	IsPaid    *bool  `json:"is_paid" binding:"required"`
}

// ToggleStatus 切换缴费状态
// @Summary 切换缴费状态
// @Description 标记某固定支出在某月已缴/未缴。记录按 (expense_id, year_month) 唯一，重复切换覆盖同一条记录；金额每次都从支出当前值重新快照。
// @Tags 仪表盘
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ToggleStatusRequest true "状态信息"
// @Success 200 {object} Response{data=models.ExpenseHistory} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "支出不存在"
// @Router /api/v1/dashboard/status [post]
func (h *DashboardHandler) ToggleStatus(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ToggleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if !models.IsValidYearMonth(req.YearMonth) {
		BadRequest(c, "year_month 格式错误，应为: 2024-03")
		return
	}

	record, err := h.store.ToggleExpenseStatus(userID, req.ExpenseID, req.YearMonth, *req.IsPaid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "支出不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "更新状态失败"))
		return
	}

	SuccessWithMessage(c, "状态已更新", record)
}
