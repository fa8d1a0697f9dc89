package api

import (
	"errors"
	"strconv"

	"fixedpay/middleware"
	"fixedpay/models"
	"fixedpay/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ExpenseHandler 固定支出处理器
type ExpenseHandler struct {
	store store.Store
}

// NewExpenseHandler 创建固定支出处理器
func NewExpenseHandler(st store.Store) *ExpenseHandler {
	return &ExpenseHandler{store: st}
}

// CreateExpenseRequest 创建固定支出请求
type CreateExpenseRequest struct {
	Name            string          `json:"name" binding:"required" example:"房租"`
	Amount          decimal.Decimal `json:"amount" binding:"required" example:"1500.00"`
	PaymentDay      int             `json:"payment_day" example:"25"`
	CategoryID      *uint           `json:"category_id"`
	PaymentMethodID *uint           `json:"payment_method_id"`
	Memo            string          `json:"memo" example:"每月25日自动扣款"`
}

// UpdateExpenseRequest 更新固定支出请求，仅提交的字段会被更新
type UpdateExpenseRequest struct {
	Name            *string          `json:"name"`
	Amount          *decimal.Decimal `json:"amount"`
	PaymentDay      *int             `json:"payment_day"`
	CategoryID      *uint            `json:"category_id"`
	PaymentMethodID *uint            `json:"payment_method_id"`
	Memo            *string          `json:"memo"`
}

// checkRefs 校验分类与结算方式归属当前用户
func (h *ExpenseHandler) checkRefs(userID uint, categoryID, methodID *uint) error {
	if categoryID != nil && *categoryID != 0 {
		if _, err := h.store.GetCategory(userID, *categoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errors.New("分类不存在")
			}
			return err
		}
	}
	if methodID != nil && *methodID != 0 {
		methods, err := h.store.ListPaymentMethods(userID)
		if err != nil {
			return err
		}
		for _, m := range methods {
			if m.ID == *methodID {
				return nil
			}
		}
		return errors.New("结算方式不存在")
	}
	return nil
}

// pathID 解析路径中的 id 参数
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("无效的ID")
	}
	return uint(id), nil
}

// List 获取固定支出列表
// @Summary 获取固定支出列表
// @Description 获取当前用户的所有固定支出，按扣款日升序（不固定扣款日排在最后）
// @Tags 固定支出
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.FixedExpense} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	expenses, err := h.store.ListExpenses(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, expenses)
}

// Get 获取固定支出详情
// @Summary 获取固定支出详情
// @Tags 固定支出
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出ID"
// @Success 200 {object} Response{data=models.FixedExpense} "获取成功"
// @Failure 404 {object} Response "支出不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := pathID(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	expense, err := h.store.GetExpense(userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "支出不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, expense)
}

// Create 创建固定支出
// @Summary 创建固定支出
// @Description 创建固定支出。payment_day 取 1~31，0 表示扣款日不固定。
// @Tags 固定支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "支出信息"
// @Success 200 {object} Response{data=models.FixedExpense} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		BadRequest(c, "金额必须大于0")
		return
	}
	if !models.IsValidPaymentDay(req.PaymentDay) {
		BadRequest(c, "payment_day 取值 1~31，0 表示不固定")
		return
	}
	if err := h.checkRefs(userID, req.CategoryID, req.PaymentMethodID); err != nil {
		BadRequest(c, err.Error())
		return
	}

	expense := &models.FixedExpense{
		UserID:          userID,
		Name:            req.Name,
		Amount:          req.Amount,
		PaymentDay:      req.PaymentDay,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		Memo:            req.Memo,
	}
	if err := h.store.CreateExpense(expense); err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", expense)
}

// Update 更新固定支出
// @Summary 更新固定支出
// @Description 更新固定支出信息。金额变更不会回写历史快照，仅影响此后的状态切换。
// @Tags 固定支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出ID"
// @Param request body UpdateExpenseRequest true "支出信息"
// @Success 200 {object} Response{data=models.FixedExpense} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "支出不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := pathID(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		if *req.Name == "" {
			BadRequest(c, "名称不能为空")
			return
		}
		updates["name"] = *req.Name
	}
	if req.Amount != nil {
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			BadRequest(c, "金额必须大于0")
			return
		}
		updates["amount"] = *req.Amount
	}
	if req.PaymentDay != nil {
		if !models.IsValidPaymentDay(*req.PaymentDay) {
			BadRequest(c, "payment_day 取值 1~31，0 表示不固定")
			return
		}
		updates["payment_day"] = *req.PaymentDay
	}
	if req.CategoryID != nil {
		if *req.CategoryID == 0 {
			updates["category_id"] = nil
		} else {
			updates["category_id"] = req.CategoryID
		}
	}
	if req.PaymentMethodID != nil {
		if *req.PaymentMethodID == 0 {
			updates["payment_method_id"] = nil
		} else {
			updates["payment_method_id"] = req.PaymentMethodID
		}
	}
	if req.Memo != nil {
		updates["memo"] = *req.Memo
	}
	if len(updates) == 0 {
		BadRequest(c, "没有需要更新的字段")
		return
	}
	if err := h.checkRefs(userID, req.CategoryID, req.PaymentMethodID); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.store.UpdateExpense(userID, id, updates); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "支出不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	expense, err := h.store.GetExpense(userID, id)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	SuccessWithMessage(c, "更新成功", expense)
}

// Delete 删除固定支出
// @Summary 删除固定支出
// @Description 删除固定支出，同时清除其全部缴费历史
// @Tags 固定支出
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "支出不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := pathID(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.store.DeleteExpense(userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "支出不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
