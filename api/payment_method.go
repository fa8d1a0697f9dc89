package api

import (
	"errors"
	"regexp"

	"fixedpay/middleware"
	"fixedpay/models"
	"fixedpay/store"

	"github.com/gin-gonic/gin"
)

// PaymentMethodHandler 结算方式处理器
type PaymentMethodHandler struct {
	store store.Store
}

// NewPaymentMethodHandler 创建结算方式处理器
func NewPaymentMethodHandler(st store.Store) *PaymentMethodHandler {
	return &PaymentMethodHandler{store: st}
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CreatePaymentMethodRequest 创建结算方式请求
type CreatePaymentMethodRequest struct {
	Name  string `json:"name" binding:"required" example:"信用卡"`
	Type  string `json:"type" example:"CARD"`
	Color string `json:"color" example:"#6366f1"`
}

// List 获取结算方式列表
// @Summary 获取结算方式列表
// @Tags 结算方式
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.PaymentMethod} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/payment-methods [get]
func (h *PaymentMethodHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	methods, err := h.store.ListPaymentMethods(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, methods)
}

// Create 创建结算方式
// @Summary 创建结算方式
// @Description 创建结算方式。color 为 #RRGGBB 格式，缺省使用默认配色。
// @Tags 结算方式
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePaymentMethodRequest true "结算方式信息"
// @Success 200 {object} Response{data=models.PaymentMethod} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/payment-methods [post]
func (h *PaymentMethodHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if req.Type == "" {
		req.Type = models.PaymentTypeCard
	}
	if req.Color == "" {
		req.Color = models.DefaultPaymentColor
	}
	if !colorPattern.MatchString(req.Color) {
		BadRequest(c, "color 格式错误，应为: #RRGGBB")
		return
	}

	method := &models.PaymentMethod{
		UserID: userID,
		Name:   req.Name,
		Type:   req.Type,
		Color:  req.Color,
	}
	if err := h.store.CreatePaymentMethod(method); err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", method)
}

// Delete 删除结算方式
// @Summary 删除结算方式
// @Description 删除结算方式，引用该方式的固定支出会被置为未指定，不会被删除
// @Tags 结算方式
// @Produce json
// @Security BearerAuth
// @Param id path int true "结算方式ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "结算方式不存在"
// @Router /api/v1/payment-methods/{id} [delete]
func (h *PaymentMethodHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := pathID(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.store.DeletePaymentMethod(userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "结算方式不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
