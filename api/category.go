package api

import (
	"errors"

	"fixedpay/middleware"
	"fixedpay/models"
	"fixedpay/store"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 分类处理器
type CategoryHandler struct {
	store store.Store
}

// NewCategoryHandler 创建分类处理器
func NewCategoryHandler(st store.Store) *CategoryHandler {
	return &CategoryHandler{store: st}
}

// CreateCategoryRequest 创建分类请求
type CreateCategoryRequest struct {
	Name      string `json:"name" binding:"required" example:"订阅服务"`
	Type      string `json:"type" example:"EXPENSE"`
	SortOrder int    `json:"sort_order" example:"60"`
}

// UpdateCategoryRequest 更新分类请求，仅提交的字段会被更新
type UpdateCategoryRequest struct {
	Name      *string `json:"name"`
	Type      *string `json:"type"`
	SortOrder *int    `json:"sort_order"`
}

// ReorderCategoriesRequest 分类排序请求
type ReorderCategoriesRequest struct {
	Orders []store.CategoryOrder `json:"orders" binding:"required,min=1,dive"`
}

// List 获取分类列表
// @Summary 获取分类列表
// @Description 获取当前用户的分类，按 sort_order 升序，同序按名称升序
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	categories, err := h.store.ListCategories(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, categories)
}

// Create 创建分类
// @Summary 创建分类
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "分类信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if req.Type == "" {
		req.Type = models.CategoryTypeExpense
	}
	if !models.IsValidCategoryType(req.Type) {
		BadRequest(c, "type 取值 INCOME 或 EXPENSE")
		return
	}

	category := &models.Category{
		UserID:    userID,
		Name:      req.Name,
		Type:      req.Type,
		SortOrder: req.SortOrder,
	}
	if err := h.store.CreateCategory(category); err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", category)
}

// Update 更新分类
// @Summary 更新分类
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Param request body UpdateCategoryRequest true "分类信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := pathID(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	var req UpdateCategoryRequest
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
	if req.Type != nil {
		if !models.IsValidCategoryType(*req.Type) {
			BadRequest(c, "type 取值 INCOME 或 EXPENSE")
			return
		}
		updates["type"] = *req.Type
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if len(updates) == 0 {
		BadRequest(c, "没有需要更新的字段")
		return
	}

	if err := h.store.UpdateCategory(userID, id, updates); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "分类不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	category, err := h.store.GetCategory(userID, id)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	SuccessWithMessage(c, "更新成功", category)
}

// Delete 删除分类
// @Summary 删除分类
// @Description 删除分类，引用该分类的固定支出会被置为未分类，不会被删除
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	id, err := pathID(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.store.DeleteCategory(userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "分类不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// Reorder 批量调整分类排序
// @Summary 批量调整分类排序
// @Description 一次提交多个分类的 sort_order，整批事务执行：任一分类不存在则全部回滚
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ReorderCategoriesRequest true "排序信息"
// @Success 200 {object} Response{data=[]models.Category} "排序成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/reorder [put]
func (h *CategoryHandler) Reorder(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ReorderCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if err := h.store.ReorderCategories(userID, req.Orders); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "分类不存在，排序未生效")
			return
		}
		InternalError(c, SafeErrorMessage(err, "排序失败"))
		return
	}

	categories, err := h.store.ListCategories(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	SuccessWithMessage(c, "排序成功", categories)
}
