package api

import (
	"errors"
	"log"

	"fixedpay/config"
	"fixedpay/middleware"
	"fixedpay/models"
	"fixedpay/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler 认证与账号处理器
type AuthHandler struct {
	cfg   *config.Config
	store store.Store
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, st store.Store) *AuthHandler {
	return &AuthHandler{cfg: cfg, store: st}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"testuser"`
	Password string `json:"password" binding:"required,min=6,max=50" example:"password123"`
	Email    string `json:"email" binding:"omitempty,email" example:"test@example.com"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"testuser"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    string      `json:"token"`
	UserInfo models.User `json:"user_info"`
}

// defaultCategories 新用户的默认支出类别
var defaultCategories = []struct {
	Name string
	Sort int
}{
	{"餐饮", 10},
	{"交通", 20},
	{"通信", 30},
	{"住房", 40},
	{"订阅", 50},
}

// defaultPaymentMethods 新用户的默认结算方式
var defaultPaymentMethods = []struct {
	Name  string
	Type  string
	Color string
}{
	{"信用卡", models.PaymentTypeCard, "#6366f1"},
	{"储蓄卡", models.PaymentTypeCard, "#10b981"},
	{"现金", models.PaymentTypeCash, "#f59e0b"},
}

// seedDefaults 为新注册用户初始化默认类别和结算方式。
// 单条失败不中断注册，只记录日志便于排查残缺账号
func (h *AuthHandler) seedDefaults(userID uint) {
	for _, item := range defaultCategories {
		if err := h.store.CreateCategory(&models.Category{
			UserID:    userID,
			Name:      item.Name,
			Type:      models.CategoryTypeExpense,
			SortOrder: item.Sort,
		}); err != nil {
			log.Printf("初始化默认类别失败: user=%d category=%s err=%v", userID, item.Name, err)
		}
	}
	for _, item := range defaultPaymentMethods {
		if err := h.store.CreatePaymentMethod(&models.PaymentMethod{
			UserID: userID,
			Name:   item.Name,
			Type:   item.Type,
			Color:  item.Color,
		}); err != nil {
			log.Printf("初始化默认结算方式失败: user=%d method=%s err=%v", userID, item.Name, err)
		}
	}
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户账号，并初始化默认类别和结算方式
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 200 {object} Response{data=models.User} "注册成功"
// @Failure 400 {object} Response "请求参数错误或用户名已存在"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 检查用户名是否已存在
	if _, err := h.store.GetUserByUsername(req.Username); err == nil {
		BadRequest(c, "用户名已存在")
		return
	}

	// 加密密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	user := models.User{
		Username: req.Username,
		Password: string(hashedPassword),
		Email:    req.Email,
		Theme:    models.ThemeSystem,
		// 通知默认开启
		NotificationEnabled: true,
	}
	if err := h.store.CreateUser(&user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			BadRequest(c, "用户名已存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "创建用户失败"))
		return
	}

	h.seedDefaults(user.ID)

	SuccessWithMessage(c, "注册成功", user)
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户登录获取 JWT token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "用户名或密码错误"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		Unauthorized(c, "用户名或密码错误")
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		Unauthorized(c, "用户名或密码错误")
		return
	}

	// 生成 token
	token, err := middleware.GenerateToken(user.ID, user.Username, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	Success(c, LoginResponse{
		Token:    token,
		UserInfo: *user,
	})
}

// GetProfile 获取用户信息
// @Summary 获取当前用户信息
// @Description 获取当前登录用户的个人资料和偏好设置
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		NotFound(c, "用户不存在")
		return
	}
	Success(c, user)
}

// UpdateSettingsRequest 更新个人设置请求
type UpdateSettingsRequest struct {
	Nickname            *string `json:"nickname" binding:"omitempty,max=50"`
	ProfileImage        *string `json:"profile_image" binding:"omitempty,max=255"`
	Theme               *string `json:"theme" binding:"omitempty"`
	NotificationEnabled *bool   `json:"notification_enabled"`
	Email               *string `json:"email" binding:"omitempty,email"`
}

// UpdateSettings 更新个人设置
// @Summary 更新个人设置
// @Description 更新昵称、头像、主题、通知开关等偏好设置，仅更新传入的字段
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateSettingsRequest true "设置信息"
// @Success 200 {object} Response{data=models.User} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/settings [put]
func (h *AuthHandler) UpdateSettings(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.Nickname != nil {
		updates["nickname"] = *req.Nickname
	}
	if req.ProfileImage != nil {
		updates["profile_image"] = *req.ProfileImage
	}
	if req.Theme != nil {
		if !models.IsValidTheme(*req.Theme) {
			BadRequest(c, "无效的主题，可选值: system/light/dark")
			return
		}
		updates["theme"] = *req.Theme
	}
	if req.NotificationEnabled != nil {
		updates["notification_enabled"] = *req.NotificationEnabled
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "无需更新", nil)
		return
	}

	if err := h.store.UpdateUser(userID, updates); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "用户不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "更新设置失败"))
		return
	}

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		NotFound(c, "用户不存在")
		return
	}
	SuccessWithMessage(c, "设置已更新", user)
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required" example:"oldpassword123"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=50" example:"newpassword123"`
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Description 修改当前用户密码
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "密码信息"
// @Success 200 {object} Response "修改成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "原密码错误"
// @Router /api/v1/auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		NotFound(c, "用户不存在")
		return
	}

	// 验证旧密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		Unauthorized(c, "原密码错误")
		return
	}

	// 加密新密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	if err := h.store.UpdateUser(userID, map[string]interface{}{
		"password": string(hashedPassword),
	}); err != nil {
		InternalError(c, SafeErrorMessage(err, "更新密码失败"))
		return
	}

	SuccessWithMessage(c, "密码修改成功", nil)
}

// DeleteAccount 注销账号
// @Summary 注销账号
// @Description 删除当前用户及其全部数据（类别、结算方式、固定支出、缴费记录）
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "注销成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/account [delete]
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	if err := h.store.DeleteUser(userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "用户不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "注销账号失败"))
		return
	}
	SuccessWithMessage(c, "账号已注销", nil)
}
