package api

import (
	"errors"
	"log"
	"time"

	"fixedpay/models"
	"fixedpay/service"
	"fixedpay/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// 验证码有效期与重发间隔
const (
	resetCodeTTL      = 10 * time.Minute
	resetResendWindow = time.Minute
)

// PasswordResetHandler 密码重置处理器
type PasswordResetHandler struct {
	store store.Store
	email *service.EmailService
}

// NewPasswordResetHandler 创建密码重置处理器
func NewPasswordResetHandler(st store.Store, email *service.EmailService) *PasswordResetHandler {
	return &PasswordResetHandler{store: st, email: email}
}

// RequestResetRequest 请求重置验证码
type RequestResetRequest struct {
	Email string `json:"email" binding:"required,email" example:"user@example.com"`
}

// VerifyResetRequest 校验重置验证码
type VerifyResetRequest struct {
	Email string `json:"email" binding:"required,email" example:"user@example.com"`
	Code  string `json:"code" binding:"required,len=6" example:"123456"`
}

// ConfirmResetRequest 提交新密码
type ConfirmResetRequest struct {
	Email       string `json:"email" binding:"required,email" example:"user@example.com"`
	Code        string `json:"code" binding:"required,len=6" example:"123456"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=50" example:"newpass123"`
}

// RequestReset 请求密码重置验证码
// @Summary 请求密码重置验证码
// @Description 向注册邮箱发送6位验证码，有效期10分钟，1分钟内不可重复请求
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RequestResetRequest true "邮箱"
// @Success 200 {object} Response "发送成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "邮箱未注册"
// @Failure 429 {object} Response "请求过于频繁"
// @Router /api/v1/auth/reset/request [post]
func (h *PasswordResetHandler) RequestReset(c *gin.Context) {
	var req RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	user, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "该邮箱未注册")
			return
		}
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	if latest, err := h.store.LatestActivePasswordReset(user.ID); err == nil {
		if time.Since(latest.CreatedAt) < resetResendWindow {
			Error(c, 429, "请求过于频繁，请1分钟后再试")
			return
		}
	}

	code, err := models.GenerateVerificationCode()
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成验证码失败"))
		return
	}

	// 新验证码生效，旧的全部作废
	if err := h.store.InvalidatePasswordResets(user.ID); err != nil {
		InternalError(c, SafeErrorMessage(err, "操作失败"))
		return
	}
	reset := &models.PasswordReset{
		UserID:    user.ID,
		Token:     code,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(resetCodeTTL),
	}
	if err := h.store.CreatePasswordReset(reset); err != nil {
		InternalError(c, SafeErrorMessage(err, "操作失败"))
		return
	}

	if err := h.email.SendPasswordResetEmail(user.Email, user.Username, code); err != nil {
		log.Printf("发送重置邮件失败: %v", err)
		InternalError(c, SafeErrorMessage(err, "发送邮件失败"))
		return
	}

	SuccessWithMessage(c, "验证码已发送至邮箱", nil)
}

// VerifyReset 校验密码重置验证码
// @Summary 校验密码重置验证码
// @Description 仅校验验证码是否有效，不消耗验证码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body VerifyResetRequest true "邮箱与验证码"
// @Success 200 {object} Response "验证码有效"
// @Failure 400 {object} Response "验证码无效或已过期"
// @Router /api/v1/auth/reset/verify [post]
func (h *PasswordResetHandler) VerifyReset(c *gin.Context) {
	var req VerifyResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	reset, err := h.store.GetPasswordReset(req.Email, req.Code)
	if err != nil || !reset.IsValid() {
		BadRequest(c, "验证码无效或已过期")
		return
	}

	SuccessWithMessage(c, "验证码有效", nil)
}

// ConfirmReset 使用验证码重置密码
// @Summary 使用验证码重置密码
// @Description 校验通过后更新密码并作废验证码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ConfirmResetRequest true "邮箱、验证码与新密码"
// @Success 200 {object} Response "重置成功"
// @Failure 400 {object} Response "验证码无效或已过期"
// @Router /api/v1/auth/reset/confirm [post]
func (h *PasswordResetHandler) ConfirmReset(c *gin.Context) {
	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	reset, err := h.store.GetPasswordReset(req.Email, req.Code)
	if err != nil || !reset.IsValid() {
		BadRequest(c, "验证码无效或已过期")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "密码加密失败"))
		return
	}

	if err := h.store.UpdateUser(reset.UserID, map[string]interface{}{
		"password": string(hashed),
	}); err != nil {
		InternalError(c, SafeErrorMessage(err, "重置密码失败"))
		return
	}
	if err := h.store.MarkPasswordResetUsed(reset.ID); err != nil {
		InternalError(c, SafeErrorMessage(err, "操作失败"))
		return
	}

	SuccessWithMessage(c, "密码重置成功，请使用新密码登录", nil)
}
