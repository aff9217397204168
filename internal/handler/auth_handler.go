package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akproject/ak-chat/internal/service"
	"github.com/akproject/ak-chat/internal/service/auth"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.Services
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.Services) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// RequestCode 发送一次性登录验证码
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req auth.RequestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.svc.Auth.RequestCode(c.Request.Context(), req.Email); err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"sent": true})
}

// VerifyCode 校验验证码并签发令牌
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req auth.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Auth.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		errorResponse(c, err)
		return
	}
	if !resp.Success {
		c.JSON(http.StatusUnauthorized, Response{Code: -1, Message: resp.Message})
		return
	}

	success(c, resp)
}

// refreshRequest 刷新令牌请求
type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh 用刷新令牌换取新的令牌对
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	accessToken, refreshToken, err := h.svc.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, Response{Code: -1, Message: err.Error()})
		return
	}

	success(c, gin.H{"token": accessToken, "refresh_token": refreshToken})
}
