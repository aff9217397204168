package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/akproject/ak-chat/internal/service"
)

// SystemHandler 系统处理器：模型目录与存储管理
type SystemHandler struct {
	svc *service.Services
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(svc *service.Services) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// ListModels 列出可用模型
func (h *SystemHandler) ListModels(c *gin.Context) {
	success(c, gin.H{"models": h.svc.Model.List()})
}

// StorageSize 估算存储占用
// 序列化整个集合计算，是近似值，仅用于配额展示
func (h *SystemHandler) StorageSize(c *gin.Context) {
	size, err := h.svc.Chat.StorageSize(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, size)
}

// ClearStorage 清空全部会话与消息，不可逆
func (h *SystemHandler) ClearStorage(c *gin.Context) {
	if err := h.svc.Chat.ClearAll(c.Request.Context()); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"cleared": true})
}
