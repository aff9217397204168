package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akproject/ak-chat/internal/service"
	"github.com/akproject/ak-chat/internal/service/chat"
)

// ChatHandler 聊天处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// CreateSession 创建会话
func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req chat.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session, err := h.svc.Chat.CreateSession(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	created(c, session)
}

// GetSession 获取会话
func (h *ChatHandler) GetSession(c *gin.Context) {
	id := c.Param("id")

	session, err := h.svc.Chat.GetSession(c.Request.Context(), id)
	if err != nil {
		notFound(c, "session not found")
		return
	}

	success(c, session)
}

// ListSessions 列出会话，最近活跃的在前
func (h *ChatHandler) ListSessions(c *gin.Context) {
	sessions, err := h.svc.Chat.ListSessions(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"sessions": sessions})
}

// renameSessionRequest 重命名会话请求
type renameSessionRequest struct {
	Name string `json:"name" binding:"required"`
}

// RenameSession 重命名会话
func (h *ChatHandler) RenameSession(c *gin.Context) {
	id := c.Param("id")

	var req renameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session, err := h.svc.Chat.RenameSession(c.Request.Context(), id, req.Name)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, session)
}

// DeleteSession 删除会话及其全部消息
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.Chat.DeleteSession(c.Request.Context(), id); err != nil {
		errorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SendMessage 发送消息并获取模型回复
func (h *ChatHandler) SendMessage(c *gin.Context) {
	id := c.Param("id")

	var req chat.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Chat.SendMessage(c.Request.Context(), id, &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, resp)
}

// GetMessages 获取会话消息
func (h *ChatHandler) GetMessages(c *gin.Context) {
	id := c.Param("id")

	messages, err := h.svc.Chat.GetMessages(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"messages": messages})
}
