// Package chat 提供会话与消息的业务逻辑
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akproject/ak-chat/internal/model"
	"github.com/akproject/ak-chat/internal/repository"
	"github.com/akproject/ak-chat/internal/upstream"
)

// Completer 上游补全接口
type Completer interface {
	Complete(ctx context.Context, settings upstream.Settings, message string) (string, error)
}

// Service 聊天服务
type Service struct {
	repo     repository.ChatRepository
	upstream Completer
	now      func() time.Time
}

// NewService 创建聊天服务
func NewService(repo repository.ChatRepository, up Completer) *Service {
	return &Service{repo: repo, upstream: up, now: time.Now}
}

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	Name  string `json:"name"`
	Model string `json:"model" binding:"required"`
}

// CreateSession 创建会话
func (s *Service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*model.ChatSession, error) {
	name := req.Name
	if name == "" {
		sessions, err := s.repo.GetSessions()
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		name = fmt.Sprintf("Чат %d", len(sessions)+1)
	}

	now := s.now()
	session := &model.ChatSession{
		ID:           uuid.New().String(),
		Name:         name,
		Model:        req.Model,
		MessageCount: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.SaveSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession 获取会话
func (s *Service) GetSession(ctx context.Context, id string) (*model.ChatSession, error) {
	return s.repo.GetSessionByID(id)
}

// ListSessions 列出全部会话，最近活跃的在前
func (s *Service) ListSessions(ctx context.Context) ([]*model.ChatSession, error) {
	return s.repo.GetSessions()
}

// RenameSession 重命名会话
func (s *Service) RenameSession(ctx context.Context, id, name string) (*model.ChatSession, error) {
	session, err := s.repo.GetSessionByID(id)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	session.Name = name
	if err := s.repo.SaveSession(session); err != nil {
		return nil, fmt.Errorf("failed to rename session: %w", err)
	}
	return session, nil
}

// DeleteSession 删除会话及其全部消息
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.repo.DeleteSession(id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetMessages 获取会话消息，按创建时间升序
func (s *Service) GetMessages(ctx context.Context, sessionID string) ([]*model.ChatMessage, error) {
	return s.repo.GetSessionMessages(sessionID)
}

// Attachment 消息附件（纯文本文件）
type Attachment struct {
	Name    string `json:"name"`
	Size    int    `json:"size"`
	Content string `json:"content"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content     string       `json:"content" binding:"required"`
	Attachments []Attachment `json:"attachments"`
}

// SendMessageResponse 发送消息响应：本轮写入的两条消息
type SendMessageResponse struct {
	UserMessage      *model.ChatMessage `json:"user_message"`
	AssistantMessage *model.ChatMessage `json:"assistant_message"`
}

// SendMessage 发送消息并获取模型回复
// 用户消息先落库；上游失败时用户消息保留，错误返回给调用方
func (s *Service) SendMessage(ctx context.Context, sessionID string, req *SendMessageRequest) (*SendMessageResponse, error) {
	session, err := s.repo.GetSessionByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	content := formatContent(req.Content, req.Attachments)

	userMsg := &model.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.repo.SaveMessage(userMsg); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}
	if err := s.touchSession(session); err != nil {
		return nil, err
	}

	reply, err := s.upstream.Complete(ctx, upstream.Settings{
		Model:       session.Model,
		Temperature: 0.7,
	}, content)
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	assistantMsg := &model.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   reply,
		CreatedAt: s.now(),
	}
	if err := s.repo.SaveMessage(assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}
	if err := s.touchSession(session); err != nil {
		return nil, err
	}

	return &SendMessageResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// StorageSize 估算存储占用
func (s *Service) StorageSize(ctx context.Context) (*repository.StorageSize, error) {
	return s.repo.GetStorageSize()
}

// ClearAll 清空全部会话与消息，不可逆
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.repo.ClearAllData(); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}
	return nil
}

// touchSession 消息追加后推进会话的计数与活跃时间
// 计数从消息表重新统计，与实际存储的消息数保持一致
func (s *Service) touchSession(session *model.ChatSession) error {
	count, err := s.repo.CountSessionMessages(session.ID)
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}

	session.MessageCount = int(count)
	session.UpdatedAt = s.now()
	if err := s.repo.SaveSession(session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// formatContent 将附件内容以围栏块附加到消息正文
func formatContent(content string, attachments []Attachment) string {
	if len(attachments) == 0 {
		return content
	}

	var b strings.Builder
	b.WriteString(content)
	for _, att := range attachments {
		b.WriteString(fmt.Sprintf("\n\n📄 Файл: %s\n```\n%s\n```", att.Name, att.Content))
	}
	return b.String()
}
