// Package handler 提供 HTTP 处理器
package handler

import "github.com/akproject/ak-chat/internal/service"

// Handlers 处理器集合
type Handlers struct {
	Chat   *ChatHandler
	Plan   *PlanHandler
	Auth   *AuthHandler
	System *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Chat:   NewChatHandler(svc),
		Plan:   NewPlanHandler(svc),
		Auth:   NewAuthHandler(svc),
		System: NewSystemHandler(svc),
	}
}
