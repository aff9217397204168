// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import "github.com/akproject/ak-chat/internal/model"

// ChatRepository 聊天数据访问接口
// 接口定义使 Service 层可以轻松 mock 进行单元测试
type ChatRepository interface {
	SaveSession(session *model.ChatSession) error
	SaveMessage(message *model.ChatMessage) error
	GetSessionByID(id string) (*model.ChatSession, error)
	GetSessions() ([]*model.ChatSession, error)
	GetSessionMessages(sessionID string) ([]*model.ChatMessage, error)
	CountSessionMessages(sessionID string) (int64, error)
	DeleteSession(sessionID string) error
	GetStorageSize() (*StorageSize, error)
	ClearAllData() error
}

// AuthRepository 用户数据访问接口
type AuthRepository interface {
	UpsertUser(user *model.User) error
	GetUserByID(id string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
}

// 确保实现满足接口
var (
	_ ChatRepository = (*chatRepositoryImpl)(nil)
	_ AuthRepository = (*authRepositoryImpl)(nil)
)
